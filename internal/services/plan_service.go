// Package services – PlanService
//
// PlanService is the plan assembler and progression chain builder. For each
// trigger (a new log or an onboarding submission) it computes the
// deterministic shortlist and trend, tries to augment the shortlist through
// the dedup cache and the AI gateway, and appends exactly one plan row
// linked to its predecessor.
//
// The gateway call happens before any transaction is opened. Parent
// resolution and insert run in one transaction under a per-program lock;
// the unique index on parent_plan_id turns a cross-process race into
// ErrPersistenceConflict instead of a forked chain.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/dedup"
	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/gateway"
	"github.com/tbourn/rehab-plan-backend/internal/observability"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/rules"
)

// MaxChainDepth bounds progression chain traversal.
const MaxChainDepth = 1000

// PlanService assembles and reads rehab plans.
type PlanService struct {
	DB      *gorm.DB
	Catalog catalog.Index
	Gateway gateway.Augmenter
	Cache   *dedup.Cache
	// Now is the clock used for GeneratedAt. Defaults to time.Now.
	Now func() time.Time

	locks keyedMutex
}

// NewPlanService wires a PlanService. gw and cache may be nil: without a
// gateway every plan is a skipped fallback, without a cache every
// augmentation goes to the gateway.
func NewPlanService(db *gorm.DB, idx catalog.Index, gw gateway.Augmenter, cache *dedup.Cache) *PlanService {
	return &PlanService{DB: db, Catalog: idx, Gateway: gw, Cache: cache, Now: time.Now}
}

// GenerateRequest selects the trigger of a plan. Exactly one field is set.
type GenerateRequest struct {
	LogID               string `json:"log_id"`
	OnboardingProfileID string `json:"onboarding_profile_id"`
}

// Generate creates the plan for a log or an onboarding profile.
func (s *PlanService) Generate(ctx context.Context, userID string, req GenerateRequest) (*domain.RehabPlan, error) {
	switch {
	case req.LogID != "" && req.OnboardingProfileID != "":
		return nil, invalid("log_id", "set either log_id or onboarding_profile_id, not both")
	case req.LogID != "":
		return s.GenerateForLog(ctx, userID, req.LogID)
	case req.OnboardingProfileID != "":
		return s.GenerateForOnboarding(ctx, userID, req.OnboardingProfileID)
	default:
		return nil, invalid("log_id", "log_id or onboarding_profile_id is required")
	}
}

// GenerateForLog appends the plan for a symptom log to its program's chain.
func (s *PlanService) GenerateForLog(ctx context.Context, userID, logID string) (*domain.RehabPlan, error) {
	tr := otel.Tracer("services/PlanService")
	ctx, span := tr.Start(ctx, "GenerateForLog",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("log.id", logID)))
	defer span.End()

	l, err := repo.GetLog(ctx, s.DB, logID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	prog, err := repo.GetProgram(ctx, s.DB, l.ProgramID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if _, err := repo.PlanByLog(ctx, s.DB, l.ID); err == nil {
		return nil, fmt.Errorf("%w: log %s already has a plan", ErrPersistenceConflict, l.ID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	trend, err := s.trendFor(ctx, l)
	if err != nil {
		return nil, err
	}

	in := rules.LogInput{
		Pain: l.Pain, Stiffness: l.Stiffness, Swelling: l.Swelling,
		ActivityLevel: l.ActivityLevel, Aggravators: []string(l.Aggravators),
	}
	goal := ""
	if prof, err := repo.LatestProfile(ctx, s.DB, userID, prog.ID); err == nil {
		goal = prof.Goal
	}

	logID = l.ID
	plan := s.assemble(ctx, prog, in, goal, trend, false)
	plan.RehabLogID = &logID
	span.SetAttributes(attribute.String("program.id", prog.ID), attribute.String("plan.ai_status", plan.AIStatus))

	if err := s.appendToChain(ctx, plan); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist plan")
		return nil, err
	}
	return plan, nil
}

// GenerateForOnboarding creates the initial (root) plan for a profile that
// suggested rehab.
func (s *PlanService) GenerateForOnboarding(ctx context.Context, userID, profileID string) (*domain.RehabPlan, error) {
	tr := otel.Tracer("services/PlanService")
	ctx, span := tr.Start(ctx, "GenerateForOnboarding",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("onboarding.id", profileID)))
	defer span.End()

	prof, err := repo.GetProfile(ctx, s.DB, profileID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOnboardingNotFound
		}
		return nil, err
	}
	if prof.ProgramID == nil {
		return nil, invalid("onboarding_profile_id", "profile suggested %s mode and has no program", prof.ModeSuggestion)
	}
	prog, err := repo.GetProgram(ctx, s.DB, *prof.ProgramID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if _, err := repo.PlanByOnboarding(ctx, s.DB, prof.ID); err == nil {
		return nil, fmt.Errorf("%w: profile %s already has a plan", ErrPersistenceConflict, prof.ID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	in := rules.LogInput{Pain: prof.PainRest, ActivityLevel: domain.ActivityModerate}
	plan := s.assemble(ctx, prog, in, prof.Goal, nil, true)
	plan.OnboardingProfileID = &prof.ID

	unlock := s.locks.Lock(prog.ID)
	plan.GeneratedAt = s.now()
	err = repo.CreatePlan(ctx, s.DB, plan)
	unlock()
	if err != nil {
		return nil, s.persistErr(err)
	}
	observability.ObservePlan(plan.PlanType, plan.AIStatus)

	if plan.AIStatus == domain.AIStatusSuccess {
		if _, err := repo.SetAIPatternOnce(ctx, s.DB, prof.ID, plan.AIOutputJSON); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("onboarding_id", prof.ID).Msg("store ai pattern")
		}
	}
	return plan, nil
}

// Latest returns the newest plan of a program, or ErrPlanNotFound.
func (s *PlanService) Latest(ctx context.Context, userID, programID string) (*domain.RehabPlan, error) {
	if _, err := s.program(ctx, userID, programID); err != nil {
		return nil, err
	}
	p, err := repo.LatestPlan(ctx, s.DB, programID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// Chain returns the progression chain of a program from its head back to
// the root, newest first, at most limit plans (MaxChainDepth when limit is
// not positive). A cycle, a link to another program or a link that does
// not go back in time yields ErrChainCorrupt.
func (s *PlanService) Chain(ctx context.Context, userID, programID string, limit int) ([]domain.RehabPlan, error) {
	if _, err := s.program(ctx, userID, programID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxChainDepth {
		limit = MaxChainDepth
	}
	head, err := repo.LatestChainPlan(ctx, s.DB, programID)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.RehabPlan{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := []domain.RehabPlan{*head}
	seen := map[string]struct{}{head.ID: {}}
	cur := head
	for cur.ParentPlanID != nil && len(out) < limit {
		if len(seen) >= MaxChainDepth {
			return nil, fmt.Errorf("%w: deeper than %d", ErrChainCorrupt, MaxChainDepth)
		}
		pid := *cur.ParentPlanID
		if _, dup := seen[pid]; dup {
			return nil, fmt.Errorf("%w: cycle at %s", ErrChainCorrupt, pid)
		}
		parent, err := repo.GetPlan(ctx, s.DB, pid, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("%w: missing parent %s", ErrChainCorrupt, pid)
			}
			return nil, err
		}
		if parent.ProgramID != programID || !parent.GeneratedAt.Before(cur.GeneratedAt) {
			return nil, fmt.Errorf("%w: bad link %s -> %s", ErrChainCorrupt, cur.ID, pid)
		}
		seen[pid] = struct{}{}
		out = append(out, *parent)
		cur = parent
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Assembly

// assemble builds an unsaved plan. It starts pending and leaves with a
// terminal AI status; the gateway call happens here, outside any
// transaction.
func (s *PlanService) assemble(ctx context.Context, prog *domain.RehabProgram, in rules.LogInput, goal string, trend *string, initial bool) *domain.RehabPlan {
	shortlist := rules.BuildShortlist(in, prog.Area, s.Catalog)
	slJSON, _ := json.Marshal(shortlist)

	model := ""
	if s.Gateway != nil {
		model = s.Gateway.Model()
	}
	trendStr := ""
	if trend != nil {
		trendStr = *trend
	}
	ids := make([]string, len(shortlist))
	for i, it := range shortlist {
		ids[i] = it.ExerciseID
	}
	fp := dedup.Fingerprint(dedup.Request{
		ScopeID: prog.ID, Model: model, ExerciseIDs: ids,
		Area: prog.Area, Side: prog.Side,
		Pain: in.Pain, Stiffness: in.Stiffness, Swelling: in.Swelling,
		Activity: in.ActivityLevel, Aggravators: in.Aggravators,
		Goal: goal, Trend: trendStr,
	})

	plan := &domain.RehabPlan{
		UserID:        prog.UserID,
		ProgramID:     prog.ID,
		IsInitial:     initial,
		AIStatus:      domain.AIStatusPending,
		Fingerprint:   fp,
		Model:         model,
		ShortlistJSON: datatypes.JSON(slJSON),
		Trend:         trend,
	}

	uc := gateway.UserContext{
		Area: prog.Area, Side: prog.Side, Goal: goal,
		Pain: in.Pain, Stiffness: in.Stiffness, Swelling: in.Swelling,
		ActivityLevel: in.ActivityLevel, Aggravators: in.Aggravators,
		Trend: trendStr, Initial: initial,
	}
	res := s.augment(ctx, fp, shortlist, uc)
	applyResult(plan, res)

	if res.Status == domain.AIStatusFailed {
		log.Ctx(ctx).Warn().
			Str("program_id", prog.ID).
			Str("fingerprint", fp).
			Str("ai_status", plan.AIStatus).
			Str("outcome", res.Outcome()).
			Err(res.Err).
			Msg("augmentation failed; using fallback plan")
	}
	return plan
}

// applyResult moves a pending plan to its terminal state.
func applyResult(plan *domain.RehabPlan, res gateway.Result) {
	if plan.AIStatus != domain.AIStatusPending {
		return
	}
	switch res.Status {
	case domain.AIStatusSuccess:
		out, err1 := json.Marshal(res.Content.Plan())
		fb, err2 := json.Marshal(res.Content.Coaching)
		if err1 != nil || err2 != nil {
			applyResult(plan, gateway.Failed(fmt.Errorf("%w: encode content", gateway.ErrSchemaMismatch)))
			return
		}
		plan.AIStatus = domain.AIStatusSuccess
		plan.PlanType = domain.PlanTypeAI
		plan.AIOutputJSON = datatypes.JSON(out)
		plan.AIFeedbackJSON = datatypes.JSON(fb)
	case domain.AIStatusSkipped:
		plan.AIStatus = domain.AIStatusSkipped
		plan.PlanType = domain.PlanTypeFallback
	default:
		plan.AIStatus = domain.AIStatusFailed
		plan.PlanType = domain.PlanTypeFallback
		if res.Err != nil {
			plan.AIError = res.Err.Error()
		}
	}
}

// augment resolves an augmentation through the dedup cache.
func (s *PlanService) augment(ctx context.Context, fp string, shortlist []domain.ShortlistItem, uc gateway.UserContext) gateway.Result {
	if s.Gateway == nil || !s.Gateway.Enabled() {
		return gateway.Skipped()
	}
	call := func(ctx context.Context) gateway.Result {
		res := s.Gateway.Augment(ctx, shortlist, uc)
		observability.ObserveGateway(res.Outcome(), res.Latency)
		return res
	}
	if s.Cache == nil {
		return call(ctx)
	}

	raw, lookup, err := s.Cache.Do(ctx, fp, func(ctx context.Context) ([]byte, error) {
		res := call(ctx)
		if res.Status != domain.AIStatusSuccess {
			return nil, res.Err
		}
		return json.Marshal(res.Content)
	})
	observability.ObserveDedup(string(lookup))
	if err != nil {
		return gateway.Failed(err)
	}
	var c gateway.Content
	if err := json.Unmarshal(raw, &c); err != nil {
		return gateway.Failed(fmt.Errorf("%w: cached content: %v", gateway.ErrSchemaMismatch, err))
	}
	if err := gateway.Validate(c, shortlist); err != nil {
		return gateway.Failed(err)
	}
	return gateway.Succeeded(c)
}

// appendToChain links plan to the program's chain head and inserts it.
func (s *PlanService) appendToChain(ctx context.Context, plan *domain.RehabPlan) error {
	unlock := s.locks.Lock(plan.ProgramID)
	defer unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan.GeneratedAt = s.now()
		parent, err := repo.LatestChainPlan(ctx, tx, plan.ProgramID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			plan.ParentPlanID = nil
		case err != nil:
			return err
		default:
			pid := parent.ID
			plan.ParentPlanID = &pid
			if !plan.GeneratedAt.After(parent.GeneratedAt) {
				plan.GeneratedAt = parent.GeneratedAt.Add(time.Microsecond)
			}
		}
		return repo.CreatePlan(ctx, tx, plan)
	})
	if err != nil {
		return s.persistErr(err)
	}
	observability.ObservePlan(plan.PlanType, plan.AIStatus)
	return nil
}

func (s *PlanService) persistErr(err error) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrPersistenceConflict, err)
	}
	return err
}

// trendFor classifies the log against the 28 days of history before it.
func (s *PlanService) trendFor(ctx context.Context, l *domain.RehabLog) (*string, error) {
	cur := parseLogDate(l.LogDate)
	from := cur.AddDate(0, 0, -(2*rules.TrendWindowDays - 1)).Format(domain.LogDateLayout)
	logs, err := repo.ListLogsBetween(ctx, s.DB, l.ProgramID, from, l.LogDate)
	if err != nil {
		return nil, err
	}
	hist := make([]rules.Sample, 0, len(logs))
	for _, h := range logs {
		if h.ID == l.ID {
			continue
		}
		hist = append(hist, rules.Sample{Date: parseLogDate(h.LogDate), Pain: h.Pain, Stiffness: h.Stiffness, Swelling: h.Swelling})
	}
	t, err := rules.ClassifyTrend(rules.Sample{Date: cur, Pain: l.Pain, Stiffness: l.Stiffness, Swelling: l.Swelling}, hist)
	if errors.Is(err, rules.ErrInsufficientData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PlanService) program(ctx context.Context, userID, programID string) (*domain.RehabProgram, error) {
	p, err := repo.GetProgram(ctx, s.DB, programID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProgramNotFound
	}
	return p, err
}

func (s *PlanService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
