// Package services – AdherenceService
//
// AdherenceService keeps the streak counters of a program current on every
// accepted log and serves the weekly summary. Summary regeneration is
// throttled: a cached summary younger than Period is returned byte for byte.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/observability"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/rules"
)

// Summary defaults.
const (
	DefaultSummaryPeriod = 7 * 24 * time.Hour
	summaryDays          = 7
)

// AdherenceService maintains streaks and the weekly summary of programs.
type AdherenceService struct {
	DB *gorm.DB
	// Period is the minimum age of a cached summary before it is rebuilt.
	Period time.Duration
	// CadenceDays is the largest gap (in days) that still extends a streak.
	CadenceDays int
	Now         func() time.Time

	locks keyedMutex
}

// NewAdherenceService returns a service with a weekly period and daily cadence.
func NewAdherenceService(db *gorm.DB) *AdherenceService {
	return &AdherenceService{DB: db, Period: DefaultSummaryPeriod, CadenceDays: 1, Now: time.Now}
}

// Adherence is the payload of getProgramAdherence.
type Adherence struct {
	ProgramID     string          `json:"program_id"`
	CurrentStreak int             `json:"current_streak"`
	LongestStreak int             `json:"longest_streak"`
	LastLoggedAt  *string         `json:"last_logged_at,omitempty"`
	Summary       json.RawMessage `json:"summary"`
}

// Advance folds logDate into the program's streak. It must run in the same
// transaction as the log insert; prog is updated in place.
func (s *AdherenceService) Advance(ctx context.Context, tx *gorm.DB, prog *domain.RehabProgram, logDate string) error {
	st := rules.Streak{Current: prog.CurrentStreak, Longest: prog.LongestStreak}
	if prog.LastLoggedAt != nil {
		last := parseLogDate(*prog.LastLoggedAt)
		st.LastLoggedAt = &last
	}
	next := rules.NextStreak(st, parseLogDate(logDate), s.CadenceDays)
	if next == st {
		return nil
	}
	var last *string
	if next.LastLoggedAt != nil {
		d := next.LastLoggedAt.Format(domain.LogDateLayout)
		last = &d
	}
	if err := repo.UpdateStreak(ctx, tx, prog.ID, next.Current, next.Longest, last); err != nil {
		return err
	}
	prog.CurrentStreak, prog.LongestStreak, prog.LastLoggedAt = next.Current, next.Longest, last
	return nil
}

// Get returns the streak counters and the (possibly refreshed) summary.
func (s *AdherenceService) Get(ctx context.Context, userID, programID string, loc *time.Location) (*Adherence, error) {
	tr := otel.Tracer("services/AdherenceService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("program.id", programID)))
	defer span.End()

	raw, _, err := s.RefreshSummary(ctx, userID, programID, loc)
	if err != nil {
		return nil, err
	}
	prog, err := s.program(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	return &Adherence{
		ProgramID:     prog.ID,
		CurrentStreak: prog.CurrentStreak,
		LongestStreak: prog.LongestStreak,
		LastLoggedAt:  prog.LastLoggedAt,
		Summary:       raw,
	}, nil
}

// RefreshSummary returns the program's weekly summary, rebuilding it only
// when none is cached or the cached one is at least Period old. regenerated
// reports whether a rebuild happened.
func (s *AdherenceService) RefreshSummary(ctx context.Context, userID, programID string, loc *time.Location) (raw []byte, regenerated bool, err error) {
	prog, err := s.program(ctx, userID, programID)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	if fresh(prog, now, s.period()) {
		return prog.LastSummaryJSON, false, nil
	}

	unlock := s.locks.Lock(prog.ID)
	defer unlock()

	// Another caller may have rebuilt it while we waited.
	if prog, err = s.program(ctx, userID, programID); err != nil {
		return nil, false, err
	}
	if fresh(prog, now, s.period()) {
		return prog.LastSummaryJSON, false, nil
	}

	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	from := today.AddDate(0, 0, -(summaryDays - 1)).Format(domain.LogDateLayout)
	logs, err := repo.ListLogsBetween(ctx, s.DB, prog.ID, from, today.Format(domain.LogDateLayout))
	if err != nil {
		return nil, false, err
	}
	samples := make([]rules.Sample, len(logs))
	for i, l := range logs {
		samples[i] = rules.Sample{Date: parseLogDate(l.LogDate), Pain: l.Pain, Stiffness: l.Stiffness, Swelling: l.Swelling}
	}

	var trend *string
	if p, err := repo.LatestPlan(ctx, s.DB, prog.ID); err == nil {
		trend = p.Trend
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	st := rules.Streak{Current: prog.CurrentStreak, Longest: prog.LongestStreak}
	sum := rules.Summarize(samples, st, trend, today, summaryDays)
	raw, err = json.Marshal(sum)
	if err != nil {
		return nil, false, err
	}
	if err := repo.SaveSummary(ctx, s.DB, prog.ID, raw, now); err != nil {
		return nil, false, err
	}
	observability.ObserveSummaryRegeneration()
	return raw, true, nil
}

func fresh(p *domain.RehabProgram, now time.Time, period time.Duration) bool {
	if p.LastSummaryGeneratedAt == nil || len(p.LastSummaryJSON) == 0 {
		return false
	}
	return now.Sub(*p.LastSummaryGeneratedAt) < period
}

func (s *AdherenceService) program(ctx context.Context, userID, programID string) (*domain.RehabProgram, error) {
	p, err := repo.GetProgram(ctx, s.DB, programID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProgramNotFound
	}
	return p, err
}

func (s *AdherenceService) period() time.Duration {
	if s.Period <= 0 {
		return DefaultSummaryPeriod
	}
	return s.Period
}

func (s *AdherenceService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
