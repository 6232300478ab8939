// Package services – OnboardingService
//
// OnboardingService evaluates intake baselines and persists them. A rehab
// suggestion opens (or reactivates) the program for the area and side,
// records an intake log for today and produces the initial plan. A
// maintenance suggestion pauses the user's active programs.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/rules"
)

// OnboardingInput is an intake baseline as submitted by a user.
type OnboardingInput struct {
	Area         string   `json:"area"          example:"knee"`
	Side         string   `json:"side"          example:"left"`
	Onset        string   `json:"onset"         example:"recent"`
	PainRest     int      `json:"pain_rest"     example:"5"`
	PainActivity int      `json:"pain_activity" example:"7"`
	RedFlags     []string `json:"red_flags"`
	Goal         string   `json:"goal"          example:"Run 5k again"`
}

// OnboardingResult is what a submission produces. Program, IntakeLog and
// Plan are set only for rehab suggestions; PausedPrograms only for
// maintenance ones.
type OnboardingResult struct {
	Profile        *domain.OnboardingProfile `json:"profile"`
	Program        *domain.RehabProgram      `json:"program,omitempty"`
	IntakeLog      *domain.RehabLog          `json:"intake_log,omitempty"`
	Plan           *domain.RehabPlan         `json:"plan,omitempty"`
	PausedPrograms int64                     `json:"paused_programs"`
}

// OnboardingService handles intake.
type OnboardingService struct {
	DB        *gorm.DB
	Plans     *PlanService
	Adherence *AdherenceService
	Now       func() time.Time
}

// Evaluate validates in and returns the mode suggestion without persisting
// anything.
func (s *OnboardingService) Evaluate(in OnboardingInput) (rules.Suggestion, error) {
	p, err := normalizeProfile(in)
	if err != nil {
		return rules.Suggestion{}, err
	}
	return rules.SuggestMode(p), nil
}

// Submit persists the profile and applies its suggestion.
func (s *OnboardingService) Submit(ctx context.Context, userID string, loc *time.Location, in OnboardingInput) (*OnboardingResult, error) {
	tr := otel.Tracer("services/OnboardingService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	p, err := normalizeProfile(in)
	if err != nil {
		return nil, err
	}
	sug := rules.SuggestMode(p)
	span.SetAttributes(attribute.String("mode", sug.ModeSuggestion), attribute.String("risk", sug.RiskLevel))

	prof := &domain.OnboardingProfile{
		UserID:         userID,
		Area:           p.Area,
		Side:           p.Side,
		Onset:          p.Onset,
		PainRest:       p.PainRest,
		PainActivity:   p.PainActivity,
		RedFlags:       datatypes.JSONSlice[string](p.RedFlags),
		Goal:           p.Goal,
		ModeSuggestion: sug.ModeSuggestion,
		RiskLevel:      sug.RiskLevel,
		Reasoning:      sug.Reasoning,
	}
	res := &OnboardingResult{Profile: prof}

	if sug.ModeSuggestion != domain.ModeRehab {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.CreateProfile(ctx, tx, prof); err != nil {
				return err
			}
			n, err := repo.PauseActivePrograms(ctx, tx, userID)
			res.PausedPrograms = n
			return err
		})
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	today := s.now().In(orUTC(loc)).Format(domain.LogDateLayout)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prog, err := repo.FindProgram(ctx, tx, userID, p.Area, p.Side)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			if prog, err = repo.CreateProgram(ctx, tx, userID, p.Area, p.Side); err != nil {
				return err
			}
		case err != nil:
			return err
		case prog.Status != domain.ProgramActive:
			if err := repo.UpdateProgramStatus(ctx, tx, prog.ID, userID, domain.ProgramActive); err != nil {
				return err
			}
			prog.Status = domain.ProgramActive
		}
		prof.ProgramID = &prog.ID
		if err := repo.CreateProfile(ctx, tx, prof); err != nil {
			return err
		}

		intake := &domain.RehabLog{
			UserID:        userID,
			ProgramID:     prog.ID,
			LogDate:       today,
			Pain:          p.PainRest,
			ActivityLevel: domain.ActivityModerate,
			IsOnboarding:  true,
		}
		switch err := repo.CreateLog(ctx, tx, intake); {
		case errors.Is(err, repo.ErrDuplicate):
			// Already logged today; the existing log stands.
		case err != nil:
			return err
		default:
			res.IntakeLog = intake
			if err := s.Adherence.Advance(ctx, tx, prog, today); err != nil {
				return err
			}
		}
		res.Program = prog
		return nil
	})
	if err != nil {
		return nil, err
	}

	plan, err := s.Plans.GenerateForOnboarding(ctx, userID, prof.ID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("onboarding_id", prof.ID).Msg("initial plan failed")
		return res, err
	}
	res.Plan = plan
	return res, nil
}

func normalizeProfile(in OnboardingInput) (rules.ProfileInput, error) {
	var p rules.ProfileInput
	var err error
	if p.Area, err = normArea(in.Area); err != nil {
		return p, err
	}
	if p.Side, err = normSide(in.Side); err != nil {
		return p, err
	}
	if p.Onset, err = normOnset(in.Onset); err != nil {
		return p, err
	}
	if err = checkScore("pain_rest", in.PainRest); err != nil {
		return p, err
	}
	if err = checkScore("pain_activity", in.PainActivity); err != nil {
		return p, err
	}
	if p.RedFlags, err = normList("red_flags", in.RedFlags, false); err != nil {
		return p, err
	}
	if p.Goal, err = checkText("goal", in.Goal, maxGoalRunes); err != nil {
		return p, err
	}
	p.PainRest, p.PainActivity = in.PainRest, in.PainActivity
	return p, nil
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

func (s *OnboardingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
