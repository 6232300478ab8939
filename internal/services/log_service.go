// Package services – LogService
//
// LogService records daily symptom logs. Recording a log is the main
// trigger of the engine: the log insert and the streak update commit
// together, then a plan is generated for the log and the weekly summary is
// refreshed if it has gone stale.
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
	"github.com/tbourn/rehab-plan-backend/internal/utils"
)

// LogInput is a symptom log as submitted by a user. An empty LogDate means
// today in the user's time zone.
type LogInput struct {
	LogDate       string   `json:"log_date"       example:"2025-03-14"`
	Pain          int      `json:"pain"           example:"4"`
	Stiffness     int      `json:"stiffness"      example:"3"`
	Swelling      int      `json:"swelling"       example:"1"`
	ActivityLevel string   `json:"activity_level" example:"moderate"`
	Aggravators   []string `json:"aggravators"`
	Notes         string   `json:"notes"`
}

// RecordResult is everything a log submission produces.
type RecordResult struct {
	Log     *domain.RehabLog     `json:"log"`
	Program *domain.RehabProgram `json:"program"`
	Plan    *domain.RehabPlan    `json:"plan,omitempty"`
	Summary datatypes.JSON       `json:"summary,omitempty" swaggertype:"object"`
}

// LogService records and lists symptom logs.
type LogService struct {
	DB        *gorm.DB
	Plans     *PlanService
	Adherence *AdherenceService
	Now       func() time.Time

	locks keyedMutex
}

// Record validates in, stores the log and advances the streak atomically,
// then generates the log's plan and refreshes the summary.
//
// When plan generation hits a persistence conflict the committed log is
// still returned together with the error, so the caller can retry
// generation for that log.
func (s *LogService) Record(ctx context.Context, userID, programID string, loc *time.Location, in LogInput) (*RecordResult, error) {
	tr := otel.Tracer("services/LogService")
	ctx, span := tr.Start(ctx, "Record",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("program.id", programID)))
	defer span.End()

	l, err := s.buildLog(userID, programID, loc, in)
	if err != nil {
		return nil, err
	}

	var prog *domain.RehabProgram
	unlock := s.locks.Lock(programID)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.GetProgram(ctx, tx, programID, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProgramNotFound
			}
			return err
		}
		if p.Status != domain.ProgramActive {
			return ErrProgramInactive
		}
		if err := repo.CreateLog(ctx, tx, l); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateLog
			}
			return err
		}
		if err := s.Adherence.Advance(ctx, tx, p, l.LogDate); err != nil {
			return err
		}
		prog = p
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("log.id", l.ID))

	res := &RecordResult{Log: l, Program: prog}
	plan, err := s.Plans.GenerateForLog(ctx, userID, l.ID)
	if err != nil {
		if errors.Is(err, ErrPersistenceConflict) {
			log.Ctx(ctx).Warn().Err(err).Str("program_id", programID).Str("log_id", l.ID).Msg("plan conflict")
		}
		return res, err
	}
	res.Plan = plan

	if raw, _, err := s.Adherence.RefreshSummary(ctx, userID, programID, loc); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("program_id", programID).Msg("summary refresh failed")
	} else {
		res.Summary = raw
	}
	return res, nil
}

// Get returns one of the user's logs.
func (s *LogService) Get(ctx context.Context, userID, logID string) (*domain.RehabLog, error) {
	l, err := repo.GetLog(ctx, s.DB, logID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLogNotFound
	}
	return l, err
}

// ListPage returns a page of a program's logs, newest date first.
func (s *LogService) ListPage(ctx context.Context, userID, programID string, page, pageSize int) ([]domain.RehabLog, int64, error) {
	tr := otel.Tracer("services/LogService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("program.id", programID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	_, pageSize, offset := utils.PageOffset(page, pageSize, 20)

	if _, err := repo.GetProgram(ctx, s.DB, programID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrProgramNotFound
		}
		return nil, 0, err
	}
	total, err := repo.CountLogs(ctx, s.DB, programID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.RehabLog{}, 0, nil
	}
	items, err := repo.ListLogsPage(ctx, s.DB, programID, offset, pageSize)
	return items, total, err
}

// UpdateNotes replaces the notes of a log, the only field editable after
// creation.
func (s *LogService) UpdateNotes(ctx context.Context, userID, logID, notes string) (*domain.RehabLog, error) {
	notes, err := checkText("notes", notes, maxNotesRunes)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateLogNotes(ctx, s.DB, logID, userID, notes); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, logID)
}

func (s *LogService) buildLog(userID, programID string, loc *time.Location, in LogInput) (*domain.RehabLog, error) {
	date, err := resolveLogDate(in.LogDate, s.now(), loc)
	if err != nil {
		return nil, err
	}
	if err := checkScores(in.Pain, in.Stiffness, in.Swelling); err != nil {
		return nil, err
	}
	activity, err := normActivity(in.ActivityLevel)
	if err != nil {
		return nil, err
	}
	aggr, err := normList("aggravators", in.Aggravators, true)
	if err != nil {
		return nil, err
	}
	notes, err := checkText("notes", in.Notes, maxNotesRunes)
	if err != nil {
		return nil, err
	}
	return &domain.RehabLog{
		UserID:        userID,
		ProgramID:     programID,
		LogDate:       date,
		Pain:          in.Pain,
		Stiffness:     in.Stiffness,
		Swelling:      in.Swelling,
		ActivityLevel: activity,
		Aggravators:   datatypes.JSONSlice[string](aggr),
		Notes:         notes,
	}, nil
}

func (s *LogService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
