// Package services – ProgramService
//
// ProgramService manages the lifecycle of rehab programs: listing, status
// changes and mode switches. Switching to maintenance mode pauses every
// active program of the user.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// ProgramRepo defines the repository contract required by ProgramService.
type ProgramRepo interface {
	// ListPrograms returns the user's programs; an empty status matches all.
	ListPrograms(ctx context.Context, db *gorm.DB, userID, status string) ([]domain.RehabProgram, error)

	// GetProgram fetches a program ensuring it belongs to the user.
	GetProgram(ctx context.Context, db *gorm.DB, id, userID string) (*domain.RehabProgram, error)

	// UpdateProgramStatus sets the status of a program owned by the user.
	UpdateProgramStatus(ctx context.Context, db *gorm.DB, id, userID, status string) error

	// PauseActivePrograms pauses all active programs of the user.
	PauseActivePrograms(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}

// ProgramService provides program-level operations.
type ProgramService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the program repository used by this service.
	Repo ProgramRepo
}

// NewProgramService constructs a ProgramService.
func NewProgramService(db *gorm.DB, r ProgramRepo) *ProgramService {
	return &ProgramService{DB: db, Repo: r}
}

// ModeResult reports the effect of a mode switch.
type ModeResult struct {
	Mode           string `json:"mode"`
	PausedPrograms int64  `json:"paused_programs"`
}

// List returns the user's programs, optionally filtered by status.
func (s *ProgramService) List(ctx context.Context, userID, status string) ([]domain.RehabProgram, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" {
		if _, ok := validStatus[status]; !ok {
			return nil, ErrInvalidStatus
		}
	}
	items, err := s.Repo.ListPrograms(ctx, s.DB, userID, status)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.RehabProgram{}
	}
	return items, nil
}

// Get returns a program owned by userID.
func (s *ProgramService) Get(ctx context.Context, userID, id string) (*domain.RehabProgram, error) {
	p, err := s.Repo.GetProgram(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	return p, err
}

// UpdateStatus moves a program to status and returns the updated program.
func (s *ProgramService) UpdateStatus(ctx context.Context, userID, id, status string) (*domain.RehabProgram, error) {
	tr := otel.Tracer("services/ProgramService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(attribute.String("program.id", id), attribute.String("status", status)))
	defer span.End()

	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := validStatus[status]; !ok {
		return nil, ErrInvalidStatus
	}
	if err := s.Repo.UpdateProgramStatus(ctx, s.DB, id, userID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// SwitchMode records the user's choice of mode. Leaving rehab mode pauses
// the user's active programs; entering it changes nothing until the next
// onboarding or explicit status change.
func (s *ProgramService) SwitchMode(ctx context.Context, userID, mode string) (*ModeResult, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case domain.ModeRehab:
		return &ModeResult{Mode: mode}, nil
	case domain.ModeMaintenance:
		n, err := s.Repo.PauseActivePrograms(ctx, s.DB, userID)
		if err != nil {
			return nil, err
		}
		return &ModeResult{Mode: mode, PausedPrograms: n}, nil
	default:
		return nil, invalid("mode", "must be rehab or maintenance")
	}
}
