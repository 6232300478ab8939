// Package handlers exposes the rehab engine over HTTP.
//
// Handlers are transport-thin: they bind and shape input, call services and
// translate results and errors into responses. Identity and time zone come
// from the auth middleware.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
	"github.com/tbourn/rehab-plan-backend/internal/rules"
	"github.com/tbourn/rehab-plan-backend/internal/services"
	"github.com/tbourn/rehab-plan-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// OnboardingService evaluates and persists intake baselines.
type OnboardingService interface {
	Evaluate(in services.OnboardingInput) (rules.Suggestion, error)
	Submit(ctx context.Context, userID string, loc *time.Location, in services.OnboardingInput) (*services.OnboardingResult, error)
}

// ProgramService manages program lifecycle and mode.
type ProgramService interface {
	List(ctx context.Context, userID, status string) ([]domain.RehabProgram, error)
	Get(ctx context.Context, userID, id string) (*domain.RehabProgram, error)
	UpdateStatus(ctx context.Context, userID, id, status string) (*domain.RehabProgram, error)
	SwitchMode(ctx context.Context, userID, mode string) (*services.ModeResult, error)
}

// LogService records and lists symptom logs.
type LogService interface {
	Record(ctx context.Context, userID, programID string, loc *time.Location, in services.LogInput) (*services.RecordResult, error)
	Get(ctx context.Context, userID, logID string) (*domain.RehabLog, error)
	ListPage(ctx context.Context, userID, programID string, page, pageSize int) ([]domain.RehabLog, int64, error)
	UpdateNotes(ctx context.Context, userID, logID, notes string) (*domain.RehabLog, error)
}

// PlanService generates plans and walks progression chains.
type PlanService interface {
	Generate(ctx context.Context, userID string, req services.GenerateRequest) (*domain.RehabPlan, error)
	GenerateForLog(ctx context.Context, userID, logID string) (*domain.RehabPlan, error)
	Latest(ctx context.Context, userID, programID string) (*domain.RehabPlan, error)
	Chain(ctx context.Context, userID, programID string, limit int) ([]domain.RehabPlan, error)
}

// AdherenceService serves streaks and weekly summaries.
type AdherenceService interface {
	Get(ctx context.Context, userID, programID string, loc *time.Location) (*services.Adherence, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	onboarding OnboardingService
	programs   ProgramService
	logs       LogService
	plans      PlanService
	adherence  AdherenceService

	// IdempotencyTTL bounds how long a stored Idempotency-Key replays.
	IdempotencyTTL time.Duration
}

// New constructs Handlers bound to the given services.
func New(onb OnboardingService, progs ProgramService, logs LogService, plans PlanService, adh AdherenceService) *Handlers {
	return &Handlers{
		onboarding:     onb,
		programs:       progs,
		logs:           logs,
		plans:          plans,
		adherence:      adh,
		IdempotencyTTL: 24 * time.Hour,
	}
}

func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses page and page_size with defaults and caps.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}
