// Package handlers holds the Gin handlers of the rehab API.
//
// Every failure is written as an ErrorResponse whose code is one of the
// constants in errors.go. Engine errors go through serviceError so the
// status/code mapping lives in one place; 5xx responses are also logged with
// the request-scoped logger.
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "duplicate_log",
//	  "message": "a log already exists for this date"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
	"github.com/tbourn/rehab-plan-backend/internal/services"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code
	Code string `json:"code" example:"not_found"`
	// Safe to show to users
	Message string `json:"message" example:"program not found"`
}

// fail aborts with an ErrorResponse. Server errors are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("path", c.FullPath()).
			Msg(msg)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail exposes fail to the router for its NoRoute/NoMethod handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// serviceError maps an engine error to the envelope. Validation errors carry
// the offending field in the message; conflicts are retryable and say so
// with Retry-After.
func serviceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrProgramNotFound),
		errors.Is(err, services.ErrLogNotFound),
		errors.Is(err, services.ErrOnboardingNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrPlanNotFound):
		fail(c, http.StatusNotFound, ErrCodeNoPlan, err.Error())
	case errors.Is(err, services.ErrPersistenceConflict):
		c.Header("Retry-After", "1")
		fail(c, http.StatusConflict, ErrCodeConflict, "plan generation conflicted with a concurrent write, retry")
	case errors.Is(err, services.ErrDuplicateLog):
		fail(c, http.StatusConflict, ErrCodeDuplicateLog, err.Error())
	case errors.Is(err, services.ErrProgramInactive):
		fail(c, http.StatusConflict, ErrCodeProgramInactive, err.Error())
	case errors.Is(err, services.ErrChainCorrupt):
		fail(c, http.StatusInternalServerError, ErrCodeChainCorrupt, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "request cancelled")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
