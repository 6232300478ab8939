// Package gateway calls an external text-generation service to turn a
// deterministic exercise shortlist into a richer plan with coaching notes.
//
// The call is optional and untrusted: it is bounded by a hard timeout,
// never retried here, and its output is validated against the shortlist
// before it is accepted. Every outcome is reported as a Result value; the
// gateway never panics or blocks plan creation.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// Error sentinels. Failures wrap one of these so callers can branch with
// errors.Is.
var (
	ErrDisabled       = errors.New("gateway: augmentation disabled")
	ErrTimeout        = errors.New("gateway: timeout")
	ErrFailure        = errors.New("gateway: failure")
	ErrSchemaMismatch = errors.New("gateway: output does not match schema")
)

// UserContext is the part of the user's state that goes into the prompt.
type UserContext struct {
	Area          string   `json:"area"`
	Side          string   `json:"side"`
	Goal          string   `json:"goal,omitempty"`
	Pain          int      `json:"pain"`
	Stiffness     int      `json:"stiffness"`
	Swelling      int      `json:"swelling"`
	ActivityLevel string   `json:"activity_level"`
	Aggravators   []string `json:"aggravators"`
	Trend         string   `json:"trend,omitempty"`
	Initial       bool     `json:"initial"`
}

// Session is one exercise of an augmented plan.
type Session struct {
	ExerciseID  string `json:"exercise_id"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	HoldSeconds int    `json:"hold_seconds"`
	Notes       string `json:"notes"`
}

// Coaching is user-facing feedback attached to a plan.
type Coaching struct {
	Message  string   `json:"message"`
	Cautions []string `json:"cautions"`
}

// Content is validated augmentation output.
type Content struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Sessions []Session `json:"sessions"`
	Coaching Coaching  `json:"coaching"`
}

// PlanPart is the exercise portion of Content, stored as the plan's AI output.
type PlanPart struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Sessions []Session `json:"sessions"`
}

// Plan returns the exercise portion of c.
func (c Content) Plan() PlanPart {
	return PlanPart{Title: c.Title, Summary: c.Summary, Sessions: c.Sessions}
}

// Result is the outcome of one augmentation attempt. Exactly one of the
// following holds: Status is success and Content is set, Status is failed
// and Err is set, or Status is skipped.
type Result struct {
	Status  string
	Content *Content
	Err     error
	Latency time.Duration
}

// Succeeded returns a success Result.
func Succeeded(c Content) Result {
	return Result{Status: domain.AIStatusSuccess, Content: &c}
}

// Failed returns a failed Result carrying err.
func Failed(err error) Result {
	if err == nil {
		err = ErrFailure
	}
	return Result{Status: domain.AIStatusFailed, Err: err}
}

// Skipped returns a skipped Result.
func Skipped() Result {
	return Result{Status: domain.AIStatusSkipped, Err: ErrDisabled}
}

// Outcome is a short label for metrics and logs.
func (r Result) Outcome() string {
	switch {
	case r.Status == domain.AIStatusSuccess:
		return "success"
	case r.Status == domain.AIStatusSkipped:
		return "skipped"
	case errors.Is(r.Err, ErrTimeout):
		return "timeout"
	case errors.Is(r.Err, ErrSchemaMismatch):
		return "schema_mismatch"
	default:
		return "failure"
	}
}

// Augmenter is what the plan assembler needs from a gateway.
type Augmenter interface {
	// Enabled reports whether Augment may reach the network.
	Enabled() bool
	// Model names the model used, for fingerprints and audit.
	Model() string
	// Augment enriches shortlist. It returns within the configured timeout.
	Augment(ctx context.Context, shortlist []domain.ShortlistItem, uc UserContext) Result
}
