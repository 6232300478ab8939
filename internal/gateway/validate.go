package gateway

import (
	"fmt"
	"strings"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// Bounds accepted for augmented sessions.
const (
	MinSets = 1
	MaxSets = 10
	MinReps = 0
	MaxReps = 50
	MaxHold = 300
)

// Validate checks c against the shortlist it was generated from. Sessions
// may only reference shortlisted exercises, each at most once.
func Validate(c Content, shortlist []domain.ShortlistItem) error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrSchemaMismatch)
	}
	if len(c.Sessions) == 0 {
		return fmt.Errorf("%w: no sessions", ErrSchemaMismatch)
	}
	if strings.TrimSpace(c.Coaching.Message) == "" {
		return fmt.Errorf("%w: empty coaching message", ErrSchemaMismatch)
	}
	allowed := make(map[string]struct{}, len(shortlist))
	for _, it := range shortlist {
		allowed[it.ExerciseID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(c.Sessions))
	for i, s := range c.Sessions {
		if _, ok := allowed[s.ExerciseID]; !ok {
			return fmt.Errorf("%w: session %d references unknown exercise %q", ErrSchemaMismatch, i, s.ExerciseID)
		}
		if _, dup := seen[s.ExerciseID]; dup {
			return fmt.Errorf("%w: exercise %q repeated", ErrSchemaMismatch, s.ExerciseID)
		}
		seen[s.ExerciseID] = struct{}{}
		if s.Sets < MinSets || s.Sets > MaxSets {
			return fmt.Errorf("%w: session %d sets %d out of range", ErrSchemaMismatch, i, s.Sets)
		}
		if s.Reps < MinReps || s.Reps > MaxReps {
			return fmt.Errorf("%w: session %d reps %d out of range", ErrSchemaMismatch, i, s.Reps)
		}
		if s.HoldSeconds < 0 || s.HoldSeconds > MaxHold {
			return fmt.Errorf("%w: session %d hold %ds out of range", ErrSchemaMismatch, i, s.HoldSeconds)
		}
	}
	return nil
}

// contentSchema is the strict JSON schema sent with every request.
func contentSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "summary", "sessions", "coaching"},
		"properties": map[string]any{
			"title":   str,
			"summary": str,
			"sessions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"exercise_id", "name", "sets", "reps", "hold_seconds", "notes"},
					"properties": map[string]any{
						"exercise_id":  str,
						"name":         str,
						"sets":         map[string]any{"type": "integer"},
						"reps":         map[string]any{"type": "integer"},
						"hold_seconds": map[string]any{"type": "integer"},
						"notes":        str,
					},
				},
			},
			"coaching": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"message", "cautions"},
				"properties": map[string]any{
					"message":  str,
					"cautions": map[string]any{"type": "array", "items": str},
				},
			},
		},
	}
}
