// Package rules holds the deterministic decision logic of the rehab engine:
// mode suggestion, shortlist selection, trend classification and adherence
// streaks. Everything here is pure: no I/O, no clocks, no logging.
package rules

import (
	"fmt"
	"strings"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// PainTrigger is the resting pain score at or above which rehab is advised.
const PainTrigger = 4

// ProfileInput is the onboarding baseline the mode rules look at.
type ProfileInput struct {
	Area         string
	Side         string
	Onset        string
	PainRest     int
	PainActivity int
	RedFlags     []string
	Goal         string
}

// Suggestion is the outcome of SuggestMode.
type Suggestion struct {
	ModeSuggestion string `json:"mode_suggestion"`
	RiskLevel      string `json:"risk_level"`
	Reasoning      string `json:"reasoning"`
}

// SuggestMode applies the mode rules in fixed priority order; the first
// rule that matches decides.
//
//  1. any red flag               -> rehab / high
//  2. pain at rest >= 4 or onset recent/ongoing -> rehab / medium
//  3. pain at rest <= 3 and chronic onset        -> maintenance / low
//  4. otherwise                  -> maintenance / low
func SuggestMode(p ProfileInput) Suggestion {
	if flags := cleanFlags(p.RedFlags); len(flags) > 0 {
		return Suggestion{
			ModeSuggestion: domain.ModeRehab,
			RiskLevel:      domain.RiskHigh,
			Reasoning: fmt.Sprintf(
				"Red flags reported (%s). Get a clinical assessment; rehab mode with close monitoring.",
				strings.Join(flags, ", ")),
		}
	}

	onset := strings.ToLower(strings.TrimSpace(p.Onset))

	var factors []string
	if p.PainRest >= PainTrigger {
		factors = append(factors, fmt.Sprintf("pain at rest is %d/10", p.PainRest))
	}
	if onset == domain.OnsetRecent || onset == domain.OnsetOngoing {
		factors = append(factors, fmt.Sprintf("onset is %s", onset))
	}
	if len(factors) > 0 {
		return Suggestion{
			ModeSuggestion: domain.ModeRehab,
			RiskLevel:      domain.RiskMedium,
			Reasoning:      "Rehab suggested: " + strings.Join(factors, "; ") + ".",
		}
	}

	if onset == domain.OnsetChronic {
		return Suggestion{
			ModeSuggestion: domain.ModeMaintenance,
			RiskLevel:      domain.RiskLow,
			Reasoning: fmt.Sprintf(
				"Chronic onset with low pain at rest (%d/10): maintenance mode keeps you moving.", p.PainRest),
		}
	}

	return Suggestion{
		ModeSuggestion: domain.ModeMaintenance,
		RiskLevel:      domain.RiskLow,
		Reasoning:      "No rehab triggers detected; maintenance mode suggested.",
	}
}

func cleanFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
