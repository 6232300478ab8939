package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// Input limits.
const (
	maxAreaLen         = 32
	maxGoalRunes       = 255
	maxNotesRunes      = 2000
	maxListItems       = 20
	maxListItemRunes   = 64
	defaultSide        = "none"
	maxBackfillDays    = 60
	scoreMin, scoreMax = 0, 10
)

var validSides = map[string]struct{}{"left": {}, "right": {}, "both": {}, "none": {}}

var validOnsets = map[string]struct{}{
	domain.OnsetRecent: {}, domain.OnsetOngoing: {}, domain.OnsetChronic: {}, domain.OnsetUnknown: {},
}

var validActivity = map[string]struct{}{
	domain.ActivityLow: {}, domain.ActivityModerate: {}, domain.ActivityHigh: {},
}

var validStatus = map[string]struct{}{
	domain.ProgramActive: {}, domain.ProgramCompleted: {}, domain.ProgramPaused: {},
}

func normArea(s string) (string, error) {
	a := catalog.NormalizeTag(s)
	if a == "" {
		return "", invalid("area", "is required")
	}
	if len(a) > maxAreaLen {
		return "", invalid("area", "must be at most %d characters", maxAreaLen)
	}
	return a, nil
}

func normSide(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return defaultSide, nil
	}
	if _, ok := validSides[s]; !ok {
		return "", invalid("side", "must be one of left, right, both, none")
	}
	return s, nil
}

func normOnset(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return domain.OnsetUnknown, nil
	}
	if _, ok := validOnsets[s]; !ok {
		return "", invalid("onset", "must be one of recent, ongoing, chronic, unknown")
	}
	return s, nil
}

func normActivity(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return domain.ActivityModerate, nil
	}
	if _, ok := validActivity[s]; !ok {
		return "", invalid("activity_level", "must be one of low, moderate, high")
	}
	return s, nil
}

func checkScore(field string, v int) error {
	if v < scoreMin || v > scoreMax {
		return invalid(field, "must be between 0 and 10")
	}
	return nil
}

func checkScores(pain, stiffness, swelling int) error {
	if err := checkScore("pain", pain); err != nil {
		return err
	}
	if err := checkScore("stiffness", stiffness); err != nil {
		return err
	}
	return checkScore("swelling", swelling)
}

// normList trims, drops blanks and de-duplicates free-text list items.
func normList(field string, items []string, tags bool) ([]string, error) {
	if len(items) > maxListItems {
		return nil, invalid(field, "at most %d items", maxListItems)
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if tags {
			it = catalog.NormalizeTag(it)
		}
		if it == "" {
			continue
		}
		if utf8.RuneCountInString(it) > maxListItemRunes {
			return nil, invalid(field, "items must be at most %d characters", maxListItemRunes)
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

func checkText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", invalid(field, "must be at most %d characters", max)
	}
	return s, nil
}

// resolveLogDate parses raw (YYYY-MM-DD) or, when empty, returns today in
// loc. Dates in the future of loc, or older than the backfill window, are
// rejected.
func resolveLogDate(raw string, now time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc).Format(domain.LogDateLayout)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return today, nil
	}
	d, err := time.Parse(domain.LogDateLayout, raw)
	if err != nil {
		return "", invalid("log_date", "must be a date in YYYY-MM-DD format")
	}
	if raw > today {
		return "", invalid("log_date", "must not be in the future")
	}
	t, _ := time.Parse(domain.LogDateLayout, today)
	if t.Sub(d) > maxBackfillDays*24*time.Hour {
		return "", invalid("log_date", "must be within the last %d days", maxBackfillDays)
	}
	return raw, nil
}

func parseLogDate(s string) time.Time {
	t, _ := time.Parse(domain.LogDateLayout, s)
	return t
}
