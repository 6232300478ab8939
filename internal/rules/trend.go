package rules

import (
	"errors"
	"math"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// Trend windows and threshold.
const (
	// TrendWindowDays is the length of both the current and the prior window.
	TrendWindowDays = 14
	// TrendThreshold is the relative change of the mean pain+stiffness score
	// at which a trend stops being stable.
	TrendThreshold = 0.15
)

const trendEpsilon = 1e-9

// ErrInsufficientData is returned when either window has no samples.
var ErrInsufficientData = errors.New("rules: insufficient data for trend")

// Sample is one dated symptom reading. Date is a calendar date; its clock
// part is ignored.
type Sample struct {
	Date      time.Time
	Pain      int
	Stiffness int
	Swelling  int
}

// ClassifyTrend compares the mean pain+stiffness of the window ending at
// current (inclusive, TrendWindowDays long) with the window right before it.
// history must not contain current itself; samples dated after current are
// ignored.
func ClassifyTrend(current Sample, history []Sample) (string, error) {
	end := civil(current.Date)
	curStart := end.AddDate(0, 0, -(TrendWindowDays - 1))
	priorStart := curStart.AddDate(0, 0, -TrendWindowDays)

	curSum, curN := float64(current.Pain+current.Stiffness), 1
	var priorSum float64
	var priorN int
	for _, s := range history {
		d := civil(s.Date)
		switch {
		case d.After(end) || d.Before(priorStart):
			continue
		case !d.Before(curStart):
			curSum += float64(s.Pain + s.Stiffness)
			curN++
		default:
			priorSum += float64(s.Pain + s.Stiffness)
			priorN++
		}
	}
	if priorN == 0 {
		return "", ErrInsufficientData
	}
	cur := curSum / float64(curN)
	prior := priorSum / float64(priorN)
	return trendFromMeans(cur, prior), nil
}

func trendFromMeans(cur, prior float64) string {
	if prior == 0 {
		if cur == 0 {
			return domain.TrendStable
		}
		return domain.TrendWorsening
	}
	delta := (cur - prior) / prior
	switch {
	case delta <= -TrendThreshold+trendEpsilon:
		return domain.TrendImproving
	case delta >= TrendThreshold-trendEpsilon:
		return domain.TrendWorsening
	default:
		return domain.TrendStable
	}
}

// civil truncates t to its calendar date in t's own location, returned as
// UTC midnight so day arithmetic is DST-free.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(civil(b).Sub(civil(a)).Hours() / 24))
}
