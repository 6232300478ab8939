package rules

import (
	"math"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// Streak is the adherence state kept on a program.
type Streak struct {
	Current      int
	Longest      int
	LastLoggedAt *time.Time
}

// NextStreak folds a newly accepted log date into s. A log at most
// cadenceDays after the last one extends the streak, a later one restarts
// it at 1, and a log dated on or before the last one (a backfill) leaves
// the streak and LastLoggedAt untouched. Longest never decreases.
func NextStreak(s Streak, logDate time.Time, cadenceDays int) Streak {
	if cadenceDays < 1 {
		cadenceDays = 1
	}
	d := civil(logDate)
	next := s
	switch {
	case s.LastLoggedAt == nil:
		next.Current = 1
	default:
		gap := DaysBetween(*s.LastLoggedAt, d)
		switch {
		case gap <= 0:
			return s
		case gap <= cadenceDays:
			next.Current = s.Current + 1
		default:
			next.Current = 1
		}
	}
	next.LastLoggedAt = &d
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	return next
}

// Summary is the weekly adherence digest cached on a program.
type Summary struct {
	PeriodStart   string   `json:"period_start"`
	PeriodEnd     string   `json:"period_end"`
	DaysInPeriod  int      `json:"days_in_period"`
	DaysLogged    int      `json:"days_logged"`
	AdherenceRate float64  `json:"adherence_rate"`
	AvgPain       *float64 `json:"avg_pain"`
	AvgStiffness  *float64 `json:"avg_stiffness"`
	AvgSwelling   *float64 `json:"avg_swelling"`
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
	LatestTrend   *string  `json:"latest_trend"`
	GeneratedAt   string   `json:"generated_at"`
}

// Summarize builds the digest for the days-long period ending on today
// (inclusive). Samples outside the period are ignored; several samples on
// one day count as one logged day.
func Summarize(samples []Sample, streak Streak, latestTrend *string, today time.Time, days int) Summary {
	if days < 1 {
		days = 7
	}
	end := civil(today)
	start := end.AddDate(0, 0, -(days - 1))

	logged := make(map[time.Time]struct{})
	var pain, stiff, swell float64
	n := 0
	for _, s := range samples {
		d := civil(s.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		logged[d] = struct{}{}
		pain += float64(s.Pain)
		stiff += float64(s.Stiffness)
		swell += float64(s.Swelling)
		n++
	}

	sum := Summary{
		PeriodStart:   start.Format(domain.LogDateLayout),
		PeriodEnd:     end.Format(domain.LogDateLayout),
		DaysInPeriod:  days,
		DaysLogged:    len(logged),
		AdherenceRate: round2(float64(len(logged)) / float64(days)),
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		LatestTrend:   latestTrend,
		GeneratedAt:   today.UTC().Format(time.RFC3339),
	}
	if n > 0 {
		sum.AvgPain = ptr(round2(pain / float64(n)))
		sum.AvgStiffness = ptr(round2(stiff / float64(n)))
		sum.AvgSwelling = ptr(round2(swell / float64(n)))
	}
	return sum
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func ptr[T any](v T) *T { return &v }
