package rules

import (
	"sort"
	"strings"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// MaxShortlist caps the number of exercises in a shortlist.
const MaxShortlist = 8

// LogInput is the symptom state the shortlist and fingerprint depend on.
type LogInput struct {
	Pain          int
	Stiffness     int
	Swelling      int
	ActivityLevel string
	Aggravators   []string
}

// Signals returns the catalog tags a log reports: its aggravators plus an
// "activity:<level>" tag.
func Signals(l LogInput) []string {
	out := make([]string, 0, len(l.Aggravators)+1)
	out = append(out, l.Aggravators...)
	if lvl := strings.TrimSpace(l.ActivityLevel); lvl != "" {
		out = append(out, "activity:"+lvl)
	}
	return catalog.NormalizeTags(out)
}

// DifficultyCeiling returns the hardest exercise difficulty allowed at a
// given pain score.
func DifficultyCeiling(pain int) int {
	switch {
	case pain >= 7:
		return 1
	case pain >= 4:
		return 2
	default:
		return 3
	}
}

// BuildShortlist selects candidate exercises for area from idx.
//
// Buckets come back from the index ordered by sort order with area buckets
// ahead of general ones. Within a bucket, exercises that share more tags
// with the log come first, then exercise sort order, then key. Inactive
// exercises, exercises above the pain ceiling and duplicates are dropped.
// The result never exceeds MaxShortlist and is never nil.
func BuildShortlist(l LogInput, area string, idx catalog.Index) []domain.ShortlistItem {
	out := make([]domain.ShortlistItem, 0, MaxShortlist)
	if idx == nil {
		return out
	}
	signals := Signals(l)
	sig := make(map[string]struct{}, len(signals))
	for _, s := range signals {
		sig[s] = struct{}{}
	}
	ceiling := DifficultyCeiling(l.Pain)
	seen := make(map[string]struct{})

	for _, m := range idx.Lookup(area, signals) {
		type ranked struct {
			ex    catalog.Exercise
			score int
		}
		var cands []ranked
		for _, e := range m.Bucket.Exercises {
			if !e.Active || e.Difficulty > ceiling {
				continue
			}
			score := 0
			for _, t := range e.Tags {
				if _, ok := sig[t]; ok {
					score++
				}
			}
			cands = append(cands, ranked{ex: e, score: score})
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].score != cands[j].score {
				return cands[i].score > cands[j].score
			}
			if cands[i].ex.SortOrder != cands[j].ex.SortOrder {
				return cands[i].ex.SortOrder < cands[j].ex.SortOrder
			}
			return cands[i].ex.Key < cands[j].ex.Key
		})
		for _, c := range cands {
			if _, dup := seen[c.ex.ID]; dup {
				continue
			}
			seen[c.ex.ID] = struct{}{}
			out = append(out, domain.ShortlistItem{
				ExerciseID:  c.ex.ID,
				Key:         c.ex.Key,
				Name:        c.ex.Name,
				BucketKey:   m.Bucket.Key,
				Difficulty:  c.ex.Difficulty,
				Sets:        c.ex.Sets,
				Reps:        c.ex.Reps,
				HoldSeconds: c.ex.HoldSeconds,
			})
			if len(out) == MaxShortlist {
				return out
			}
		}
	}
	return out
}
