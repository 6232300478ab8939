// Package catalog provides a deterministic, concurrency-safe, in-memory
// index of exercise buckets keyed by body area and symptom tags.
//
//   - No logging in the library (callers decide how/what to log)
//   - Immutable after construction (safe for concurrent use)
//   - Tags are case-folded and whitespace-normalised once, at build time
//   - Deterministic ordering: sort order, area-specific before general, key
//
// The index answers one question for the rule evaluator: which active
// buckets are candidates for an area given a set of log signals.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// GeneralArea is the pseudo-area whose buckets apply to every program.
const GeneralArea = "general"

// Exercise is an index-local, immutable copy of a catalog exercise.
type Exercise struct {
	ID          string
	Key         string
	Name        string
	Description string
	BucketKey   string
	Tags        []string
	Difficulty  int
	Sets        int
	Reps        int
	HoldSeconds int
	SortOrder   int
	Active      bool
}

// Bucket is an index-local, immutable copy of a catalog bucket.
type Bucket struct {
	ID        string
	Key       string
	Name      string
	Area      string
	Tags      []string
	SortOrder int
	Active    bool
	Exercises []Exercise
}

// Match is a bucket returned by Lookup with how well it matched.
type Match struct {
	Bucket      Bucket
	General     bool // bucket belongs to GeneralArea
	MatchedTags int  // number of bucket tags found in the signals
}

// Index is the read-only lookup consumed by the rule evaluator.
type Index interface {
	// Lookup returns the active buckets for area (plus general buckets) that
	// either carry no tags or share at least one tag with signals.
	Lookup(area string, signals []string) []Match
	// Exercise returns an exercise by id, active or not.
	Exercise(id string) (Exercise, bool)
	// Len reports the number of active buckets.
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	includeInactiveBuckets bool
	generalArea            string
}

func defaultConfig() config {
	return config{generalArea: GeneralArea}
}

// WithInactiveBuckets keeps inactive buckets in the index. Lookup still
// skips them; this only affects Exercise lookups by id.
func WithInactiveBuckets() Option {
	return func(c *config) { c.includeInactiveBuckets = true }
}

// WithGeneralArea overrides the pseudo-area that applies to every program.
func WithGeneralArea(area string) Option {
	return func(c *config) {
		if a := NormalizeTag(area); a != "" {
			c.generalArea = a
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type index struct {
	cfg       config
	byArea    map[string][]Bucket
	exercises map[string]Exercise
	active    int
}

// NewIndex builds an Index from buckets. Input slices are copied.
func NewIndex(buckets []Bucket, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	idx := &index{
		cfg:       cfg,
		byArea:    make(map[string][]Bucket),
		exercises: make(map[string]Exercise),
	}
	for _, b := range buckets {
		if !b.Active && !cfg.includeInactiveBuckets {
			continue
		}
		nb := Bucket{
			ID:        b.ID,
			Key:       b.Key,
			Name:      b.Name,
			Area:      NormalizeTag(b.Area),
			Tags:      NormalizeTags(b.Tags),
			SortOrder: b.SortOrder,
			Active:    b.Active,
			Exercises: make([]Exercise, 0, len(b.Exercises)),
		}
		for _, e := range b.Exercises {
			ne := e
			ne.BucketKey = b.Key
			ne.Tags = NormalizeTags(e.Tags)
			nb.Exercises = append(nb.Exercises, ne)
			idx.exercises[ne.ID] = ne
		}
		sort.SliceStable(nb.Exercises, func(i, j int) bool {
			if nb.Exercises[i].SortOrder != nb.Exercises[j].SortOrder {
				return nb.Exercises[i].SortOrder < nb.Exercises[j].SortOrder
			}
			return nb.Exercises[i].Key < nb.Exercises[j].Key
		})
		idx.byArea[nb.Area] = append(idx.byArea[nb.Area], nb)
		if nb.Active {
			idx.active++
		}
	}
	for area := range idx.byArea {
		bs := idx.byArea[area]
		sort.SliceStable(bs, func(i, j int) bool {
			if bs[i].SortOrder != bs[j].SortOrder {
				return bs[i].SortOrder < bs[j].SortOrder
			}
			return bs[i].Key < bs[j].Key
		})
	}
	return idx
}

// Lookup implements Index.
func (i *index) Lookup(area string, signals []string) []Match {
	area = NormalizeTag(area)
	sig := make(map[string]struct{}, len(signals))
	for _, s := range NormalizeTags(signals) {
		sig[s] = struct{}{}
	}

	var out []Match
	collect := func(bs []Bucket, general bool) {
		for _, b := range bs {
			if !b.Active {
				continue
			}
			hits := 0
			for _, t := range b.Tags {
				if _, ok := sig[t]; ok {
					hits++
				}
			}
			if len(b.Tags) > 0 && hits == 0 {
				continue
			}
			out = append(out, Match{Bucket: b, General: general, MatchedTags: hits})
		}
	}
	if area != "" && area != i.cfg.generalArea {
		collect(i.byArea[area], false)
	}
	collect(i.byArea[i.cfg.generalArea], true)

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Bucket.SortOrder != out[b].Bucket.SortOrder {
			return out[a].Bucket.SortOrder < out[b].Bucket.SortOrder
		}
		if out[a].General != out[b].General {
			return !out[a].General
		}
		return out[a].Bucket.Key < out[b].Bucket.Key
	})
	return out
}

// Exercise implements Index.
func (i *index) Exercise(id string) (Exercise, bool) {
	e, ok := i.exercises[id]
	return e, ok
}

// Len implements Index.
func (i *index) Len() int { return i.active }

// FromModels converts persisted buckets (with preloaded exercises) into
// index buckets.
func FromModels(models []domain.ExerciseBucket) []Bucket {
	out := make([]Bucket, 0, len(models))
	for _, m := range models {
		b := Bucket{
			ID:        m.ID,
			Key:       m.Key,
			Name:      m.Name,
			Area:      m.Area,
			Tags:      []string(m.Tags),
			SortOrder: m.SortOrder,
			Active:    m.IsActive,
		}
		for _, e := range m.Exercises {
			b.Exercises = append(b.Exercises, Exercise{
				ID:          e.ID,
				Key:         e.Key,
				Name:        e.Name,
				Description: e.Description,
				Tags:        []string(e.Tags),
				Difficulty:  e.Difficulty,
				Sets:        e.Sets,
				Reps:        e.Reps,
				HoldSeconds: e.HoldSeconds,
				SortOrder:   e.SortOrder,
				Active:      e.IsActive,
			})
		}
		out = append(out, b)
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

// NormalizeTag case-folds a tag and joins its words with underscores, so
// "Long Walks", "long-walks" and "long_walks" all compare equal.
func NormalizeTag(s string) string {
	// Casers carry state and must not be shared across goroutines.
	s = cases.Fold().String(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// NormalizeTags normalises and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
