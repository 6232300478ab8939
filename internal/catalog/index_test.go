package catalog

import (
	"strings"
	"sync"
	"testing"

	"gorm.io/datatypes"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// ---------- helpers ----------
func sampleBuckets() []Bucket {
	return []Bucket{
		{
			ID: "b-knee-stairs", Key: "knee_stairs", Area: "Knee", Tags: []string{"Stairs", "squatting"},
			SortOrder: 10, Active: true,
			Exercises: []Exercise{
				{ID: "e2", Key: "step_ups", Name: "Step ups", Difficulty: 2, SortOrder: 2, Active: true},
				{ID: "e1", Key: "wall_sits", Name: "Wall sits", Difficulty: 1, SortOrder: 1, Active: true},
			},
		},
		{
			ID: "b-knee-mob", Key: "knee_mobility", Area: "knee", SortOrder: 5, Active: true,
			Exercises: []Exercise{{ID: "e3", Key: "heel_slides", Difficulty: 1, Active: true}},
		},
		{
			ID: "b-gen", Key: "general_walk", Area: "general", SortOrder: 10, Active: true,
			Exercises: []Exercise{{ID: "e4", Key: "walking", Difficulty: 1, Active: true}},
		},
		{
			ID: "b-off", Key: "knee_off", Area: "knee", SortOrder: 1, Active: false,
			Exercises: []Exercise{{ID: "e5", Key: "retired", Difficulty: 1, Active: true}},
		},
		{
			ID: "b-shoulder", Key: "shoulder_reach", Area: "shoulder", Tags: []string{"reaching"}, SortOrder: 1, Active: true,
		},
	}
}

func keys(ms []Match) string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Bucket.Key
	}
	return strings.Join(out, ",")
}

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.generalArea != GeneralArea || def.includeInactiveBuckets {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}
	cfg := def
	WithGeneralArea("  All Areas ")(&cfg)
	if cfg.generalArea != "all_areas" {
		t.Fatalf("WithGeneralArea failed: %q", cfg.generalArea)
	}
	WithGeneralArea("   ")(&cfg) // no-op
	if cfg.generalArea != "all_areas" {
		t.Fatalf("blank general area should be ignored")
	}
	WithInactiveBuckets()(&cfg)
	if !cfg.includeInactiveBuckets {
		t.Fatalf("WithInactiveBuckets failed")
	}
}

// ---------- Lookup ----------
func TestLookup_OrderingAndTagFiltering(t *testing.T) {
	idx := NewIndex(sampleBuckets())

	// Untagged buckets always qualify; tagged buckets need a signal.
	got := keys(idx.Lookup("knee", nil))
	if got != "knee_mobility,general_walk" {
		t.Fatalf("no signals: got %q", got)
	}

	got = keys(idx.Lookup("KNEE", []string{"stairs"}))
	// sort 5 first; at sort 10 the area bucket wins over the general one.
	if got != "knee_mobility,knee_stairs,general_walk" {
		t.Fatalf("with signals: got %q", got)
	}

	ms := idx.Lookup("knee", []string{"Stairs", "SQUATTING", "stairs"})
	for _, m := range ms {
		if m.Bucket.Key == "knee_stairs" && m.MatchedTags != 2 {
			t.Fatalf("expected 2 matched tags, got %d", m.MatchedTags)
		}
		if m.Bucket.Key == "general_walk" && !m.General {
			t.Fatalf("general bucket not flagged")
		}
	}
}

func TestLookup_GeneralAndUnknownArea(t *testing.T) {
	idx := NewIndex(sampleBuckets())
	if got := keys(idx.Lookup("general", nil)); got != "general_walk" {
		t.Fatalf("general area: got %q", got)
	}
	if got := keys(idx.Lookup("ankle", nil)); got != "general_walk" {
		t.Fatalf("unknown area should only yield general buckets, got %q", got)
	}
	if got := keys(idx.Lookup("shoulder", []string{"lifting"})); got != "general_walk" {
		t.Fatalf("non-matching tags should be filtered, got %q", got)
	}
}

func TestNewIndex_ExerciseOrderAndInactive(t *testing.T) {
	idx := NewIndex(sampleBuckets())
	if idx.Len() != 4 {
		t.Fatalf("Len = %d, want 4 active buckets", idx.Len())
	}
	ms := idx.Lookup("knee", []string{"stairs"})
	var stairs Bucket
	for _, m := range ms {
		if m.Bucket.Key == "knee_stairs" {
			stairs = m.Bucket
		}
	}
	if len(stairs.Exercises) != 2 || stairs.Exercises[0].Key != "wall_sits" {
		t.Fatalf("exercises not sorted by sort order: %+v", stairs.Exercises)
	}
	if stairs.Exercises[0].BucketKey != "knee_stairs" {
		t.Fatalf("bucket key not stamped: %+v", stairs.Exercises[0])
	}
	if _, ok := idx.Exercise("e5"); ok {
		t.Fatalf("exercise of inactive bucket should not be indexed by default")
	}

	withInactive := NewIndex(sampleBuckets(), WithInactiveBuckets())
	if _, ok := withInactive.Exercise("e5"); !ok {
		t.Fatalf("WithInactiveBuckets should keep exercise e5")
	}
	if withInactive.Len() != 4 {
		t.Fatalf("inactive buckets must not count: %d", withInactive.Len())
	}
	for _, m := range withInactive.Lookup("knee", nil) {
		if m.Bucket.Key == "knee_off" {
			t.Fatalf("inactive bucket returned by Lookup")
		}
	}
}

func TestNewIndex_DoesNotAliasInput(t *testing.T) {
	in := sampleBuckets()
	idx := NewIndex(in)
	in[1].Exercises[0].Key = "mutated"
	e, ok := idx.Exercise("e3")
	if !ok || e.Key != "heel_slides" {
		t.Fatalf("index aliased caller slice: %+v", e)
	}
}

func TestLookup_ConcurrentReads(t *testing.T) {
	idx := NewIndex(sampleBuckets())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if len(idx.Lookup("knee", []string{"stairs"})) != 3 {
					t.Error("unexpected lookup size")
					return
				}
			}
		}()
	}
	wg.Wait()
}

// ---------- FromModels ----------
func TestFromModels(t *testing.T) {
	models := []domain.ExerciseBucket{{
		ID: "b1", Key: "hip_mobility", Name: "Hip", Area: "hip",
		Tags: datatypes.JSONSlice[string]{"sitting"}, SortOrder: 3, IsActive: true,
		Exercises: []domain.Exercise{{
			ID: "x1", BucketID: "b1", Key: "bridges", Name: "Bridges",
			Tags: datatypes.JSONSlice[string]{"glutes"}, Difficulty: 2, Sets: 3, Reps: 12, IsActive: true,
		}},
	}}
	bs := FromModels(models)
	if len(bs) != 1 || len(bs[0].Exercises) != 1 {
		t.Fatalf("unexpected conversion: %+v", bs)
	}
	idx := NewIndex(bs)
	e, ok := idx.Exercise("x1")
	if !ok || e.Sets != 3 || e.Reps != 12 || e.BucketKey != "hip_mobility" || e.Tags[0] != "glutes" {
		t.Fatalf("exercise not carried over: %+v", e)
	}
}

// ---------- NormalizeTag(s) ----------
func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"Long Walks":    "long_walks",
		"long-walks":    "long_walks",
		" long__walks ": "long_walks",
		"activity:LOW":  "activity:low",
		"":              "",
		"   ":           "",
	}
	for in, want := range cases {
		if got := NormalizeTag(in); got != want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}
	if got := NormalizeTags([]string{"A", "a", "", "b c", "B-C"}); strings.Join(got, "|") != "a|b_c" {
		t.Fatalf("NormalizeTags = %v", got)
	}
	if NormalizeTags(nil) != nil {
		t.Fatalf("nil in should be nil out")
	}
}
