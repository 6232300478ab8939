package dedup

import "testing"

func TestFingerprint(t *testing.T) {
	base := Request{
		ScopeID: "prog-1", Model: "gpt-4o-mini", ExerciseIDs: []string{"a", "b"},
		Area: "knee", Side: "left", Pain: 4, Stiffness: 3, Activity: "low",
		Aggravators: []string{"stairs", "kneeling"}, Trend: "stable",
	}
	fp := Fingerprint(base)
	if len(fp) != 64 {
		t.Fatalf("fingerprint length %d", len(fp))
	}

	swapped := base
	swapped.Aggravators = []string{"kneeling", "stairs"}
	if Fingerprint(swapped) != fp {
		t.Fatalf("aggravator order must not matter")
	}
	if base.Aggravators[0] != "stairs" {
		t.Fatalf("Fingerprint mutated its input")
	}

	reordered := base
	reordered.ExerciseIDs = []string{"b", "a"}
	if Fingerprint(reordered) == fp {
		t.Fatalf("exercise order must matter")
	}

	other := base
	other.ScopeID = "prog-2"
	if Fingerprint(other) == fp {
		t.Fatalf("scope must matter")
	}

	empty := Request{}
	nilVsEmpty := Request{ExerciseIDs: []string{}, Aggravators: []string{}}
	if Fingerprint(empty) != Fingerprint(nilVsEmpty) {
		t.Fatalf("nil and empty slices should fingerprint the same")
	}
}
