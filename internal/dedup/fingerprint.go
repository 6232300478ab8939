package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Request is everything an augmentation prompt depends on. Two requests
// with equal fingerprints produce interchangeable augmentations.
type Request struct {
	ScopeID     string   `json:"scope_id"`
	Model       string   `json:"model"`
	ExerciseIDs []string `json:"exercise_ids"`
	Area        string   `json:"area"`
	Side        string   `json:"side"`
	Pain        int      `json:"pain"`
	Stiffness   int      `json:"stiffness"`
	Swelling    int      `json:"swelling"`
	Activity    string   `json:"activity"`
	Aggravators []string `json:"aggravators"`
	Goal        string   `json:"goal"`
	Trend       string   `json:"trend"`
}

// Fingerprint returns the hex SHA-256 of r's canonical JSON form.
// Aggravators are order-insensitive; exercise order is significant.
func Fingerprint(r Request) string {
	aggs := append([]string(nil), r.Aggravators...)
	sort.Strings(aggs)
	r.Aggravators = aggs
	if r.ExerciseIDs == nil {
		r.ExerciseIDs = []string{}
	}
	if r.Aggravators == nil {
		r.Aggravators = []string{}
	}
	// Struct field order is fixed, so Marshal output is canonical.
	b, _ := json.Marshal(r)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
