package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog seed format.
//
//	buckets:
//	  - key: knee_mobility
//	    name: Knee mobility
//	    area: knee
//	    tags: [stairs, activity:low]
//	    sort_order: 10
//	    exercises:
//	      - key: heel_slides
//	        name: Heel slides
//	        difficulty: 1
//	        sets: 2
//	        reps: 10
type File struct {
	BucketSpecs []BucketSpec `yaml:"buckets"`
}

// BucketSpec is one bucket entry in a seed file.
type BucketSpec struct {
	Key       string         `yaml:"key"`
	Name      string         `yaml:"name"`
	Area      string         `yaml:"area"`
	Tags      []string       `yaml:"tags"`
	SortOrder int            `yaml:"sort_order"`
	Inactive  bool           `yaml:"inactive"`
	Exercises []ExerciseSpec `yaml:"exercises"`
}

// ExerciseSpec is one exercise entry in a seed file.
type ExerciseSpec struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Difficulty  int      `yaml:"difficulty"`
	Sets        int      `yaml:"sets"`
	Reps        int      `yaml:"reps"`
	HoldSeconds int      `yaml:"hold_seconds"`
	SortOrder   int      `yaml:"sort_order"`
	Inactive    bool     `yaml:"inactive"`
}

// LoadYAML reads and validates a catalog seed file.
func LoadYAML(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return ParseYAML(bytes.NewReader(b))
}

// ParseYAML decodes and validates a catalog seed document.
func ParseYAML(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, errors.New("catalog: empty document")
		}
		return File{}, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks keys are present and unique and numeric fields are sane.
func (f File) Validate() error {
	if len(f.BucketSpecs) == 0 {
		return errors.New("catalog: no buckets")
	}
	bucketKeys := make(map[string]struct{}, len(f.BucketSpecs))
	exerciseKeys := make(map[string]struct{})
	for i, b := range f.BucketSpecs {
		if strings.TrimSpace(b.Key) == "" || strings.TrimSpace(b.Area) == "" {
			return fmt.Errorf("catalog: bucket #%d: key and area are required", i)
		}
		if _, dup := bucketKeys[b.Key]; dup {
			return fmt.Errorf("catalog: duplicate bucket key %q", b.Key)
		}
		bucketKeys[b.Key] = struct{}{}
		for _, e := range b.Exercises {
			if strings.TrimSpace(e.Key) == "" || strings.TrimSpace(e.Name) == "" {
				return fmt.Errorf("catalog: bucket %q: exercise key and name are required", b.Key)
			}
			if _, dup := exerciseKeys[e.Key]; dup {
				return fmt.Errorf("catalog: duplicate exercise key %q", e.Key)
			}
			exerciseKeys[e.Key] = struct{}{}
			if e.Difficulty < 0 || e.Difficulty > 3 {
				return fmt.Errorf("catalog: exercise %q: difficulty must be 1..3", e.Key)
			}
		}
	}
	return nil
}

// Buckets converts the seed file into index buckets, using the keys as ids.
// Callers that persist the catalog replace ids with stored ones.
func (f File) Buckets() []Bucket {
	out := make([]Bucket, 0, len(f.BucketSpecs))
	for _, b := range f.BucketSpecs {
		nb := Bucket{
			ID:        b.Key,
			Key:       b.Key,
			Name:      b.Name,
			Area:      b.Area,
			Tags:      b.Tags,
			SortOrder: b.SortOrder,
			Active:    !b.Inactive,
		}
		for _, e := range b.Exercises {
			nb.Exercises = append(nb.Exercises, Exercise{
				ID:          e.Key,
				Key:         e.Key,
				Name:        e.Name,
				Description: e.Description,
				Tags:        e.Tags,
				Difficulty:  withDefault(e.Difficulty, 1),
				Sets:        withDefault(e.Sets, 2),
				Reps:        withDefault(e.Reps, 10),
				HoldSeconds: e.HoldSeconds,
				SortOrder:   e.SortOrder,
				Active:      !e.Inactive,
			})
		}
		out = append(out, nb)
	}
	return out
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
