package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/rules"
)

func TestRefreshSummary_ThrottledWithinPeriod(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")
	ctx := context.Background()
	mustLog(t, f.db, p, "2025-03-13", 4, 2)
	mustLog(t, f.db, p, "2025-03-14", 2, 2)

	first, regen, err := f.adherence.RefreshSummary(ctx, "u1", p.ID, time.UTC)
	if err != nil || !regen {
		t.Fatalf("first refresh: regen=%v err=%v", regen, err)
	}
	var sum rules.Summary
	if err := json.Unmarshal(first, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.DaysLogged != 2 || sum.AvgPain == nil || *sum.AvgPain != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	// New data inside the period does not change the cached bytes.
	mustLog(t, f.db, p, "2025-03-12", 9, 9)
	f.clock.Add(24 * time.Hour)
	second, regen, err := f.adherence.RefreshSummary(ctx, "u1", p.ID, time.UTC)
	if err != nil || regen {
		t.Fatalf("second refresh: regen=%v err=%v", regen, err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("cached summary changed:\n%s\n%s", first, second)
	}

	f.clock.Add(6 * 24 * time.Hour)
	third, regen, err := f.adherence.RefreshSummary(ctx, "u1", p.ID, time.UTC)
	if err != nil || !regen {
		t.Fatalf("third refresh: regen=%v err=%v", regen, err)
	}
	if bytes.Equal(first, third) {
		t.Fatalf("summary should have been rebuilt")
	}
}

func TestAdherenceGet(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")
	ctx := context.Background()
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{LogDate: "2025-03-13", Pain: 3}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{Pain: 2}); err != nil {
		t.Fatalf("record: %v", err)
	}

	a, err := f.adherence.Get(ctx, "u1", p.ID, time.UTC)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.CurrentStreak != 2 || a.LongestStreak != 2 || len(a.Summary) == 0 {
		t.Fatalf("adherence = %+v", a)
	}
	if _, err := f.adherence.Get(ctx, "u2", p.ID, time.UTC); !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("want ErrProgramNotFound, got %v", err)
	}
}
