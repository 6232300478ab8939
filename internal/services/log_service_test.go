package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/rules"
)

func TestRecord_FullPipeline(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")

	res, err := f.logs.Record(context.Background(), "u1", p.ID, time.UTC, LogInput{
		Pain: 3, Stiffness: 2, Swelling: 1, ActivityLevel: " High ",
		Aggravators: []string{"Stairs", "stairs ", ""}, Notes: "  felt ok ",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Log.LogDate != "2025-03-14" {
		t.Fatalf("log_date = %s", res.Log.LogDate)
	}
	if res.Log.ActivityLevel != domain.ActivityHigh || res.Log.Notes != "felt ok" {
		t.Fatalf("log not normalized: %+v", res.Log)
	}
	if got := []string(res.Log.Aggravators); len(got) != 1 || got[0] != "stairs" {
		t.Fatalf("aggravators = %v", got)
	}
	if res.Program.CurrentStreak != 1 || res.Program.LongestStreak != 1 {
		t.Fatalf("streak = %d/%d", res.Program.CurrentStreak, res.Program.LongestStreak)
	}
	if res.Plan == nil || res.Plan.RehabLogID == nil || *res.Plan.RehabLogID != res.Log.ID {
		t.Fatalf("plan not linked to log: %+v", res.Plan)
	}
	var sum rules.Summary
	if err := json.Unmarshal(res.Summary, &sum); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.DaysLogged != 1 || sum.CurrentStreak != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRecord_StreakAcrossDays(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")
	ctx := context.Background()

	steps := []struct {
		date             string
		current, longest int
	}{
		{"2025-03-01", 1, 1},
		{"2025-03-02", 2, 2},
		{"2025-03-03", 3, 3},
		{"2025-03-05", 1, 3}, // one-day gap
		{"2025-03-06", 2, 3},
		{"2025-03-04", 2, 3}, // backfill leaves the streak alone
	}
	for _, s := range steps {
		res, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{LogDate: s.date, Pain: 2})
		if err != nil {
			t.Fatalf("%s: %v", s.date, err)
		}
		if res.Program.CurrentStreak != s.current || res.Program.LongestStreak != s.longest {
			t.Fatalf("%s: streak %d/%d, want %d/%d", s.date,
				res.Program.CurrentStreak, res.Program.LongestStreak, s.current, s.longest)
		}
	}
	got, _ := repo.GetProgram(ctx, f.db, p.ID, "u1")
	if got.LastLoggedAt == nil || *got.LastLoggedAt != "2025-03-06" {
		t.Fatalf("last_logged_at = %v", got.LastLoggedAt)
	}
}

func TestRecord_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")
	ctx := context.Background()

	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{Pain: 11}); !IsValidation(err) {
		t.Fatalf("pain 11: want validation error, got %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{LogDate: "2025-03-15"}); !IsValidation(err) {
		t.Fatalf("future date: want validation error, got %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{LogDate: "14/03/2025"}); !IsValidation(err) {
		t.Fatalf("bad date: want validation error, got %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{ActivityLevel: "extreme"}); !IsValidation(err) {
		t.Fatalf("bad activity: want validation error, got %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", "missing", time.UTC, LogInput{}); !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("want ErrProgramNotFound, got %v", err)
	}

	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{}); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{}); !errors.Is(err, ErrDuplicateLog) {
		t.Fatalf("want ErrDuplicateLog, got %v", err)
	}

	if err := repo.UpdateProgramStatus(ctx, f.db, p.ID, "u1", domain.ProgramPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.logs.Record(ctx, "u1", p.ID, time.UTC, LogInput{LogDate: "2025-03-13"}); !errors.Is(err, ErrProgramInactive) {
		t.Fatalf("want ErrProgramInactive, got %v", err)
	}
}

func TestRecord_UsesUserTimeZone(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")
	// 09:00 UTC is already the next day in Auckland.
	loc := time.FixedZone("NZDT", 13*3600)
	f.clock.Add(2 * time.Hour)

	res, err := f.logs.Record(context.Background(), "u1", p.ID, loc, LogInput{})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Log.LogDate != "2025-03-15" {
		t.Fatalf("log_date = %s, want 2025-03-15", res.Log.LogDate)
	}
}

func TestListPage_And_UpdateNotes(t *testing.T) {
	f := newFixture(t, nil)
	p := mustProgram(t, f.db, "u1", "knee", "left")
	ctx := context.Background()
	for _, d := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		mustLog(t, f.db, p, d, 2, 2)
	}

	items, total, err := f.logs.ListPage(ctx, "u1", p.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 2 || items[0].LogDate != "2025-03-12" {
		t.Fatalf("page = %d items, total %d, first %s", len(items), total, items[0].LogDate)
	}
	if _, _, err := f.logs.ListPage(ctx, "u2", p.ID, 1, 2); !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("want ErrProgramNotFound, got %v", err)
	}

	l, err := f.logs.UpdateNotes(ctx, "u1", items[0].ID, " sore after stairs ")
	if err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	if l.Notes != "sore after stairs" || l.Pain != 2 {
		t.Fatalf("log = %+v", l)
	}
	if _, err := f.logs.UpdateNotes(ctx, "u1", items[0].ID, strings.Repeat("x", maxNotesRunes+1)); !IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := f.logs.UpdateNotes(ctx, "u2", items[0].ID, "x"); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("want ErrLogNotFound, got %v", err)
	}
}
