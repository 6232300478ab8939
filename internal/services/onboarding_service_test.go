package services

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
)

func TestEvaluate_Properties(t *testing.T) {
	s := &OnboardingService{}
	cases := []struct {
		name       string
		in         OnboardingInput
		mode, risk string
	}{
		{"red flag dominates", OnboardingInput{Area: "knee", Onset: "chronic", PainRest: 0, RedFlags: []string{"night pain"}}, domain.ModeRehab, domain.RiskHigh},
		{"low chronic", OnboardingInput{Area: "knee", Onset: "chronic", PainRest: 2}, domain.ModeMaintenance, domain.RiskLow},
		{"pain beats chronic", OnboardingInput{Area: "knee", Onset: "chronic", PainRest: 5}, domain.ModeRehab, domain.RiskMedium},
		{"blank flags ignored", OnboardingInput{Area: "knee", Onset: "chronic", PainRest: 1, RedFlags: []string{"  "}}, domain.ModeMaintenance, domain.RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Evaluate(tc.in)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got.ModeSuggestion != tc.mode || got.RiskLevel != tc.risk {
				t.Fatalf("got %s/%s, want %s/%s", got.ModeSuggestion, got.RiskLevel, tc.mode, tc.risk)
			}
		})
	}
}

func TestEvaluate_Validation(t *testing.T) {
	s := &OnboardingService{}
	bad := []OnboardingInput{
		{},
		{Area: "knee", PainRest: -1},
		{Area: "knee", PainActivity: 11},
		{Area: "knee", Side: "middle"},
		{Area: "knee", Onset: "yesterday"},
	}
	for _, in := range bad {
		if _, err := s.Evaluate(in); !IsValidation(err) {
			t.Fatalf("%+v: want validation error, got %v", in, err)
		}
	}
}

func TestSubmit_RehabCreatesProgramIntakeAndInitialPlan(t *testing.T) {
	f := newFixture(t, &fakeAugmenter{})
	ctx := context.Background()

	res, err := f.onboarding.Submit(ctx, "u1", time.UTC, OnboardingInput{
		Area: " Knee ", Side: "Left", Onset: "recent", PainRest: 5, PainActivity: 7, Goal: "Run again",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Profile.ModeSuggestion != domain.ModeRehab || res.Profile.ProgramID == nil {
		t.Fatalf("profile = %+v", res.Profile)
	}
	if res.Program == nil || res.Program.Area != "knee" || res.Program.Side != "left" {
		t.Fatalf("program = %+v", res.Program)
	}
	if res.IntakeLog == nil || !res.IntakeLog.IsOnboarding || res.IntakeLog.Pain != 5 || res.IntakeLog.LogDate != "2025-03-14" {
		t.Fatalf("intake log = %+v", res.IntakeLog)
	}
	if res.Program.CurrentStreak != 1 {
		t.Fatalf("streak = %d", res.Program.CurrentStreak)
	}
	if res.Plan == nil || !res.Plan.IsInitial || res.Plan.AIStatus != domain.AIStatusSuccess {
		t.Fatalf("plan = %+v", res.Plan)
	}

	// Same area again reuses the program and skips the second intake log.
	again, err := f.onboarding.Submit(ctx, "u1", time.UTC, OnboardingInput{Area: "knee", Side: "left", Onset: "ongoing"})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if again.Program.ID != res.Program.ID || again.IntakeLog != nil {
		t.Fatalf("second submission should reuse program without a new log")
	}
}

func TestSubmit_MaintenancePausesActivePrograms(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p1 := mustProgram(t, f.db, "u1", "knee", "left")
	mustProgram(t, f.db, "u1", "shoulder", "right")
	other := mustProgram(t, f.db, "u2", "knee", "left")

	res, err := f.onboarding.Submit(ctx, "u1", time.UTC, OnboardingInput{Area: "back", Onset: "chronic", PainRest: 1})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.PausedPrograms != 2 || res.Program != nil || res.Plan != nil {
		t.Fatalf("result = %+v", res)
	}
	got, _ := repo.GetProgram(ctx, f.db, p1.ID, "u1")
	if got.Status != domain.ProgramPaused {
		t.Fatalf("status = %s", got.Status)
	}
	untouched, _ := repo.GetProgram(ctx, f.db, other.ID, "u2")
	if untouched.Status != domain.ProgramActive {
		t.Fatalf("other user's program changed")
	}

	// Rehab onboarding for a paused program reactivates it.
	back, err := f.onboarding.Submit(ctx, "u1", time.UTC, OnboardingInput{Area: "knee", Side: "left", Onset: "recent"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if back.Program.ID != p1.ID || back.Program.Status != domain.ProgramActive {
		t.Fatalf("program = %+v", back.Program)
	}
}
