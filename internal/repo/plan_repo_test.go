package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

func mkPlan(programID string, at time.Time, initial bool, parent, logID *string) *domain.RehabPlan {
	return &domain.RehabPlan{
		UserID: "u1", ProgramID: programID, IsInitial: initial,
		ParentPlanID: parent, RehabLogID: logID,
		PlanType: domain.PlanTypeFallback, AIStatus: domain.AIStatusSkipped,
		ShortlistJSON: datatypes.JSON(`[]`), GeneratedAt: at,
	}
}

func TestPlan_ChainQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, _ := CreateProgram(ctx, db, "u1", "knee", "left")
	t0 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	if _, err := LatestChainPlan(ctx, db, p.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("empty program: %v", err)
	}

	root := mkPlan(p.ID, t0, true, nil, nil)
	if err := CreatePlan(ctx, db, root); err != nil {
		t.Fatalf("root: %v", err)
	}
	if got, _ := LatestChainPlan(ctx, db, p.ID); got.ID != root.ID {
		t.Fatalf("only the root exists: %+v", got)
	}

	l1 := mkLog(p.ID, "2025-01-02", 3)
	_ = CreateLog(ctx, db, l1)
	second := mkPlan(p.ID, t0.Add(time.Hour), false, &root.ID, &l1.ID)
	if err := CreatePlan(ctx, db, second); err != nil {
		t.Fatalf("second: %v", err)
	}

	// A later re-onboarding root does not capture the chain.
	root2 := mkPlan(p.ID, t0.Add(2*time.Hour), true, nil, nil)
	_ = CreatePlan(ctx, db, root2)
	if got, _ := LatestChainPlan(ctx, db, p.ID); got.ID != second.ID {
		t.Fatalf("chain head should be the newest non-initial plan, got %+v", got)
	}
	if got, _ := LatestPlan(ctx, db, p.ID); got.ID != root2.ID {
		t.Fatalf("LatestPlan should be the newest plan overall, got %+v", got)
	}
	if got, _ := PlanByLog(ctx, db, l1.ID); got.ID != second.ID {
		t.Fatalf("PlanByLog: %+v", got)
	}
	if _, err := GetPlan(ctx, db, second.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ownership: %v", err)
	}
}

func TestPlan_UniqueParentAndLog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, _ := CreateProgram(ctx, db, "u1", "knee", "left")
	t0 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	root := mkPlan(p.ID, t0, true, nil, nil)
	_ = CreatePlan(ctx, db, root)

	l1 := mkLog(p.ID, "2025-01-02", 3)
	l2 := mkLog(p.ID, "2025-01-03", 3)
	_ = CreateLog(ctx, db, l1)
	_ = CreateLog(ctx, db, l2)

	if err := CreatePlan(ctx, db, mkPlan(p.ID, t0.Add(time.Minute), false, &root.ID, &l1.ID)); err != nil {
		t.Fatalf("first child: %v", err)
	}
	if err := CreatePlan(ctx, db, mkPlan(p.ID, t0.Add(2*time.Minute), false, &root.ID, &l2.ID)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second child of same parent: want ErrDuplicate, got %v", err)
	}
	if err := CreatePlan(ctx, db, mkPlan(p.ID, t0.Add(3*time.Minute), false, nil, &l1.ID)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second plan for a log: want ErrDuplicate, got %v", err)
	}
}

func TestPlan_ByOnboardingAndAIPattern(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, _ := CreateProgram(ctx, db, "u1", "knee", "left")
	prof := &domain.OnboardingProfile{
		UserID: "u1", Area: "knee", Side: "left", Onset: domain.OnsetRecent, PainRest: 5,
		ModeSuggestion: domain.ModeRehab, RiskLevel: domain.RiskMedium, Reasoning: "r", ProgramID: &p.ID,
	}
	if err := CreateProfile(ctx, db, prof); err != nil || prof.Version != domain.OnboardingProfileVersion {
		t.Fatalf("CreateProfile: %v %+v", err, prof)
	}
	root := mkPlan(p.ID, time.Now().UTC(), true, nil, nil)
	root.OnboardingProfileID = &prof.ID
	_ = CreatePlan(ctx, db, root)
	if got, err := PlanByOnboarding(ctx, db, prof.ID); err != nil || got.ID != root.ID {
		t.Fatalf("PlanByOnboarding: %v %+v", err, got)
	}
	if got, err := LatestProfile(ctx, db, "u1", p.ID); err != nil || got.ID != prof.ID {
		t.Fatalf("LatestProfile: %v %+v", err, got)
	}
	if _, err := GetProfile(ctx, db, prof.ID, "u1"); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}

	changed, err := SetAIPatternOnce(ctx, db, prof.ID, []byte(`{"title":"a"}`))
	if err != nil || !changed {
		t.Fatalf("first set: %v %v", changed, err)
	}
	changed, _ = SetAIPatternOnce(ctx, db, prof.ID, []byte(`{"title":"b"}`))
	if changed {
		t.Fatalf("second set must be a no-op")
	}
	got, _ := GetProfile(ctx, db, prof.ID, "u1")
	if string(got.AIPatternJSON) != `{"title":"a"}` {
		t.Fatalf("pattern overwritten: %s", got.AIPatternJSON)
	}
}
