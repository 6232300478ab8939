package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/gateway"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Exec("PRAGMA foreign_keys=ON;").Error; err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testIndex() catalog.Index {
	return catalog.NewIndex([]catalog.Bucket{
		{
			ID: "b-knee", Key: "knee-mobility", Name: "Knee mobility", Area: "knee", Active: true, SortOrder: 1,
			Exercises: []catalog.Exercise{
				{ID: "ex-heel-slide", Key: "heel-slide", Name: "Heel slide", Difficulty: 1, Sets: 2, Reps: 10, Active: true},
				{ID: "ex-quad-set", Key: "quad-set", Name: "Quad set", Difficulty: 1, Sets: 3, Reps: 10, HoldSeconds: 5, Active: true},
				{ID: "ex-step-up", Key: "step-up", Name: "Step up", Difficulty: 3, Sets: 3, Reps: 8, Active: true},
			},
		},
		{
			ID: "b-general", Key: "general-walk", Name: "Walking", Area: catalog.GeneralArea, Active: true, SortOrder: 2,
			Exercises: []catalog.Exercise{
				{ID: "ex-walk", Key: "walk", Name: "Easy walk", Difficulty: 1, Sets: 1, Reps: 0, Active: true},
			},
		},
	})
}

// fakeAugmenter answers with a canned result after an optional delay.
type fakeAugmenter struct {
	disabled bool
	delay    time.Duration
	fail     error
	calls    atomic.Int32
}

func (f *fakeAugmenter) Enabled() bool { return !f.disabled }
func (f *fakeAugmenter) Model() string { return "fake-model" }

func (f *fakeAugmenter) Augment(ctx context.Context, shortlist []domain.ShortlistItem, uc gateway.UserContext) gateway.Result {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail != nil {
		return gateway.Failed(f.fail)
	}
	sessions := make([]gateway.Session, 0, len(shortlist))
	for _, it := range shortlist {
		sessions = append(sessions, gateway.Session{ExerciseID: it.ExerciseID, Name: it.Name, Sets: it.Sets, Reps: it.Reps})
	}
	return gateway.Succeeded(gateway.Content{
		Title:    "Gentle " + uc.Area + " plan",
		Sessions: sessions,
		Coaching: gateway.Coaching{Message: "Keep it easy today."},
	})
}

// stepClock returns a fixed instant that can be moved forward.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(s string) *stepClock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &stepClock{t: t}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db         *gorm.DB
	clock      *stepClock
	gw         *fakeAugmenter
	plans      *PlanService
	adherence  *AdherenceService
	logs       *LogService
	onboarding *OnboardingService
}

func newFixture(t *testing.T, gw *fakeAugmenter) *fixture {
	t.Helper()
	db := newTestDB(t)
	clk := newClock("2025-03-14T09:00:00Z")
	var aug gateway.Augmenter
	if gw != nil {
		aug = gw
	}
	plans := NewPlanService(db, testIndex(), aug, nil)
	plans.Now = clk.Now
	adh := NewAdherenceService(db)
	adh.Now = clk.Now
	return &fixture{
		db:         db,
		clock:      clk,
		gw:         gw,
		plans:      plans,
		adherence:  adh,
		logs:       &LogService{DB: db, Plans: plans, Adherence: adh, Now: clk.Now},
		onboarding: &OnboardingService{DB: db, Plans: plans, Adherence: adh, Now: clk.Now},
	}
}

func mustProgram(t *testing.T, db *gorm.DB, userID, area, side string) *domain.RehabProgram {
	t.Helper()
	p, err := repo.CreateProgram(context.Background(), db, userID, area, side)
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	return p
}

func mustLog(t *testing.T, db *gorm.DB, p *domain.RehabProgram, date string, pain, stiffness int) *domain.RehabLog {
	t.Helper()
	l := &domain.RehabLog{
		UserID: p.UserID, ProgramID: p.ID, LogDate: date,
		Pain: pain, Stiffness: stiffness, ActivityLevel: domain.ActivityModerate,
	}
	if err := repo.CreateLog(context.Background(), db, l); err != nil {
		t.Fatalf("create log: %v", err)
	}
	return l
}
