// Package domain defines the persistence models for onboarding profiles,
// rehab programs, symptom logs, plans and the exercise catalog. These types
// are mapped with GORM and form the core data layer of the rehab engine.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Program lifecycle states.
const (
	ProgramActive    = "active"
	ProgramCompleted = "completed"
	ProgramPaused    = "paused"
)

// Modes suggested by onboarding evaluation.
const (
	ModeRehab       = "rehab"
	ModeMaintenance = "maintenance"
)

// Risk levels attached to a mode suggestion.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Onset buckets reported during onboarding.
const (
	OnsetRecent  = "recent"
	OnsetOngoing = "ongoing"
	OnsetChronic = "chronic"
	OnsetUnknown = "unknown"
)

// Activity levels reported on a log.
const (
	ActivityLow      = "low"
	ActivityModerate = "moderate"
	ActivityHigh     = "high"
)

// Plan provenance.
const (
	PlanTypeAI       = "ai"
	PlanTypeFallback = "fallback"
	PlanTypeManual   = "manual"
)

// Outcome of the augmentation attempt recorded on a plan.
const (
	AIStatusPending = "pending"
	AIStatusSuccess = "success"
	AIStatusFailed  = "failed"
	AIStatusSkipped = "skipped"
)

// Symptom trajectory classification.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendWorsening = "worsening"
)

// LogDateLayout is the calendar-date layout used for RehabLog.LogDate and
// RehabProgram.LastLoggedAt.
const LogDateLayout = "2006-01-02"

// OnboardingProfileVersion is the schema version stamped on new profiles.
const OnboardingProfileVersion = 1

// OnboardingProfile is the baseline a user submits at intake, plus the
// computed mode suggestion. It is immutable once created except for
// AIPatternJSON, which may be filled once by the initial plan.
type OnboardingProfile struct {
	ID             string                      `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string                      `json:"user_id"         gorm:"type:varchar(64);not null;index"`
	Area           string                      `json:"area"            gorm:"type:varchar(32);not null"`
	Side           string                      `json:"side"            gorm:"type:varchar(16);not null;default:'none'"`
	Onset          string                      `json:"onset"           gorm:"type:varchar(16);not null"`
	PainRest       int                         `json:"pain_rest"       gorm:"not null;check:pain_rest BETWEEN 0 AND 10"`
	PainActivity   int                         `json:"pain_activity"   gorm:"not null;check:pain_activity BETWEEN 0 AND 10"`
	RedFlags       datatypes.JSONSlice[string] `json:"red_flags"`
	Goal           string                      `json:"goal"            gorm:"type:varchar(255)"`
	ModeSuggestion string                      `json:"mode_suggestion" gorm:"type:varchar(16);not null"`
	RiskLevel      string                      `json:"risk_level"      gorm:"type:varchar(16);not null"`
	Reasoning      string                      `json:"reasoning"       gorm:"type:text;not null"`
	Version        int                         `json:"version"         gorm:"not null;default:1"`
	AIPatternJSON  datatypes.JSON              `json:"ai_pattern_json,omitempty"`
	ProgramID      *string                     `json:"program_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt      time.Time                   `json:"created_at"`
}

// TableName returns the database table name for OnboardingProfile.
func (OnboardingProfile) TableName() string { return "onboarding_profiles" }

// RehabProgram groups logs and plans for one user, body area and side. It
// carries the adherence aggregates maintained on every accepted log.
type RehabProgram struct {
	ID                     string         `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID                 string         `json:"user_id"         gorm:"type:varchar(64);not null;uniqueIndex:ux_program_user_area_side,priority:1"`
	Area                   string         `json:"area"            gorm:"type:varchar(32);not null;uniqueIndex:ux_program_user_area_side,priority:2"`
	Side                   string         `json:"side"            gorm:"type:varchar(16);not null;uniqueIndex:ux_program_user_area_side,priority:3"`
	Status                 string         `json:"status"          gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','completed','paused')"`
	CurrentStreak          int            `json:"current_streak"  gorm:"not null;default:0"`
	LongestStreak          int            `json:"longest_streak"  gorm:"not null;default:0"`
	LastLoggedAt           *string        `json:"last_logged_at,omitempty" gorm:"type:char(10)"`
	LastSummaryJSON        datatypes.JSON `json:"-"`
	LastSummaryGeneratedAt *time.Time     `json:"last_summary_generated_at,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// TableName returns the database table name for RehabProgram.
func (RehabProgram) TableName() string { return "rehab_programs" }

// RehabLog is one symptom entry per user, program and calendar date.
// Only Notes may change after creation.
type RehabLog struct {
	ID            string                      `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string                      `json:"user_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_log_user_program_date,priority:1"`
	ProgramID     string                      `json:"program_id"     gorm:"type:char(36);not null;uniqueIndex:ux_log_user_program_date,priority:2;index:idx_log_program_date,priority:1"`
	LogDate       string                      `json:"log_date"       gorm:"type:char(10);not null;uniqueIndex:ux_log_user_program_date,priority:3;index:idx_log_program_date,priority:2"`
	Pain          int                         `json:"pain"           gorm:"not null;check:pain BETWEEN 0 AND 10"`
	Stiffness     int                         `json:"stiffness"      gorm:"not null;check:stiffness BETWEEN 0 AND 10"`
	Swelling      int                         `json:"swelling"       gorm:"not null;check:swelling BETWEEN 0 AND 10"`
	ActivityLevel string                      `json:"activity_level" gorm:"type:varchar(16);not null;default:'moderate'"`
	Aggravators   datatypes.JSONSlice[string] `json:"aggravators"`
	Notes         string                      `json:"notes"          gorm:"type:text"`
	IsOnboarding  bool                        `json:"is_onboarding"  gorm:"not null;default:false"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	// Program is the owning program. Logs are cascade-deleted with it.
	Program RehabProgram `json:"-" gorm:"foreignKey:ProgramID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RehabLog.
func (RehabLog) TableName() string { return "rehab_logs" }

// RehabPlan is an immutable, append-only plan record. Plans of one program
// form a progression chain through ParentPlanID; the unique index on
// ParentPlanID keeps that chain linear.
type RehabPlan struct {
	ID                  string         `json:"id"                    gorm:"type:char(36);primaryKey"`
	UserID              string         `json:"user_id"               gorm:"type:varchar(64);not null;index"`
	ProgramID           string         `json:"program_id"            gorm:"type:char(36);not null;index:idx_plan_program_generated,priority:1"`
	RehabLogID          *string        `json:"rehab_log_id,omitempty" gorm:"type:char(36);uniqueIndex:ux_plan_log"`
	OnboardingProfileID *string        `json:"onboarding_profile_id,omitempty" gorm:"type:char(36);uniqueIndex:ux_plan_onboarding"`
	ParentPlanID        *string        `json:"parent_plan_id,omitempty" gorm:"type:char(36);uniqueIndex:ux_plan_parent"`
	IsInitial           bool           `json:"is_initial"            gorm:"not null;default:false"`
	PlanType            string         `json:"plan_type"             gorm:"type:varchar(16);not null;check:plan_type IN ('ai','fallback','manual')"`
	AIStatus            string         `json:"ai_status"             gorm:"type:varchar(16);not null;check:ai_status IN ('pending','success','failed','skipped')"`
	AIError             string         `json:"ai_error,omitempty"    gorm:"type:text"`
	Fingerprint         string         `json:"fingerprint"           gorm:"type:char(64)"`
	Model               string         `json:"model,omitempty"       gorm:"type:varchar(64)"`
	ShortlistJSON       datatypes.JSON `json:"shortlist_json"        gorm:"not null"`
	AIOutputJSON        datatypes.JSON `json:"ai_output_json,omitempty"`
	AIFeedbackJSON      datatypes.JSON `json:"ai_feedback_json,omitempty"`
	Trend               *string        `json:"trend"                 gorm:"type:varchar(16)"`
	GeneratedAt         time.Time      `json:"generated_at"          gorm:"not null;index:idx_plan_program_generated,priority:2"`
	CreatedAt           time.Time      `json:"created_at"`

	Program RehabProgram `json:"-" gorm:"foreignKey:ProgramID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RehabPlan.
func (RehabPlan) TableName() string { return "rehab_plans" }

// ExerciseBucket is a symptom-tag category of exercises for one body area
// (or "general").
type ExerciseBucket struct {
	ID        string                      `json:"id"         gorm:"type:char(36);primaryKey"`
	Key       string                      `json:"key"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Name      string                      `json:"name"       gorm:"type:varchar(128);not null"`
	Area      string                      `json:"area"       gorm:"type:varchar(32);not null;index"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	SortOrder int                         `json:"sort_order" gorm:"not null;default:0"`
	IsActive  bool                        `json:"is_active"  gorm:"not null"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`

	Exercises []Exercise `json:"exercises,omitempty" gorm:"foreignKey:BucketID"`
}

// TableName returns the database table name for ExerciseBucket.
func (ExerciseBucket) TableName() string { return "exercise_buckets" }

// Exercise belongs to exactly one bucket.
type Exercise struct {
	ID          string                      `json:"id"           gorm:"type:char(36);primaryKey"`
	BucketID    string                      `json:"bucket_id"    gorm:"type:char(36);not null;index"`
	Key         string                      `json:"key"          gorm:"type:varchar(64);not null;uniqueIndex"`
	Name        string                      `json:"name"         gorm:"type:varchar(128);not null"`
	Description string                      `json:"description"  gorm:"type:text"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Difficulty  int                         `json:"difficulty"   gorm:"not null;default:1;check:difficulty BETWEEN 1 AND 3"`
	Sets        int                         `json:"sets"         gorm:"not null;default:2"`
	Reps        int                         `json:"reps"         gorm:"not null;default:10"`
	HoldSeconds int                         `json:"hold_seconds" gorm:"not null;default:0"`
	SortOrder   int                         `json:"sort_order"   gorm:"not null;default:0"`
	IsActive    bool                        `json:"is_active"    gorm:"not null"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`

	Bucket ExerciseBucket `json:"-" gorm:"foreignKey:BucketID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Exercise.
func (Exercise) TableName() string { return "exercises" }

// ShortlistItem is one entry of the deterministic shortlist persisted in
// RehabPlan.ShortlistJSON.
type ShortlistItem struct {
	ExerciseID  string `json:"exercise_id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	BucketKey   string `json:"bucket_key"`
	Difficulty  int    `json:"difficulty"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	HoldSeconds int    `json:"hold_seconds,omitempty"`
}
