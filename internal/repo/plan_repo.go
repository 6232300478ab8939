// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for RehabPlan.
//
// Plans are append-only: there is a create function and readers, nothing
// that updates or deletes a plan.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// CreatePlan inserts p, assigning an id and CreatedAt. Unique violations
// (second plan for a log, onboarding profile or parent) yield ErrDuplicate.
func CreatePlan(ctx context.Context, db *gorm.DB, p *domain.RehabPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Omit("Program").Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetPlan fetches a plan by id and owner.
func GetPlan(ctx context.Context, db *gorm.DB, id, userID string) (*domain.RehabPlan, error) {
	var p domain.RehabPlan
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestPlan returns the program's most recently generated plan.
func LatestPlan(ctx context.Context, db *gorm.DB, programID string) (*domain.RehabPlan, error) {
	var p domain.RehabPlan
	err := db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("generated_at desc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestChainPlan returns the plan a new plan should link to: the newest
// non-initial plan of the program, or the newest initial plan when no
// non-initial plan exists yet.
func LatestChainPlan(ctx context.Context, db *gorm.DB, programID string) (*domain.RehabPlan, error) {
	var p domain.RehabPlan
	err := db.WithContext(ctx).
		Where("program_id = ? AND is_initial = ?", programID, false).
		Order("generated_at desc").
		First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	err = db.WithContext(ctx).
		Where("program_id = ? AND is_initial = ?", programID, true).
		Order("generated_at desc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PlanByLog returns the plan generated for a log.
func PlanByLog(ctx context.Context, db *gorm.DB, logID string) (*domain.RehabPlan, error) {
	var p domain.RehabPlan
	if err := db.WithContext(ctx).Where("rehab_log_id = ?", logID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// PlanByOnboarding returns the initial plan generated for a profile.
func PlanByOnboarding(ctx context.Context, db *gorm.DB, profileID string) (*domain.RehabPlan, error) {
	var p domain.RehabPlan
	if err := db.WithContext(ctx).Where("onboarding_profile_id = ?", profileID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
