// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for
// OnboardingProfile.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// CreateProfile inserts p, assigning an id, version and CreatedAt.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.OnboardingProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = domain.OnboardingProfileVersion
	}
	p.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(p).Error
}

// GetProfile fetches a profile by id and owner.
func GetProfile(ctx context.Context, db *gorm.DB, id, userID string) (*domain.OnboardingProfile, error) {
	var p domain.OnboardingProfile
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestProfile returns the user's newest profile linked to programID.
func LatestProfile(ctx context.Context, db *gorm.DB, userID, programID string) (*domain.OnboardingProfile, error) {
	var p domain.OnboardingProfile
	err := db.WithContext(ctx).
		Where("user_id = ? AND program_id = ?", userID, programID).
		Order("created_at desc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetAIPatternOnce stores raw as the profile's AI pattern unless one is
// already present. It reports whether the row changed.
func SetAIPatternOnce(ctx context.Context, db *gorm.DB, id string, raw []byte) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.OnboardingProfile{}).
		Where("id = ? AND ai_pattern_json IS NULL", id).
		Update("ai_pattern_json", datatypes.JSON(raw))
	return res.RowsAffected > 0, res.Error
}
