// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for RehabProgram.
//
// All functions are context-aware and accept a *gorm.DB handle, so they
// work inside transactions. No business rules live here: streak and summary
// values are computed by the services and only written by these helpers.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// CreateProgram inserts an active program for (userID, area, side).
// It returns ErrDuplicate when the user already has one for that pair.
func CreateProgram(ctx context.Context, db *gorm.DB, userID, area, side string) (*domain.RehabProgram, error) {
	now := time.Now().UTC()
	p := &domain.RehabProgram{
		ID:        uuid.NewString(),
		UserID:    userID,
		Area:      area,
		Side:      side,
		Status:    domain.ProgramActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// GetProgram fetches a program by id and owner.
func GetProgram(ctx context.Context, db *gorm.DB, id, userID string) (*domain.RehabProgram, error) {
	var p domain.RehabProgram
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProgram fetches the program for (userID, area, side).
func FindProgram(ctx context.Context, db *gorm.DB, userID, area, side string) (*domain.RehabProgram, error) {
	var p domain.RehabProgram
	err := db.WithContext(ctx).
		Where("user_id = ? AND area = ? AND side = ?", userID, area, side).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrograms returns the user's programs, newest first. An empty status
// matches every status.
func ListPrograms(ctx context.Context, db *gorm.DB, userID, status string) ([]domain.RehabProgram, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.RehabProgram
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// UpdateProgramStatus sets the lifecycle status of a program owned by userID.
func UpdateProgramStatus(ctx context.Context, db *gorm.DB, id, userID, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.RehabProgram{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PauseActivePrograms pauses every active program of userID and returns
// how many were changed.
func PauseActivePrograms(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.RehabProgram{}).
		Where("user_id = ? AND status = ?", userID, domain.ProgramActive).
		Updates(map[string]any{"status": domain.ProgramPaused, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// UpdateStreak writes the adherence counters of a program.
func UpdateStreak(ctx context.Context, db *gorm.DB, id string, current, longest int, lastLoggedAt *string) error {
	res := db.WithContext(ctx).
		Model(&domain.RehabProgram{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_streak": current,
			"longest_streak": longest,
			"last_logged_at": lastLoggedAt,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveSummary stores a freshly generated weekly summary.
func SaveSummary(ctx context.Context, db *gorm.DB, id string, raw []byte, generatedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.RehabProgram{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_summary_json":         datatypes.JSON(raw),
			"last_summary_generated_at": generatedAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
