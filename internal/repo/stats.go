// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// LogsStats returns the number of logs of a program and the greatest
// UpdatedAt among them. With no logs, count is 0 and maxUpdatedAt is nil.
func LogsStats(ctx context.Context, db *gorm.DB, programID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return stats(ctx, db.WithContext(ctx).Model(&domain.RehabLog{}).Where("program_id = ?", programID), "updated_at")
}

// PlansStats returns the number of plans of a program and the greatest
// GeneratedAt among them.
func PlansStats(ctx context.Context, db *gorm.DB, programID string) (count int64, maxGeneratedAt *time.Time, err error) {
	return stats(ctx, db.WithContext(ctx).Model(&domain.RehabPlan{}).Where("program_id = ?", programID), "generated_at")
}

func stats(_ context.Context, q *gorm.DB, col string) (int64, *time.Time, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+Limit instead of MAX(), which SQLite returns as TEXT.
	var ts []time.Time
	if err := q.Session(&gorm.Session{}).Order(col+" DESC").Limit(1).Pluck(col, &ts).Error; err != nil {
		return 0, nil, err
	}
	if len(ts) == 0 {
		return count, nil, nil
	}
	return count, &ts[0], nil
}
