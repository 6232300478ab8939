// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for RehabLog.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// CreateLog inserts l, assigning an id and timestamps. A second log for the
// same user, program and date yields ErrDuplicate.
func CreateLog(ctx context.Context, db *gorm.DB, l *domain.RehabLog) error {
	now := time.Now().UTC()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt, l.UpdatedAt = now, now
	if err := db.WithContext(ctx).Omit("Program").Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetLog fetches a log by id and owner.
func GetLog(ctx context.Context, db *gorm.DB, id, userID string) (*domain.RehabLog, error) {
	var l domain.RehabLog
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// CountLogs returns the number of logs recorded for a program.
func CountLogs(ctx context.Context, db *gorm.DB, programID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.RehabLog{}).
		Where("program_id = ?", programID).
		Count(&total).Error
	return total, err
}

// ListLogsPage returns a page of a program's logs, newest date first.
func ListLogsPage(ctx context.Context, db *gorm.DB, programID string, offset, limit int) ([]domain.RehabLog, error) {
	var out []domain.RehabLog
	err := db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("log_date desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListLogsBetween returns a program's logs with from <= log_date <= to,
// oldest first. Dates use domain.LogDateLayout.
func ListLogsBetween(ctx context.Context, db *gorm.DB, programID, from, to string) ([]domain.RehabLog, error) {
	var out []domain.RehabLog
	err := db.WithContext(ctx).
		Where("program_id = ? AND log_date >= ? AND log_date <= ?", programID, from, to).
		Order("log_date asc").
		Find(&out).Error
	return out, err
}

// UpdateLogNotes replaces the notes of a log owned by userID. Notes are the
// only mutable field of a log.
func UpdateLogNotes(ctx context.Context, db *gorm.DB, id, userID, notes string) error {
	res := db.WithContext(ctx).
		Model(&domain.RehabLog{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"notes": notes, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
