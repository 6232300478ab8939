// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file loads and seeds the exercise catalog.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

// LoadCatalog returns every bucket with its exercises preloaded, ordered by
// sort order and key.
func LoadCatalog(ctx context.Context, db *gorm.DB) ([]domain.ExerciseBucket, error) {
	var out []domain.ExerciseBucket
	err := db.WithContext(ctx).
		Preload("Exercises", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc, key asc")
		}).
		Order("sort_order asc, key asc").
		Find(&out).Error
	return out, err
}

// SeedResult counts rows written by UpsertCatalog.
type SeedResult struct {
	BucketsCreated   int
	BucketsUpdated   int
	ExercisesCreated int
	ExercisesUpdated int
}

// UpsertCatalog writes f in one transaction, matching buckets and exercises
// by key. Rows missing from f are left untouched; mark them inactive in the
// file to retire them.
func UpsertCatalog(ctx context.Context, db *gorm.DB, f catalog.File) (SeedResult, error) {
	var res SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, b := range f.Buckets() {
			var bucket domain.ExerciseBucket
			err := tx.Where("key = ?", b.Key).First(&bucket).Error
			isNew := errors.Is(err, gorm.ErrRecordNotFound)
			if err != nil && !isNew {
				return err
			}
			if isNew {
				bucket = domain.ExerciseBucket{ID: uuid.NewString(), Key: b.Key, CreatedAt: now}
			}
			bucket.Name = b.Name
			bucket.Area = catalog.NormalizeTag(b.Area)
			bucket.Tags = datatypes.JSONSlice[string](catalog.NormalizeTags(b.Tags))
			bucket.SortOrder = b.SortOrder
			bucket.IsActive = b.Active
			bucket.UpdatedAt = now
			if isNew {
				err = tx.Omit("Exercises").Create(&bucket).Error
				res.BucketsCreated++
			} else {
				err = tx.Omit("Exercises").Save(&bucket).Error
				res.BucketsUpdated++
			}
			if err != nil {
				return err
			}

			for _, e := range b.Exercises {
				var ex domain.Exercise
				err := tx.Where("key = ?", e.Key).First(&ex).Error
				exNew := errors.Is(err, gorm.ErrRecordNotFound)
				if err != nil && !exNew {
					return err
				}
				if exNew {
					ex = domain.Exercise{ID: uuid.NewString(), Key: e.Key, CreatedAt: now}
				}
				ex.BucketID = bucket.ID
				ex.Name = e.Name
				ex.Description = e.Description
				ex.Tags = datatypes.JSONSlice[string](catalog.NormalizeTags(e.Tags))
				ex.Difficulty = e.Difficulty
				ex.Sets = e.Sets
				ex.Reps = e.Reps
				ex.HoldSeconds = e.HoldSeconds
				ex.SortOrder = e.SortOrder
				ex.IsActive = e.Active
				ex.UpdatedAt = now
				if exNew {
					err = tx.Omit("Bucket").Create(&ex).Error
					res.ExercisesCreated++
				} else {
					err = tx.Omit("Bucket").Save(&ex).Error
					res.ExercisesUpdated++
				}
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	return res, err
}
