package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ragquiz/internal/model"
)

type GenerationRecordRepository struct {
	db *gorm.DB
}

func NewGenerationRecordRepository(db *gorm.DB) *GenerationRecordRepository {
	return &GenerationRecordRepository{db: db}
}

// Create ignores a record whose request id is already stored, so redelivered
// messages do not fail.
func (r *GenerationRecordRepository) Create(ctx context.Context, rec *model.GenerationRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("create generation record failed: %w", err)
	}
	return nil
}

func (r *GenerationRecordRepository) ListRecent(ctx context.Context, limit int) ([]model.GenerationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []model.GenerationRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list generation records failed: %w", err)
	}
	return list, nil
}
