package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ragquiz/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return n, nil
}

// DeleteAll removes every registry row; the caller resets the vector index.
func (r *DocumentRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Document{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete documents failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
