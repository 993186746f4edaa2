package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"estate-api/internal/domain"
)

type PropertyRepo struct{ db *gorm.DB }

func NewPropertyRepo(db *gorm.DB) *PropertyRepo { return &PropertyRepo{db: db} }

func (r *PropertyRepo) ListPublished(ctx context.Context, offset, limit int) ([]domain.Property, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("status = ?", domain.PropertyPublished)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var props []domain.Property
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&props).Error; err != nil {
		return nil, 0, err
	}
	return props, total, nil
}

func (r *PropertyRepo) FindByID(ctx context.Context, id uint) (*domain.Property, error) {
	var p domain.Property
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepo) Update(ctx context.Context, p *domain.Property) error {
	return r.db.WithContext(ctx).Save(p).Error
}
