package policy

import (
	"context"

	"gorm.io/gorm"

	"filer/internal/domain"
)

type Repository interface {
	ListActive(ctx context.Context) ([]domain.TypePolicy, error)
	Create(ctx context.Context, p *domain.TypePolicy) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context) ([]domain.TypePolicy, error) {
	var rules []domain.TypePolicy
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) Create(ctx context.Context, p *domain.TypePolicy) error {
	return r.db.WithContext(ctx).Create(p).Error
}
