package file

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"filer/internal/domain"
)

type Repository interface {
	// Create inserts f. When f is attached to a folder the folder row is
	// share-locked and must still be active.
	Create(ctx context.Context, f *domain.File) error
	GetByID(ctx context.Context, id int64) (*domain.File, error)
	FindBySHA1(ctx context.Context, sha1 string) ([]domain.File, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Increment(ctx context.Context, id int64, column string) error
	// DeleteWith removes the row and runs fn inside the same transaction;
	// an error from fn keeps the row.
	DeleteWith(ctx context.Context, id int64, fn func(*domain.File) error) error
	ListAnonymousBefore(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *domain.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if f.FolderID != nil {
			var folder domain.Folder
			err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
				Where("id = ?", *f.FolderID).
				First(&folder).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !folder.IsActive) {
				return ErrFolderNotFound
			}
			if err != nil {
				return err
			}
		}
		return tx.Create(f).Error
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*domain.File, error) {
	var f domain.File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) FindBySHA1(ctx context.Context, sha1 string) ([]domain.File, error) {
	var files []domain.File
	err := r.db.WithContext(ctx).
		Where("sha1 = ? AND is_active = ?", sha1, true).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.File{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

// Increment bumps a counter column in place without reading the row.
func (r *repository) Increment(ctx context.Context, id int64, column string) error {
	return r.db.WithContext(ctx).Model(&domain.File{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

func (r *repository) DeleteWith(ctx context.Context, id int64, fn func(*domain.File) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f domain.File
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&f).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&domain.File{}, id).Error; err != nil {
			return err
		}
		return fn(&f)
	})
}

func (r *repository) ListAnonymousBefore(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.File{}).
		Where("owner_id IS NULL AND created_at < ?", cutoff).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
