package folder

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"filer/internal/domain"
)

// Repository wraps folder persistence. A Repository obtained inside
// Transaction runs every call on that transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Folder, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Folder, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// GetForShare blocks concurrent moves and renames of the row but not readers.
func (r *Repository) GetForShare(ctx context.Context, id int64) (*domain.Folder, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}), id)
}

func (r *Repository) first(q *gorm.DB, id int64) (*domain.Folder, error) {
	var f domain.Folder
	err := q.Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindChild returns the sibling with slug under parentID, or nil.
func (r *Repository) FindChild(ctx context.Context, parentID *int64, slug string) (*domain.Folder, error) {
	var folders []domain.Folder
	q := r.db.WithContext(ctx).Where("slug = ?", slug)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.Order("id ASC").Limit(1).Find(&folders).Error; err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, nil
	}
	return &folders[0], nil
}

func (r *Repository) Create(ctx context.Context, f *domain.Folder) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Folder{}).Where("id = ?", id).Updates(fields).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Folder{}).Error
}

// Descendants walks the subtree below rootID breadth-first. With lock set the
// visited rows are locked for update; with activeOnly inactive folders and
// everything below them are skipped.
func (r *Repository) Descendants(ctx context.Context, rootID int64, lock, activeOnly bool) ([]domain.Folder, error) {
	var out []domain.Folder
	seen := map[int64]bool{rootID: true}
	frontier := []int64{rootID}

	for len(frontier) > 0 {
		q := r.db.WithContext(ctx).Where("parent_id IN ?", frontier)
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		if lock {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var children []domain.Folder
		if err := q.Order("id ASC").Find(&children).Error; err != nil {
			return nil, err
		}

		next := make([]int64, 0, len(children))
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			next = append(next, c.ID)
		}
		frontier = next
	}
	return out, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]domain.Folder, error) {
	var folders []domain.Folder
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&folders).Error
	return folders, err
}

func (r *Repository) ListChildren(ctx context.Context, parentID int64) ([]domain.Folder, error) {
	var folders []domain.Folder
	err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("id ASC").Find(&folders).Error
	return folders, err
}

func (r *Repository) CountChildren(ctx context.Context, id int64, activeOnly bool) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&domain.Folder{}).Where("parent_id = ?", id)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *Repository) CountFiles(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.File{}).Where("folder_id = ?", id).Count(&n).Error
	return n, err
}

// DetachFiles leaves every file of folder id unattached.
func (r *Repository) DetachFiles(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&domain.File{}).
		Where("folder_id = ?", id).
		Update("folder_id", nil).Error
}

// ActiveFiles returns active files attached to any of folderIDs.
func (r *Repository) ActiveFiles(ctx context.Context, folderIDs []int64) ([]domain.File, error) {
	var files []domain.File
	if len(folderIDs) == 0 {
		return files, nil
	}
	err := r.db.WithContext(ctx).
		Where("folder_id IN ? AND is_active = ?", folderIDs, true).
		Order("created_at DESC, id ASC").
		Find(&files).Error
	return files, err
}

type folderCount struct {
	FolderID int64
	N        int64
}

// ActiveFileCounts maps folder id to its number of active files.
func (r *Repository) ActiveFileCounts(ctx context.Context, folderIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(folderIDs))
	if len(folderIDs) == 0 {
		return counts, nil
	}
	var rows []folderCount
	err := r.db.WithContext(ctx).Model(&domain.File{}).
		Select("folder_id, COUNT(*) AS n").
		Where("folder_id IN ? AND is_active = ?", folderIDs, true).
		Group("folder_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.FolderID] = row.N
	}
	return counts, nil
}
