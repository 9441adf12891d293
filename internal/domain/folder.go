package domain

import "time"

// Folder is a node of the folder tree. FullPath is derived from the ancestor
// chain and must be recomputed whenever Slug or ParentID changes.
type Folder struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ParentID    *int64    `json:"parent_id" gorm:"index;uniqueIndex:idx_folders_parent_slug"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Slug        string    `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex:idx_folders_parent_slug"`
	FullPath    string    `json:"full_path" gorm:"type:varchar(2048);not null;index"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"not null;index"`
	IsPublic    bool      `json:"is_public" gorm:"not null"`
	OwnerID     *int64    `json:"owner_id" gorm:"index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Folder) TableName() string {
	return "folders"
}

func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// JoinPath builds the materialized path of a child segment under parentPath.
func JoinPath(parentPath, segment string) string {
	if parentPath == "" {
		return segment
	}
	return parentPath + "/" + segment
}
