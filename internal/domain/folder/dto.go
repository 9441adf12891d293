package folder

type CreateFolderRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	IsPublic    bool   `json:"is_public"`
}

type UpdateFolderRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublic    *bool   `json:"is_public"`
	IsActive    *bool   `json:"is_active"`
}

// MoveFolderRequest moves to the root when ParentID is null.
type MoveFolderRequest struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

type ResolvePathRequest struct {
	Path string `json:"path" validate:"required,max=2048"`
}
