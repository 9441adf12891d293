package folder

import "filer/internal/pkg/apperr"

var (
	ErrFolderNotFound = apperr.NotFound("folder not found")
	ErrParentNotFound = apperr.NotFound("parent folder not found")
	ErrNameRequired   = apperr.Validation("name is required")
	ErrNameNoSlug     = apperr.Validation("name must contain at least one letter or digit")
	ErrPathRequired   = apperr.Validation("path is required")
	ErrMoveIntoSelf   = apperr.Validation("cannot move a folder into itself or one of its descendants")
	ErrNameTaken      = apperr.Conflict("a folder with this name already exists here")
	ErrNotEmpty       = apperr.Conflict("folder still has children or files")
	ErrSegmentRetired = apperr.Conflict("a deactivated folder already uses this path")
)
