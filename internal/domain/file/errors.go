package file

import "filer/internal/pkg/apperr"

var (
	ErrFileNotFound   = apperr.NotFound("file not found")
	ErrFolderNotFound = apperr.NotFound("folder not found")
	ErrDuplicate      = apperr.Conflict("identical content already stored")
	ErrEmptyFilename  = apperr.Validation("filename is required")
)
