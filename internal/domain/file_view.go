package domain

import (
	"time"

	"filer/internal/pkg/utils"
)

// FileView is the listing/upload response shape of a File.
type FileView struct {
	ID            int64     `json:"id"`
	OriginalName  string    `json:"original_name"`
	URL           *string   `json:"url"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"size_formatted"`
	FolderID      *int64    `json:"folder_id"`
	IsImage       bool      `json:"is_image"`
	IsVideo       bool      `json:"is_video"`
	IsAnonymous   bool      `json:"is_anonymous"`
	IsActive      bool      `json:"is_active"`
	Width         *int      `json:"width,omitempty"`
	Height        *int      `json:"height,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewFileView(f *File) FileView {
	v := FileView{
		ID:            f.ID,
		OriginalName:  f.OriginalName,
		MimeType:      f.MimeType,
		Size:          f.Size,
		SizeFormatted: utils.FormatSize(f.Size),
		FolderID:      f.FolderID,
		IsImage:       f.IsImage(),
		IsVideo:       f.IsVideo(),
		IsAnonymous:   f.IsAnonymous(),
		IsActive:      f.IsActive,
		Width:         f.Width,
		Height:        f.Height,
		CreatedAt:     f.CreatedAt,
	}
	if f.PublicURL != "" {
		url := f.PublicURL
		v.URL = &url
	}
	return v
}

func NewFileViews(files []File) []FileView {
	views := make([]FileView, 0, len(files))
	for i := range files {
		views = append(views, NewFileView(&files[i]))
	}
	return views
}
