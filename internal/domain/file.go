package domain

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrHashImmutable = errors.New("file content hash is immutable")

// File is a stored upload. Bytes live in the blob store under StoragePath.
type File struct {
	ID            int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	FolderID      *int64            `json:"folder_id" gorm:"index"`
	OwnerID       *int64            `json:"owner_id" gorm:"index"`
	OriginalName  string            `json:"original_name" gorm:"type:varchar(255);not null"`
	StoredName    string            `json:"stored_name" gorm:"type:varchar(255);not null;uniqueIndex"`
	StoragePath   string            `json:"-" gorm:"type:varchar(1024);not null"`
	MimeType      string            `json:"mime_type" gorm:"type:varchar(255);not null;index"`
	Extension     string            `json:"extension" gorm:"type:varchar(32)"`
	Size          int64             `json:"size" gorm:"not null"`
	SHA1          string            `json:"sha1" gorm:"<-:create;column:sha1;type:varchar(40);not null;index"`
	SHA256        string            `json:"sha256" gorm:"<-:create;column:sha256;type:varchar(64);not null"`
	Metadata      map[string]string `json:"metadata,omitempty" gorm:"type:text;serializer:json"`
	IsActive      bool              `json:"is_active" gorm:"not null;index"`
	Width         *int              `json:"width,omitempty"`
	Height        *int              `json:"height,omitempty"`
	ViewCount     int64             `json:"view_count" gorm:"not null"`
	DownloadCount int64             `json:"download_count" gorm:"not null"`
	PublicURL     string            `json:"public_url"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (File) TableName() string {
	return "files"
}

func (f *File) IsAnonymous() bool {
	return f.OwnerID == nil
}

func (f *File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

func (f *File) IsVideo() bool {
	return strings.HasPrefix(f.MimeType, "video/")
}

func (f *File) IsDocument() bool {
	return strings.HasPrefix(f.MimeType, "application/") || strings.HasPrefix(f.MimeType, "text/")
}

// BeforeUpdate refuses explicit hash updates. The hash columns are also
// create-only, so Save never writes them.
func (f *File) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("SHA1", "SHA256") {
		return ErrHashImmutable
	}
	return nil
}
