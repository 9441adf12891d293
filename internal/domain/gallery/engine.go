package gallery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"filer/internal/domain"
	"filer/internal/pkg/utils"
)

const recentWindow = 7 * 24 * time.Hour

// Filters are AND-combined. Month is ignored without a year.
type Filters struct {
	Scope    FolderScope
	Year     int
	Month    int
	Filename string
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

type Page struct {
	Items      []domain.FileView `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

type Stats struct {
	TotalFiles         int64  `json:"total_files"`
	TotalSize          int64  `json:"total_size"`
	TotalSizeFormatted string `json:"total_size_formatted"`
	ImageCount         int64  `json:"image_count"`
	DocumentCount      int64  `json:"document_count"`
	RecentCount        int64  `json:"recent_count"`
}

// Engine answers read-only listing queries over active files.
type Engine struct {
	db       *gorm.DB
	pageSize int
	now      func() time.Time
}

func NewEngine(db *gorm.DB, defaultPageSize int, now func() time.Time) *Engine {
	if defaultPageSize < 1 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{db: db, pageSize: defaultPageSize, now: now}
}

func (e *Engine) DefaultPageSize() int {
	return e.pageSize
}

// Query returns one page of active files, newest first with ties broken by id.
func (e *Engine) Query(ctx context.Context, f Filters, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = e.pageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var total int64
	if err := e.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	// Pages past the end are empty.
	var files []domain.File
	if total > 0 && page <= totalPages {
		err := e.filtered(ctx, f).Order("created_at DESC").Order("id ASC").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&files).Error
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
	}

	return &Page{
		Items: domain.NewFileViews(files),
		Pagination: Pagination{
			CurrentPage: page,
			PerPage:     pageSize,
			Total:       total,
			TotalPages:  totalPages,
		},
	}, nil
}

func (e *Engine) filtered(ctx context.Context, f Filters) *gorm.DB {
	q := e.db.WithContext(ctx).Model(&domain.File{}).Where("is_active = ?", true)

	switch f.Scope.Kind {
	case ScopeImages:
		q = q.Where("mime_type LIKE ?", "image/%")
	case ScopeVideos:
		q = q.Where("mime_type LIKE ?", "video/%")
	case ScopeDocuments:
		q = q.Where("(mime_type LIKE ? OR mime_type LIKE ?)", "application/%", "text/%")
	case ScopeRecent:
		q = q.Where("created_at >= ?", e.now().UTC().Add(-recentWindow))
	case ScopeFolder:
		q = q.Where("folder_id = ?", f.Scope.FolderID)
	}

	if from, to, ok := calendarRange(f.Year, f.Month); ok {
		q = q.Where("created_at >= ? AND created_at < ?", from, to)
	}

	if name := strings.ToLower(strings.TrimSpace(f.Filename)); name != "" {
		pattern := "%" + escapeLike(name) + "%"
		q = q.Where(`(LOWER(original_name) LIKE ? ESCAPE '\' OR LOWER(stored_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return q
}

// calendarRange turns year/month into a half-open UTC range.
func calendarRange(year, month int) (time.Time, time.Time, bool) {
	if year < 1 || year > 9999 {
		return time.Time{}, time.Time{}, false
	}
	if month >= 1 && month <= 12 {
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Stats aggregates the active collection.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	var row struct {
		TotalFiles    int64
		TotalSize     int64
		ImageCount    int64
		DocumentCount int64
		RecentCount   int64
	}
	err := e.db.WithContext(ctx).Model(&domain.File{}).
		Select(`COUNT(*) AS total_files,
			COALESCE(SUM(size), 0) AS total_size,
			COALESCE(SUM(CASE WHEN mime_type LIKE 'image/%' THEN 1 ELSE 0 END), 0) AS image_count,
			COALESCE(SUM(CASE WHEN mime_type LIKE 'application/%' OR mime_type LIKE 'text/%' THEN 1 ELSE 0 END), 0) AS document_count,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS recent_count`,
			e.now().UTC().Add(-recentWindow)).
		Where("is_active = ?", true).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("file stats: %w", err)
	}

	return &Stats{
		TotalFiles:         row.TotalFiles,
		TotalSize:          row.TotalSize,
		TotalSizeFormatted: utils.FormatSize(row.TotalSize),
		ImageCount:         row.ImageCount,
		DocumentCount:      row.DocumentCount,
		RecentCount:        row.RecentCount,
	}, nil
}
