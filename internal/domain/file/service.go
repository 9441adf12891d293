package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"filer/internal/blob"
	"filer/internal/domain"
	"filer/internal/events"
	"filer/internal/pkg/apperr"
)

const (
	purgeBatchSize    = 100
	blobDeleteTimeout = 10 * time.Second
)

// Service owns the lifecycle of stored files after ingestion.
type Service struct {
	repo          Repository
	blobs         blob.Store
	events        events.Publisher
	now           func() time.Time
	deleteTimeout time.Duration
}

func NewService(repo Repository, blobs blob.Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{repo: repo, blobs: blobs, events: publisher, now: time.Now, deleteTimeout: blobDeleteTimeout}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.File, error) {
	return s.repo.GetByID(ctx, id)
}

// Invalidate hides a file from listings without removing its bytes.
func (s *Service) Invalidate(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, false, events.FileInvalidated)
}

func (s *Service) Validate(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, true, events.FileValidated)
}

func (s *Service) setActive(ctx context.Context, id int64, active bool, eventType string) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.events.Publish(ctx, events.Event{Type: eventType, FileID: id, OccurredAt: s.now().UTC()})
	return nil
}

// Delete removes the record and its bytes together: when the blob cannot be
// deleted the record is kept. The blob delete runs while the row is locked,
// so it is bounded by deleteTimeout. If the commit fails after the bytes are
// gone, Open reports the missing content and a repeated Delete succeeds.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var folderID *int64
	err := s.repo.DeleteWith(ctx, id, func(f *domain.File) error {
		folderID = f.FolderID
		dctx, cancel := context.WithTimeout(ctx, s.deleteTimeout)
		defer cancel()
		if err := s.blobs.Delete(dctx, f.StoragePath); err != nil {
			return apperr.Storage("failed to delete file content", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	deletedTotal.Inc()
	s.events.Publish(ctx, events.Event{Type: events.FileDeleted, FileID: id, FolderID: folderID, OccurredAt: s.now().UTC()})
	return nil
}

// RecordView counts a view. Counters are advisory, so failures are only logged.
func (s *Service) RecordView(ctx context.Context, id int64) {
	s.bump(ctx, id, "view_count")
}

func (s *Service) RecordDownload(ctx context.Context, id int64) {
	s.bump(ctx, id, "download_count")
}

func (s *Service) bump(ctx context.Context, id int64, column string) {
	if err := s.repo.Increment(ctx, id, column); err != nil {
		log.Printf("counter_update_failed file_id=%d column=%s error=%v", id, column, err)
	}
}

// Open returns an active file and a reader over its bytes. The caller closes
// the reader.
func (s *Service) Open(ctx context.Context, id int64) (*domain.File, io.ReadCloser, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !f.IsActive {
		return nil, nil, ErrFileNotFound
	}

	rc, err := s.blobs.Open(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, apperr.Storage("file content is missing", err)
		}
		return nil, nil, apperr.Storage("failed to read file content", err)
	}
	return f, rc, nil
}

// PurgeAnonymous deletes anonymous files created more than olderThan ago,
// one batch at a time, through Delete. Files that fail to delete are skipped
// and reported in the returned error.
func (s *Service) PurgeAnonymous(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	failed := map[int64]bool{}
	var errs []error
	purged := 0

	for {
		ids, err := s.repo.ListAnonymousBefore(ctx, cutoff, purgeBatchSize+len(failed))
		if err != nil {
			return purged, fmt.Errorf("list anonymous files: %w", err)
		}

		progressed := false
		for _, id := range ids {
			if failed[id] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return purged, err
			}
			progressed = true
			if err := s.Delete(ctx, id); err != nil {
				failed[id] = true
				errs = append(errs, fmt.Errorf("file %d: %w", id, err))
				continue
			}
			purged++
		}

		if !progressed {
			break
		}
	}

	log.Printf("anonymous_purge cutoff=%s purged=%d failed=%d", cutoff.Format(time.RFC3339), purged, len(failed))
	return purged, errors.Join(errs...)
}
