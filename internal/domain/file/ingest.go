package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"filer/internal/blob"
	"filer/internal/domain"
	"filer/internal/domain/policy"
	"filer/internal/events"
	"filer/internal/pkg/apperr"
	"filer/internal/pkg/utils"
)

const (
	sniffLen       = 3072
	cleanupTimeout = 10 * time.Second
	octetStream    = "application/octet-stream"
)

type FolderResolver interface {
	ResolveActive(ctx context.Context, id int64) (*domain.Folder, error)
}

type PolicyChecker interface {
	Validate(ctx context.Context, d policy.UploadDescriptor, audience domain.Audience) (*domain.TypePolicy, error)
}

// FolderRef names the folder an upload is attached to, or none.
type FolderRef struct {
	id *int64
}

func NoFolder() FolderRef { return FolderRef{} }

func InFolder(id int64) FolderRef { return FolderRef{id: &id} }

func (r FolderRef) ID() (int64, bool) {
	if r.id == nil {
		return 0, false
	}
	return *r.id, true
}

type Options struct {
	BlobWriteTimeout time.Duration
	PublicBaseURL    string
	RejectDuplicates bool
	Now              func() time.Time
}

// Result is an accepted upload. Duplicates lists earlier active files with
// the same content.
type Result struct {
	File       *domain.File
	Rule       *domain.TypePolicy
	Duplicates []domain.File
}

type Pipeline struct {
	folders   FolderResolver
	validator PolicyChecker
	deduper   *Deduper
	repo      Repository
	blobs     blob.Store
	events    events.Publisher
	opts      Options
}

func NewPipeline(folders FolderResolver, validator PolicyChecker, repo Repository, blobs blob.Store, publisher events.Publisher, opts Options) *Pipeline {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BlobWriteTimeout <= 0 {
		opts.BlobWriteTimeout = 30 * time.Second
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Pipeline{
		folders:   folders,
		validator: validator,
		deduper:   NewDeduper(repo),
		repo:      repo,
		blobs:     blobs,
		events:    publisher,
		opts:      opts,
	}
}

// Ingest validates, stores and records one upload. Nothing is written before
// validation passes; once bytes are stored, any later failure removes them.
func (p *Pipeline) Ingest(ctx context.Context, d policy.UploadDescriptor, r io.Reader, ref FolderRef, audience domain.Audience, ownerID *int64) (*Result, error) {
	start := time.Now()
	res, err := p.ingest(ctx, d, r, ref, audience, ownerID)
	ingestDuration.Observe(time.Since(start).Seconds())
	ingestTotal.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func (p *Pipeline) ingest(ctx context.Context, d policy.UploadDescriptor, r io.Reader, ref FolderRef, audience domain.Audience, ownerID *int64) (*Result, error) {
	if strings.TrimSpace(d.Filename) == "" {
		return nil, ErrEmptyFilename
	}
	d.Filename = utils.CleanFilename(d.Filename)

	folderID, attached := ref.ID()
	if attached {
		if _, err := p.folders.ResolveActive(ctx, folderID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, fmt.Errorf("resolve folder: %w", err)
		}
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = append([]byte(nil), head...)

	declared := policy.NormalizeMime(d.MimeType)
	if declared == "" || declared == octetStream {
		d.MimeType = policy.NormalizeMime(mimetype.Detect(head).String())
	} else {
		d.MimeType = declared
	}

	rule, err := p.validator.Validate(ctx, d, audience)
	if err != nil {
		return nil, err
	}

	ext := d.Extension()
	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(rule.Extension), ".")
	}
	now := p.opts.Now().UTC()
	storedName := uuid.NewString()
	if ext != "" {
		storedName += "." + ext
	}
	storagePath := fmt.Sprintf("files/%04d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), storedName)

	hasher := NewHasher()
	var limited io.Reader = br
	if rule.MaxSize < math.MaxInt64 {
		limited = io.LimitReader(br, rule.MaxSize+1)
	}
	body := io.TeeReader(limited, hasher)

	writeCtx, cancel := context.WithTimeout(ctx, p.opts.BlobWriteTimeout)
	written, err := p.blobs.Write(writeCtx, storagePath, body, d.MimeType)
	cancel()
	if err != nil {
		p.cleanup(ctx, storagePath)
		return nil, apperr.Storage("failed to store file", err)
	}
	if written > rule.MaxSize {
		p.cleanup(ctx, storagePath)
		return nil, apperr.Validation(policy.ReasonTooLarge)
	}

	digest := hasher.Digest()
	duplicates, err := p.deduper.FindDuplicates(ctx, digest)
	if err != nil {
		p.cleanup(ctx, storagePath)
		return nil, err
	}
	if len(duplicates) > 0 && p.opts.RejectDuplicates {
		p.cleanup(ctx, storagePath)
		return nil, ErrDuplicate
	}

	f := &domain.File{
		OwnerID:      ownerID,
		OriginalName: d.Filename,
		StoredName:   storedName,
		StoragePath:  storagePath,
		MimeType:     d.MimeType,
		Extension:    ext,
		Size:         written,
		SHA1:         digest.SHA1,
		SHA256:       digest.SHA256,
		Metadata:     map[string]string{"policy": rule.Name},
		IsActive:     true,
	}
	if attached {
		f.FolderID = &folderID
	}
	if declared != "" && declared != d.MimeType {
		f.Metadata["declared_mime"] = declared
	}
	if p.opts.PublicBaseURL != "" {
		f.PublicURL = p.opts.PublicBaseURL + "/" + storagePath
	}
	if f.IsImage() {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
			f.Width, f.Height = &cfg.Width, &cfg.Height
		}
	}

	if err := p.repo.Create(ctx, f); err != nil {
		p.cleanup(ctx, storagePath)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save file record: %w", err)
	}

	ingestBytes.Add(float64(written))
	log.Printf("file_ingested id=%d size=%d mime=%s attached=%t duplicates=%d", f.ID, f.Size, f.MimeType, attached, len(duplicates))
	p.events.Publish(ctx, events.Event{
		Type:       events.FileIngested,
		FileID:     f.ID,
		FolderID:   f.FolderID,
		OccurredAt: now,
		Payload:    domain.NewFileView(f),
	})

	return &Result{File: f, Rule: rule, Duplicates: duplicates}, nil
}

// cleanup removes a just-written blob. It runs detached from ctx so that a
// cancelled request still releases its bytes.
func (p *Pipeline) cleanup(ctx context.Context, path string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := p.blobs.Delete(cctx, path); err != nil {
		log.Printf("blob_cleanup_failed path=%s error=%v", path, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, apperr.ErrValidation):
		return "rejected"
	case errors.Is(err, apperr.ErrConflict):
		return "duplicate"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}
