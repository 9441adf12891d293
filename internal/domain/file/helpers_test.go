package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"filer/internal/blob"
	"filer/internal/database"
	"filer/internal/domain"
	"filer/internal/domain/folder"
	"filer/internal/domain/policy"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectWithOptions(":memory:", database.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	dir      string
	blobs    *blob.LocalStore
	repo     Repository
	folders  *folder.Service
	pipeline *Pipeline
	service  *Service
}

func newFixture(t *testing.T, opts Options, rules ...domain.TypePolicy) *fixture {
	t.Helper()
	db := setupTestDB(t)
	dir := t.TempDir()
	blobs, err := blob.NewLocalStore(dir)
	require.NoError(t, err)

	policyRepo := policy.NewRepository(db)
	for i := range rules {
		require.NoError(t, policyRepo.Create(context.Background(), &rules[i]))
	}
	validator := policy.NewValidator(policy.NewStore(policyRepo, time.Minute))

	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	repo := NewRepository(db)
	folders := folder.NewService(folder.NewRepository(db), nil)
	return &fixture{
		db:       db,
		dir:      dir,
		blobs:    blobs,
		repo:     repo,
		folders:  folders,
		pipeline: NewPipeline(folders, validator, repo, blobs, nil, opts),
		service:  NewService(repo, blobs, nil),
	}
}

func textRule(maxSize int64) domain.TypePolicy {
	return domain.TypePolicy{
		Name: "Plain text", MimeType: "text/plain", Extension: "txt",
		MaxSize: maxSize, Scope: domain.ScopeBoth, IsActive: true,
	}
}

func pngRule() domain.TypePolicy {
	return domain.TypePolicy{
		Name: "PNG", MimeType: "image/png", Extension: "png",
		MaxSize: 1 << 20, Scope: domain.ScopeBoth, IsActive: true, DisplayOrder: 1,
	}
}

// blobFiles lists every regular file under dir, relative to it.
func blobFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func countFiles(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.File{}).Count(&n).Error)
	return n
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Write(ctx context.Context, path string, r io.Reader, contentType string) (int64, error) {
	args := m.Called(ctx, path, r, contentType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBlobStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, f *domain.File) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*domain.File, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*domain.File)
	return f, args.Error(1)
}

func (m *mockRepository) FindBySHA1(ctx context.Context, sha1 string) ([]domain.File, error) {
	args := m.Called(ctx, sha1)
	files, _ := args.Get(0).([]domain.File)
	return files, args.Error(1)
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockRepository) Increment(ctx context.Context, id int64, column string) error {
	return m.Called(ctx, id, column).Error(0)
}

func (m *mockRepository) DeleteWith(ctx context.Context, id int64, fn func(*domain.File) error) error {
	return m.Called(ctx, id, fn).Error(0)
}

func (m *mockRepository) ListAnonymousBefore(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, cutoff, limit)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

// activeResolver accepts every folder id.
type activeResolver struct{}

func (activeResolver) ResolveActive(_ context.Context, id int64) (*domain.Folder, error) {
	return &domain.Folder{ID: id, IsActive: true}, nil
}

func folderInput(name string) folder.CreateInput {
	return folder.CreateInput{Name: name}
}
