package folder

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"filer/internal/database"
	"filer/internal/domain"
	"filer/internal/events"
	"filer/internal/pkg/apperr"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

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

func setupService(t *testing.T) (*Service, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db := setupTestDB(t)
	pub := &recordingPublisher{}
	return NewService(NewRepository(db), pub), db, pub
}

func create(t *testing.T, s *Service, name string, parentID *int64) *domain.Folder {
	t.Helper()
	f, err := s.CreateFolder(context.Background(), CreateInput{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return f
}

func path(t *testing.T, s *Service, id int64) string {
	t.Helper()
	f, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return f.FullPath
}

func ptr[T any](v T) *T { return &v }

func TestCreateFolderPaths(t *testing.T) {
	s, _, _ := setupService(t)

	docs := create(t, s, "Docs", nil)
	year := create(t, s, "2024", &docs.ID)

	assert.Equal(t, "docs", docs.FullPath)
	assert.True(t, docs.IsActive)
	assert.True(t, docs.IsRoot())
	assert.Equal(t, "docs/2024", year.FullPath)
	assert.Equal(t, docs.ID, *year.ParentID)
}

func TestCreateFolderValidation(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	_, err := s.CreateFolder(ctx, CreateInput{Name: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateFolder(ctx, CreateInput{Name: "!!!"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.CreateFolder(ctx, CreateInput{Name: "Orphan", ParentID: ptr(int64(999))})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateFolderUnderInactiveParent(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	require.NoError(t, s.DeleteFolder(ctx, docs.ID))

	_, err := s.CreateFolder(ctx, CreateInput{Name: "2024", ParentID: &docs.ID})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestCreateFolderSiblingConflict(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	create(t, s, "Reports", &docs.ID)

	_, err := s.CreateFolder(ctx, CreateInput{Name: "reports", ParentID: &docs.ID})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.CreateFolder(ctx, CreateInput{Name: "DOCS"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// Same slug under a different parent is fine.
	other := create(t, s, "Other", nil)
	create(t, s, "Reports", &other.ID)
}

func TestRenameRecomputesDescendants(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	year := create(t, s, "2024", &docs.ID)
	q1 := create(t, s, "Q1 Reports", &year.ID)
	require.Equal(t, "docs/2024/q1-reports", q1.FullPath)

	renamed, err := s.UpdateFolder(ctx, docs.ID, UpdateInput{Name: ptr("Documents")})
	require.NoError(t, err)

	assert.Equal(t, "Documents", renamed.Name)
	assert.Equal(t, "documents", renamed.FullPath)
	assert.Equal(t, "documents/2024", path(t, s, year.ID))
	assert.Equal(t, "documents/2024/q1-reports", path(t, s, q1.ID))
}

func TestUpdateFolderPartialFields(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs, err := s.CreateFolder(ctx, CreateInput{Name: "Docs", Description: "team docs"})
	require.NoError(t, err)

	updated, err := s.UpdateFolder(ctx, docs.ID, UpdateInput{IsPublic: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, "Docs", updated.Name)
	assert.Equal(t, "team docs", updated.Description)

	_, err = s.UpdateFolder(ctx, docs.ID, UpdateInput{Name: ptr("  ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.UpdateFolder(ctx, 12345, UpdateInput{IsPublic: ptr(true)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRenameIntoSiblingConflict(t *testing.T) {
	s, _, _ := setupService(t)

	create(t, s, "Docs", nil)
	media := create(t, s, "Media", nil)

	_, err := s.UpdateFolder(context.Background(), media.ID, UpdateInput{Name: ptr("docs")})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "media", path(t, s, media.ID))
}

func TestMoveFolderRecomputesSubtree(t *testing.T) {
	s, _, pub := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	archive := create(t, s, "Archive", nil)
	year := create(t, s, "2024", &docs.ID)
	jan := create(t, s, "January", &year.ID)

	moved, err := s.MoveFolder(ctx, year.ID, &archive.ID)
	require.NoError(t, err)
	assert.Equal(t, "archive/2024", moved.FullPath)
	assert.Equal(t, "archive/2024/january", path(t, s, jan.ID))

	moved, err = s.MoveFolder(ctx, year.ID, nil)
	require.NoError(t, err)
	assert.True(t, moved.IsRoot())
	assert.Equal(t, "2024", moved.FullPath)
	assert.Equal(t, "2024/january", path(t, s, jan.ID))

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.FolderMoved, pub.events[0].Type)
	assert.Equal(t, year.ID, *pub.events[0].FolderID)
}

func TestMoveFolderRejectsCycles(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	a := create(t, s, "A", nil)
	b := create(t, s, "B", &a.ID)
	c := create(t, s, "C", &b.ID)

	_, err := s.MoveFolder(ctx, a.ID, &a.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.MoveFolder(ctx, a.ID, &c.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.MoveFolder(ctx, a.ID, &b.ID)
	assert.ErrorIs(t, err, ErrMoveIntoSelf)

	assert.Equal(t, "a/b/c", path(t, s, c.ID))
}

func TestMoveFolderIntoMissingParent(t *testing.T) {
	s, _, _ := setupService(t)

	a := create(t, s, "A", nil)
	_, err := s.MoveFolder(context.Background(), a.ID, ptr(int64(404)))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteFolderIsSoft(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	child := create(t, s, "Child", &docs.ID)

	require.NoError(t, s.DeleteFolder(ctx, docs.ID))

	f, err := s.Get(ctx, docs.ID)
	require.NoError(t, err)
	assert.False(t, f.IsActive)

	c, err := s.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.True(t, c.IsActive)
	assert.Equal(t, docs.ID, *c.ParentID)

	_, err = s.ResolveActive(ctx, docs.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPermanentDeleteRefusesNonEmpty(t *testing.T) {
	s, db, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	child := create(t, s, "2024", &docs.ID)
	grandchild := create(t, s, "Q1", &child.ID)
	file := domain.File{
		FolderID: &docs.ID, OriginalName: "a.txt", StoredName: "a.txt", StoragePath: "files/a.txt",
		MimeType: "text/plain", Size: 1, SHA1: "x", SHA256: "y", IsActive: true,
	}
	require.NoError(t, db.Create(&file).Error)

	err := s.PermanentDeleteFolder(ctx, docs.ID, false)
	require.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, s.PermanentDeleteFolder(ctx, docs.ID, true))

	_, err = s.Get(ctx, docs.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	c, err := s.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, c.ParentID)
	assert.Equal(t, "2024", c.FullPath)
	assert.Equal(t, "2024/q1", path(t, s, grandchild.ID))

	var reloaded domain.File
	require.NoError(t, db.First(&reloaded, file.ID).Error)
	assert.Nil(t, reloaded.FolderID)
}

func TestPermanentDeleteEmpty(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	require.NoError(t, s.PermanentDeleteFolder(ctx, docs.ID, false))

	err := s.PermanentDeleteFolder(ctx, docs.ID, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindOrCreatePathIsIdempotent(t *testing.T) {
	s, db, _ := setupService(t)
	ctx := context.Background()

	first, err := s.FindOrCreatePath(ctx, "a/b/c", nil)
	require.NoError(t, err)
	second, err := s.FindOrCreatePath(ctx, "/a//b/c/", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a/b/c", first.FullPath)

	var count int64
	require.NoError(t, db.Model(&domain.Folder{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestFindOrCreatePathReusesExistingSegments(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	leaf, err := s.FindOrCreatePath(ctx, "Docs/2024", ptr(int64(5)))
	require.NoError(t, err)

	assert.Equal(t, docs.ID, *leaf.ParentID)
	assert.Equal(t, "docs/2024", leaf.FullPath)
	assert.Equal(t, int64(5), *leaf.OwnerID)
}

func TestFindOrCreatePathRejectsRetiredSegment(t *testing.T) {
	s, _, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	require.NoError(t, s.DeleteFolder(ctx, docs.ID))

	_, err := s.FindOrCreatePath(ctx, "docs/2024", nil)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.FindOrCreatePath(ctx, " / ", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetFolderTree(t *testing.T) {
	s, db, _ := setupService(t)
	ctx := context.Background()

	media := create(t, s, "Media", nil)
	docs := create(t, s, "Docs", nil)
	year := create(t, s, "2024", &docs.ID)
	hidden := create(t, s, "Hidden", &docs.ID)
	require.NoError(t, s.DeleteFolder(ctx, hidden.ID))

	file := domain.File{
		FolderID: &year.ID, OriginalName: "report.pdf", StoredName: "r.pdf", StoragePath: "files/r.pdf",
		MimeType: "application/pdf", Size: 2048, SHA1: "s1", SHA256: "s256", IsActive: true,
	}
	require.NoError(t, db.Create(&file).Error)

	tree, err := s.GetFolderTree(ctx, nil, false)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Docs", tree[0].Name)
	assert.Equal(t, "Media", tree[1].Name)
	assert.Equal(t, media.ID, tree[1].ID)
	assert.False(t, tree[1].HasChildren)

	docsNode := tree[0]
	assert.True(t, docsNode.IsRoot)
	assert.True(t, docsNode.HasChildren)
	assert.False(t, docsNode.HasFiles)
	require.Len(t, docsNode.Children, 1)

	yearNode := docsNode.Children[0]
	assert.Equal(t, "docs/2024", yearNode.Path)
	assert.False(t, yearNode.IsRoot)
	assert.True(t, yearNode.HasFiles)
	assert.Nil(t, yearNode.Files)

	sub, err := s.GetFolderTree(ctx, &year.ID, true)
	require.NoError(t, err)
	require.Len(t, sub, 1)
	require.Len(t, sub[0].Files, 1)
	assert.Equal(t, "report.pdf", sub[0].Files[0].OriginalName)
	assert.Equal(t, "2.0 KB", sub[0].Files[0].SizeFormatted)

	_, err = s.GetFolderTree(ctx, &hidden.ID, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIsEmpty(t *testing.T) {
	s, db, _ := setupService(t)
	ctx := context.Background()

	docs := create(t, s, "Docs", nil)
	empty, err := s.IsEmpty(ctx, docs.ID)
	require.NoError(t, err)
	assert.True(t, empty)

	child := create(t, s, "Child", &docs.ID)
	empty, err = s.IsEmpty(ctx, docs.ID)
	require.NoError(t, err)
	assert.False(t, empty)

	// Inactive children do not count.
	require.NoError(t, s.DeleteFolder(ctx, child.ID))
	empty, err = s.IsEmpty(ctx, docs.ID)
	require.NoError(t, err)
	assert.True(t, empty)

	file := domain.File{
		FolderID: &docs.ID, OriginalName: "a.txt", StoredName: "a.txt", StoragePath: "files/a.txt",
		MimeType: "text/plain", Size: 1, SHA1: "x", SHA256: "y", IsActive: true,
	}
	require.NoError(t, db.Create(&file).Error)
	empty, err = s.IsEmpty(ctx, docs.ID)
	require.NoError(t, err)
	assert.False(t, empty)

	_, err = s.IsEmpty(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
