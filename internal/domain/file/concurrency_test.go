package file

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filer/internal/domain"
	"filer/internal/domain/folder"
)

func TestConcurrentIngestIntoOneFolder(t *testing.T) {
	fx := newFixture(t, Options{}, textRule(100))
	ctx := context.Background()

	docs, err := fx.folders.CreateFolder(ctx, folderInput("Docs"))
	require.NoError(t, err)

	const uploads = 20
	var wg sync.WaitGroup
	ids := make(chan int64, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, r := upload(fmt.Sprintf("part-%02d.txt", i), "text/plain", []byte(fmt.Sprintf("body %d", i)))
			res, err := fx.pipeline.Ingest(ctx, d, r, InFolder(docs.ID), domain.AudienceAnonymous, nil)
			if assert.NoError(t, err) {
				ids <- res.File.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, uploads)

	var attached int64
	require.NoError(t, fx.db.Model(&domain.File{}).Where("folder_id = ?", docs.ID).Count(&attached).Error)
	assert.Equal(t, int64(uploads), attached)
	assert.Len(t, blobFiles(t, fx.dir), uploads)

	tree, err := fx.folders.GetFolderTree(ctx, &docs.ID, true)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Files, uploads)
}

func TestIngestWhileAncestorIsRenamed(t *testing.T) {
	fx := newFixture(t, Options{}, textRule(100))
	ctx := context.Background()

	leaf, err := fx.folders.FindOrCreatePath(ctx, "docs/2024/q1", nil)
	require.NoError(t, err)
	year, err := fx.folders.Get(ctx, *leaf.ParentID)
	require.NoError(t, err)
	rootID := *year.ParentID

	const uploads = 10
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		names := []string{"Documents", "Docs"}
		for i := 0; i < uploads; i++ {
			name := names[i%2]
			_, err := fx.folders.UpdateFolder(ctx, rootID, folder.UpdateInput{Name: &name})
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, r := upload(fmt.Sprintf("q1-%02d.txt", i), "text/plain", []byte(fmt.Sprintf("quarter %d", i)))
			_, err := fx.pipeline.Ingest(ctx, d, r, InFolder(leaf.ID), domain.AudienceAnonymous, nil)
			assert.NoError(t, err)

			tree, err := fx.folders.GetFolderTree(ctx, nil, false)
			if assert.NoError(t, err) && assert.Len(t, tree, 1) {
				top := tree[0]
				assert.Contains(t, []string{"docs", "documents"}, top.Path)
				for _, y := range top.Children {
					assert.Equal(t, top.Path+"/2024", y.Path)
					for _, q := range y.Children {
						assert.Equal(t, y.Path+"/q1", q.Path)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	var attached int64
	require.NoError(t, fx.db.Model(&domain.File{}).Where("folder_id = ?", leaf.ID).Count(&attached).Error)
	assert.Equal(t, int64(uploads), attached)

	final, err := fx.folders.Get(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, "docs/2024/q1", final.FullPath)
}
