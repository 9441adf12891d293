package folder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"filer/internal/database"
	"filer/internal/domain"
	"filer/internal/events"
)

type Service struct {
	repo   *Repository
	events events.Publisher
}

func NewService(repo *Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{repo: repo, events: publisher}
}

type CreateInput struct {
	Name        string
	Description string
	ParentID    *int64
	OwnerID     *int64
	IsPublic    bool
}

// UpdateInput leaves every nil field unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
	IsActive    *bool
}

func segmentOf(name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrNameRequired
	}
	slug := Slugify(name)
	if slug == "" {
		return "", "", ErrNameNoSlug
	}
	return name, slug, nil
}

func (s *Service) CreateFolder(ctx context.Context, in CreateInput) (*domain.Folder, error) {
	name, slug, err := segmentOf(in.Name)
	if err != nil {
		return nil, err
	}

	f := &domain.Folder{
		ParentID:    in.ParentID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
		IsPublic:    in.IsPublic,
		OwnerID:     in.OwnerID,
	}

	err = s.repo.Transaction(ctx, func(tx *Repository) error {
		parentPath := ""
		if in.ParentID != nil {
			parent, err := tx.GetForShare(ctx, *in.ParentID)
			if err != nil || !parent.IsActive {
				return parentErr(err)
			}
			parentPath = parent.FullPath
		}
		f.FullPath = domain.JoinPath(parentPath, slug)

		if err := ensureFree(ctx, tx, in.ParentID, slug, 0); err != nil {
			return err
		}
		return tx.Create(ctx, f)
	})
	if err != nil {
		return nil, translate(err)
	}
	return f, nil
}

func (s *Service) UpdateFolder(ctx context.Context, id int64, in UpdateInput) (*domain.Folder, error) {
	var name, slug string
	if in.Name != nil {
		var err error
		if name, slug, err = segmentOf(*in.Name); err != nil {
			return nil, err
		}
	}

	var updated *domain.Folder
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		f, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Description != nil {
			fields["description"] = strings.TrimSpace(*in.Description)
		}
		if in.IsPublic != nil {
			fields["is_public"] = *in.IsPublic
		}
		if in.IsActive != nil {
			fields["is_active"] = *in.IsActive
		}

		renamed := in.Name != nil && slug != f.Slug
		if in.Name != nil {
			fields["name"] = name
		}
		if renamed {
			if err := ensureFree(ctx, tx, f.ParentID, slug, f.ID); err != nil {
				return err
			}
			parentPath, err := pathOfParent(ctx, tx, f.ParentID)
			if err != nil {
				return err
			}
			fields["slug"] = slug
			fields["full_path"] = domain.JoinPath(parentPath, slug)
		}

		if len(fields) > 0 {
			if err := tx.Update(ctx, id, fields); err != nil {
				return err
			}
		}
		if renamed {
			if err := recomputeSubtree(ctx, tx, id); err != nil {
				return err
			}
		}

		updated, err = tx.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// MoveFolder reparents id under newParentID, or makes it a root when nil.
// The folder and its whole subtree get new paths in one transaction.
func (s *Service) MoveFolder(ctx context.Context, id int64, newParentID *int64) (*domain.Folder, error) {
	if newParentID != nil && *newParentID == id {
		return nil, ErrMoveIntoSelf
	}

	var moved *domain.Folder
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		f, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		parentPath := ""
		if newParentID != nil {
			parent, err := tx.GetForUpdate(ctx, *newParentID)
			if err != nil || !parent.IsActive {
				return parentErr(err)
			}
			descendants, err := tx.Descendants(ctx, id, true, false)
			if err != nil {
				return err
			}
			for _, d := range descendants {
				if d.ID == *newParentID {
					return ErrMoveIntoSelf
				}
			}
			parentPath = parent.FullPath
		}

		if err := ensureFree(ctx, tx, newParentID, f.Slug, f.ID); err != nil {
			return err
		}
		if err := tx.Update(ctx, id, map[string]any{
			"parent_id": newParentID,
			"full_path": domain.JoinPath(parentPath, f.Slug),
		}); err != nil {
			return err
		}
		if err := recomputeSubtree(ctx, tx, id); err != nil {
			return err
		}

		moved, err = tx.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	log.Printf("folder_moved id=%d path=%s", moved.ID, moved.FullPath)
	s.events.Publish(ctx, events.Event{
		Type:       events.FolderMoved,
		FolderID:   &moved.ID,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"parent_id": moved.ParentID, "full_path": moved.FullPath},
	})
	return moved, nil
}

// DeleteFolder deactivates id. Children and files are left untouched.
func (s *Service) DeleteFolder(ctx context.Context, id int64) error {
	return s.repo.Transaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.Update(ctx, id, map[string]any{"is_active": false})
	})
}

// PermanentDeleteFolder removes the folder row. Without detach it refuses
// when children or files are attached; with detach children become roots
// and files become unattached.
func (s *Service) PermanentDeleteFolder(ctx context.Context, id int64, detach bool) error {
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}

		children, err := tx.ListChildren(ctx, id)
		if err != nil {
			return err
		}
		files, err := tx.CountFiles(ctx, id)
		if err != nil {
			return err
		}
		if (len(children) > 0 || files > 0) && !detach {
			return ErrNotEmpty
		}

		for _, child := range children {
			if err := ensureFree(ctx, tx, nil, child.Slug, child.ID); err != nil {
				return err
			}
			if err := tx.Update(ctx, child.ID, map[string]any{
				"parent_id": nil,
				"full_path": child.Slug,
			}); err != nil {
				return err
			}
			if err := recomputeSubtree(ctx, tx, child.ID); err != nil {
				return err
			}
		}
		if files > 0 {
			if err := tx.DetachFiles(ctx, id); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return translate(err)
	}
	log.Printf("folder_deleted id=%d detach=%t", id, detach)
	return nil
}

// FindOrCreatePath walks a "/"-delimited path from the roots, creating the
// missing segments, and returns the leaf. Calling it twice yields the same leaf.
func (s *Service) FindOrCreatePath(ctx context.Context, path string, ownerID *int64) (*domain.Folder, error) {
	type segment struct{ name, slug string }

	var segments []segment
	for _, part := range strings.Split(path, "/") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		name, slug, err := segmentOf(part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment{name: name, slug: slug})
	}
	if len(segments) == 0 {
		return nil, ErrPathRequired
	}

	walk := func() (*domain.Folder, error) {
		var leaf *domain.Folder
		err := s.repo.Transaction(ctx, func(tx *Repository) error {
			var parentID *int64
			parentPath := ""
			for _, seg := range segments {
				existing, err := tx.FindChild(ctx, parentID, seg.slug)
				if err != nil {
					return err
				}
				if existing != nil {
					if !existing.IsActive {
						return ErrSegmentRetired
					}
					leaf = existing
				} else {
					leaf = &domain.Folder{
						ParentID: parentID,
						Name:     seg.name,
						Slug:     seg.slug,
						FullPath: domain.JoinPath(parentPath, seg.slug),
						IsActive: true,
						OwnerID:  ownerID,
					}
					if err := tx.Create(ctx, leaf); err != nil {
						return err
					}
				}
				id := leaf.ID
				parentID = &id
				parentPath = leaf.FullPath
			}
			return nil
		})
		return leaf, err
	}

	leaf, err := walk()
	if err != nil && database.IsUniqueViolation(err) {
		// A concurrent caller created one of the segments first.
		leaf, err = walk()
	}
	if err != nil {
		return nil, translate(err)
	}
	return leaf, nil
}

// GetFolderTree returns the active subtree of rootID, or every active root
// and its subtree when rootID is nil.
func (s *Service) GetFolderTree(ctx context.Context, rootID *int64, includeFiles bool) ([]*TreeNode, error) {
	if rootID != nil {
		if _, err := s.ResolveActive(ctx, *rootID); err != nil {
			return nil, err
		}
	}

	folders, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	nodes, tops := buildTree(folders)

	var result []*TreeNode
	if rootID != nil {
		result = []*TreeNode{nodes[*rootID]}
	} else {
		for _, n := range tops {
			if n.IsRoot {
				result = append(result, n)
			}
		}
	}

	ids := reachable(result)
	counts, err := s.repo.ActiveFileCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	for _, id := range ids {
		nodes[id].HasFiles = counts[id] > 0
	}

	if includeFiles {
		files, err := s.repo.ActiveFiles(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		for i := range files {
			node := nodes[*files[i].FolderID]
			node.Files = append(node.Files, domain.NewFileView(&files[i]))
		}
	}

	if result == nil {
		result = []*TreeNode{}
	}
	return result, nil
}

// IsEmpty reports whether id has no active children and no attached files.
func (s *Service) IsEmpty(ctx context.Context, id int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return false, err
	}
	children, err := s.repo.CountChildren(ctx, id, true)
	if err != nil {
		return false, err
	}
	files, err := s.repo.CountFiles(ctx, id)
	if err != nil {
		return false, err
	}
	return children == 0 && files == 0, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Folder, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveActive returns id when it exists and is active.
func (s *Service) ResolveActive(ctx context.Context, id int64) (*domain.Folder, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.IsActive {
		return nil, ErrFolderNotFound
	}
	return f, nil
}

// ensureFree fails when another folder under parentID already uses slug.
func ensureFree(ctx context.Context, tx *Repository, parentID *int64, slug string, selfID int64) error {
	other, err := tx.FindChild(ctx, parentID, slug)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return ErrNameTaken
	}
	return nil
}

func pathOfParent(ctx context.Context, tx *Repository, parentID *int64) (string, error) {
	if parentID == nil {
		return "", nil
	}
	parent, err := tx.GetByID(ctx, *parentID)
	if err != nil {
		return "", err
	}
	return parent.FullPath, nil
}

// recomputeSubtree rewrites full_path of every descendant of rootID from the
// root's stored path. Descendants come breadth-first, so a parent's new path
// is always known before its children are visited.
func recomputeSubtree(ctx context.Context, tx *Repository, rootID int64) error {
	root, err := tx.GetByID(ctx, rootID)
	if err != nil {
		return err
	}
	descendants, err := tx.Descendants(ctx, rootID, true, false)
	if err != nil {
		return err
	}

	paths := map[int64]string{rootID: root.FullPath}
	for _, d := range descendants {
		path := domain.JoinPath(paths[*d.ParentID], d.Slug)
		paths[d.ID] = path
		if path == d.FullPath {
			continue
		}
		if err := tx.Update(ctx, d.ID, map[string]any{"full_path": path}); err != nil {
			return err
		}
	}
	return nil
}

func reachable(tops []*TreeNode) []int64 {
	var ids []int64
	stack := append([]*TreeNode(nil), tops...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, n.ID)
		stack = append(stack, n.Children...)
	}
	return ids
}

func parentErr(err error) error {
	if err == nil || errors.Is(err, ErrFolderNotFound) {
		return ErrParentNotFound
	}
	return err
}

func translate(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}
