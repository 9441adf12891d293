package file

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"filer/internal/domain"
)

// Digest is the content identity of a file.
type Digest struct {
	SHA1   string
	SHA256 string
}

// Hasher computes both digests in one pass over the bytes written to it.
type Hasher struct {
	sha1   hash.Hash
	sha256 hash.Hash
	w      io.Writer
}

func NewHasher() *Hasher {
	h := &Hasher{sha1: sha1.New(), sha256: sha256.New()}
	h.w = io.MultiWriter(h.sha1, h.sha256)
	return h
}

func (h *Hasher) Write(p []byte) (int, error) {
	return h.w.Write(p)
}

func (h *Hasher) Digest() Digest {
	return Digest{
		SHA1:   hex.EncodeToString(h.sha1.Sum(nil)),
		SHA256: hex.EncodeToString(h.sha256.Sum(nil)),
	}
}

type Deduper struct {
	repo Repository
}

func NewDeduper(repo Repository) *Deduper {
	return &Deduper{repo: repo}
}

// Hash streams r through both hash functions.
func (d *Deduper) Hash(r io.Reader) (Digest, error) {
	h := NewHasher()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, fmt.Errorf("hash content: %w", err)
	}
	return h.Digest(), nil
}

// FindDuplicates returns active files whose content matches digest.
func (d *Deduper) FindDuplicates(ctx context.Context, digest Digest) ([]domain.File, error) {
	files, err := d.repo.FindBySHA1(ctx, digest.SHA1)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	matched := files[:0]
	for _, f := range files {
		if f.SHA256 == "" || f.SHA256 == digest.SHA256 {
			matched = append(matched, f)
		}
	}
	return matched, nil
}
