package gallery

import (
	"strconv"
	"strings"
)

type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeImages
	ScopeDocuments
	ScopeVideos
	ScopeRecent
	ScopeFolder
)

// FolderScope is either a virtual collection or one concrete folder.
type FolderScope struct {
	Kind     ScopeKind
	FolderID int64
}

func All() FolderScope { return FolderScope{Kind: ScopeAll} }

func ByID(id int64) FolderScope { return FolderScope{Kind: ScopeFolder, FolderID: id} }

// ParseScope resolves the "folder" query value. Unknown values mean all files.
func ParseScope(raw string) FolderScope {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "images":
		return FolderScope{Kind: ScopeImages}
	case "documents":
		return FolderScope{Kind: ScopeDocuments}
	case "videos":
		return FolderScope{Kind: ScopeVideos}
	case "recent":
		return FolderScope{Kind: ScopeRecent}
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
		return ByID(id)
	}
	return All()
}

func (s FolderScope) String() string {
	switch s.Kind {
	case ScopeImages:
		return "images"
	case ScopeDocuments:
		return "documents"
	case ScopeVideos:
		return "videos"
	case ScopeRecent:
		return "recent"
	case ScopeFolder:
		return strconv.FormatInt(s.FolderID, 10)
	default:
		return "all"
	}
}

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// ParsePage returns a 1-indexed page, falling back to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParsePageSize falls back to def on bad input and caps at MaxPageSize.
func ParsePageSize(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
