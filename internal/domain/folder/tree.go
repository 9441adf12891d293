package folder

import (
	"sort"

	"filer/internal/domain"
)

// TreeNode is one folder of the tree response. Children are ordered by name.
type TreeNode struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Path        string            `json:"path"`
	IsPublic    bool              `json:"isPublic"`
	IsRoot      bool              `json:"isRoot"`
	HasChildren bool              `json:"hasChildren"`
	HasFiles    bool              `json:"hasFiles"`
	Children    []*TreeNode       `json:"children"`
	Files       []domain.FileView `json:"files,omitempty"`
}

func newTreeNode(f *domain.Folder) *TreeNode {
	return &TreeNode{
		ID:       f.ID,
		Name:     f.Name,
		Path:     f.FullPath,
		IsPublic: f.IsPublic,
		IsRoot:   f.IsRoot(),
		Children: []*TreeNode{},
	}
}

// buildTree links folders into nodes without recursion. Folders whose parent
// is missing from the set are returned as tops.
func buildTree(folders []domain.Folder) (map[int64]*TreeNode, []*TreeNode) {
	nodes := make(map[int64]*TreeNode, len(folders))
	for i := range folders {
		nodes[folders[i].ID] = newTreeNode(&folders[i])
	}

	var tops []*TreeNode
	for i := range folders {
		f := &folders[i]
		node := nodes[f.ID]
		if f.ParentID != nil {
			if parent, ok := nodes[*f.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				parent.HasChildren = true
				continue
			}
		}
		tops = append(tops, node)
	}

	for _, n := range nodes {
		sortNodes(n.Children)
	}
	sortNodes(tops)
	return nodes, tops
}

func sortNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}
