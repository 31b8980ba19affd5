package document

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// TreeNode is one validated node of the category forest handed to UI
// consumers.
type TreeNode struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Collapsed bool        `json:"collapsed"`
	SortOrder float64     `json:"sortOrder"`
	ParentID  string      `json:"parentId,omitempty"`
	Children  []*TreeNode `json:"children"`
}

// BuildTree turns the flat category list into a forest. A node is a root
// when its parent is unset or does not resolve within the list; the
// normalizer should have guaranteed that already, but the builder does not
// trust it and never loops on a cyclic input. The input is not mutated, and
// sibling order is deterministic: SortOrder ascending, ties broken by
// locale-aware case-insensitive name comparison.
func BuildTree(categories []*models.Category) []*TreeNode {
	byID := make(map[string]*models.Category, len(categories))
	for _, category := range categories {
		if category != nil {
			byID[category.ID] = category
		}
	}

	children := make(map[string][]*models.Category, len(categories))
	var roots []*models.Category
	for _, category := range categories {
		if category == nil {
			continue
		}
		parent, ok := byID[category.ParentID]
		if category.ParentID == "" || !ok || parent == category {
			roots = append(roots, category)
			continue
		}
		children[category.ParentID] = append(children[category.ParentID], category)
	}

	collator := collate.New(language.Und, collate.IgnoreCase)
	visited := make(map[string]bool, len(categories))
	return buildNodes(roots, children, collator, visited)
}

func buildNodes(categories []*models.Category, children map[string][]*models.Category, collator *collate.Collator, visited map[string]bool) []*TreeNode {
	sorted := append([]*models.Category(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return collator.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	nodes := make([]*TreeNode, 0, len(sorted))
	for _, category := range sorted {
		if visited[category.ID] {
			continue
		}
		visited[category.ID] = true
		nodes = append(nodes, &TreeNode{
			ID:        category.ID,
			Name:      category.Name,
			Collapsed: category.Collapsed,
			SortOrder: category.SortOrder,
			ParentID:  category.ParentID,
			Children:  buildNodes(children[category.ID], children, collator, visited),
		})
	}
	return nodes
}
