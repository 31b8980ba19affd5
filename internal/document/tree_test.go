package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

func TestBuildTree_NestsChildren(t *testing.T) {
	tree := BuildTree([]*models.Category{
		{ID: "root", Name: "Root"},
		{ID: "child", Name: "Child", ParentID: "root"},
		{ID: "grandchild", Name: "Grandchild", ParentID: "child"},
	})

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "grandchild", tree[0].Children[0].Children[0].ID)
}

func TestBuildTree_SiblingOrderIsDeterministic(t *testing.T) {
	categories := []*models.Category{
		{ID: "c", Name: "zebra", SortOrder: 1},
		{ID: "a", Name: "Apple", SortOrder: 2},
		{ID: "b", Name: "apple pie", SortOrder: 2},
		{ID: "d", Name: "Banana", SortOrder: 0},
	}

	tree := BuildTree(categories)
	require.Len(t, tree, 4)

	// SortOrder ascending, names break ties case-insensitively.
	assert.Equal(t, "d", tree[0].ID)
	assert.Equal(t, "c", tree[1].ID)
	assert.Equal(t, "a", tree[2].ID)
	assert.Equal(t, "b", tree[3].ID)
}

func TestBuildTree_DanglingParentBecomesRoot(t *testing.T) {
	tree := BuildTree([]*models.Category{
		{ID: "root", Name: "Root"},
		{ID: "orphan", Name: "Orphan", ParentID: "deleted"},
	})

	require.Len(t, tree, 2)
	ids := []string{tree[0].ID, tree[1].ID}
	assert.Contains(t, ids, "orphan")
}

func TestBuildTree_DoesNotMutateInput(t *testing.T) {
	categories := []*models.Category{
		{ID: "b", Name: "B", SortOrder: 2},
		{ID: "a", Name: "A", SortOrder: 1},
	}

	BuildTree(categories)

	assert.Equal(t, "b", categories[0].ID)
	assert.Equal(t, "a", categories[1].ID)
}

func TestBuildTree_SurvivesCyclicInput(t *testing.T) {
	// The normalizer should have broken this, but the builder must not loop.
	tree := BuildTree([]*models.Category{
		{ID: "root", Name: "Root"},
		{ID: "a", Name: "A", ParentID: "b"},
		{ID: "b", Name: "B", ParentID: "a"},
	})

	require.Len(t, tree, 1)
	assert.Equal(t, "root", tree[0].ID)
}
