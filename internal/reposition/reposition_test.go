package reposition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func intp(v int) *int { return &v }

func testTree(t *testing.T) *structure.Tree {
	t.Helper()
	tree, err := structure.FromNested([]structure.NestedNode{
		{Node: structure.Node{Type: structure.TypePage, Path: "content/home.md", Title: "Home", NavOrder: intp(0)}},
		{Node: structure.Node{Type: structure.TypePage, Path: "content/about.md", Title: "About", NavOrder: intp(1)}},
		{
			Node: structure.Node{Type: structure.TypePage, Path: "content/docs.md", Title: "Docs", NavOrder: intp(2)},
			Children: []structure.NestedNode{
				{Node: structure.Node{Type: structure.TypePage, Path: "content/docs/install.md", Title: "Install", NavOrder: intp(0)}},
				{Node: structure.Node{Type: structure.TypePage, Path: "content/docs/usage.md", Title: "Usage", NavOrder: intp(1)}},
			},
		},
		{Node: structure.Node{Type: structure.TypePage, Path: "content/contact.md", Title: "Contact", NavOrder: intp(3)}},
	})
	require.NoError(t, err)
	return tree
}

func TestProjectMove_SameDepthReorder(t *testing.T) {
	tree := testTree(t)

	p := ProjectMove(tree.Flatten(), "content/contact.md", "content/about.md", 0)
	require.NotNil(t, p)
	require.Equal(t, 0, p.Depth)
	require.Equal(t, "", p.Parent)
	require.Equal(t, 1, p.Index)
}

func TestProjectMove_IndentNestsUnderPrecedingItem(t *testing.T) {
	tree := testTree(t)

	// hovering over itself while dragging right one indent unit nests
	// contact under docs' subtree tail
	p := ProjectMove(tree.Flatten(), "content/contact.md", "content/contact.md", IndentWidth)
	require.NotNil(t, p)
	require.Equal(t, 1, p.Depth)
	require.Equal(t, "content/docs.md", p.Parent)
	require.Equal(t, 2, p.Index)
}

func TestProjectMove_DepthClampedToAbsoluteMax(t *testing.T) {
	tree := testTree(t)

	// a huge offset cannot exceed previous-sibling depth + 1, nor the
	// absolute nesting limit
	p := ProjectMove(tree.Flatten(), "content/contact.md", "content/contact.md", 10*IndentWidth)
	require.NotNil(t, p)
	require.LessOrEqual(t, p.Depth, MaxNestingDepth)
	require.Equal(t, 2, p.Depth)
	require.Equal(t, "content/docs/usage.md", p.Parent)
}

func TestProjectMove_HomepageNotDraggable(t *testing.T) {
	tree := testTree(t)
	require.Nil(t, ProjectMove(tree.Flatten(), "content/home.md", "content/about.md", 0))
}

func TestProjectMove_DropOverHomepage_LandsBelowIt(t *testing.T) {
	tree := testTree(t)

	// hovering another page over the homepage must not project a slot
	// ahead of it
	p := ProjectMove(tree.Flatten(), "content/about.md", "content/home.md", 0)
	require.NotNil(t, p)
	require.Equal(t, "", p.Parent)
	require.GreaterOrEqual(t, p.Index, 1)

	nt := ApplyMove(tree, "content/about.md", p.Parent, p.Index)
	home, ok := nt.Homepage()
	require.True(t, ok)
	require.Equal(t, "content/home.md", home.Path)
}

func TestApplyMove_RootIndexZero_KeepsHomepageFirst(t *testing.T) {
	tree := testTree(t)

	nt := ApplyMove(tree, "content/contact.md", "", 0)
	home, ok := nt.Homepage()
	require.True(t, ok)
	require.Equal(t, "content/home.md", home.Path)
	require.Equal(t, "content/contact.md", nt.Roots()[1].Path)
}

func TestProjectMove_UnknownIDs_NoOp(t *testing.T) {
	tree := testTree(t)
	require.Nil(t, ProjectMove(tree.Flatten(), "content/nope.md", "content/about.md", 0))
	require.Nil(t, ProjectMove(tree.Flatten(), "content/about.md", "content/nope.md", 0))
}

func TestProjectMove_IntoOwnSubtree_NoOp(t *testing.T) {
	tree := testTree(t)

	// dropping docs onto its own child with an indent would parent it to
	// its descendant
	p := ProjectMove(tree.Flatten(), "content/docs.md", "content/docs/usage.md", IndentWidth)
	if p != nil {
		require.NotEqual(t, "content/docs.md", p.Parent)
		require.NotEqual(t, "content/docs/install.md", p.Parent)
		require.NotEqual(t, "content/docs/usage.md", p.Parent)
	}
}

func TestApplyMove_Reparents(t *testing.T) {
	tree := testTree(t)

	nt := ApplyMove(tree, "content/about.md", "content/docs.md", 0)
	require.Equal(t, "content/docs.md", nt.Parent("content/about.md"))
	require.ElementsMatch(t, tree.Paths(), nt.Paths())
}

func TestApplyMove_RootAppend(t *testing.T) {
	tree := testTree(t)

	nt := ApplyMove(tree, "content/docs/usage.md", "", -1)
	roots := nt.Roots()
	require.Equal(t, "content/docs/usage.md", roots[len(roots)-1].Path)
}

func TestApplyMove_CycleAbsorbedAsNoOp(t *testing.T) {
	tree := testTree(t)

	nt := ApplyMove(tree, "content/docs.md", "content/docs/install.md", 0)
	require.Same(t, tree, nt)
}

func TestApplyMove_HomepagePinned(t *testing.T) {
	tree := testTree(t)

	nt := ApplyMove(tree, "content/home.md", "content/docs.md", 0)
	require.Same(t, tree, nt)
}

func TestApplyMove_MissingNode_NoOp(t *testing.T) {
	tree := testTree(t)
	require.Same(t, tree, ApplyMove(tree, "content/ghost.md", "", -1))
}

func TestApplyMove_NavOrderContiguous(t *testing.T) {
	tree := testTree(t)

	nt := ApplyMove(tree, "content/contact.md", "content/docs.md", 1)

	want := 0
	for _, n := range nt.Children("content/docs.md") {
		require.NotNil(t, n.NavOrder)
		require.Equal(t, want, *n.NavOrder)
		want++
	}
	want = 0
	for _, n := range nt.Roots() {
		if n.NavOrder == nil {
			continue
		}
		require.Equal(t, want, *n.NavOrder)
		want++
	}
}
