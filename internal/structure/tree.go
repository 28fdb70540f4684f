// Package structure holds the site's navigable page/collection hierarchy.
//
// The tree is stored as an arena of nodes indexed by content path, with
// parent/child relations kept as path references. Mutating operations never
// touch a tree in place; they return a new tree so previously held
// references stay valid.
package structure

import (
	"sort"

	"git.home.luguber.info/inful/pagesmith/internal/errors"
)

// NodeType distinguishes ordinary pages from collection pages.
type NodeType string

const (
	TypePage       NodeType = "page"
	TypeCollection NodeType = "collection"
)

// Node is one entry in the hierarchy. Path doubles as the node's identity
// and equals the backing content file's path (content/blog/post-1.md).
type Node struct {
	Type      NodeType `json:"type" yaml:"type"`
	Path      string   `json:"path" yaml:"path"`
	Title     string   `json:"title" yaml:"title"`
	MenuTitle string   `json:"menuTitle,omitempty" yaml:"menuTitle,omitempty"`
	NavOrder  *int     `json:"navOrder,omitempty" yaml:"navOrder,omitempty"`
	Layout    string   `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// InNav reports whether the node participates in navigation.
func (n Node) InNav() bool { return n.NavOrder != nil }

// Label returns the navigation label: menuTitle when set, else title.
func (n Node) Label() string {
	if n.MenuTitle != "" {
		return n.MenuTitle
	}
	return n.Title
}

// NestedNode is the nested wire shape of a subtree, used by manifests and
// by the store's serialized form. An empty Children slice and an absent one
// both mean "no children".
type NestedNode struct {
	Node     `yaml:",inline"`
	Children []NestedNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// FlatNode is one entry of the depth-annotated linear form consumed by the
// repositioning engine and the editor's tree widget.
type FlatNode struct {
	Node
	Depth  int
	Parent string // parent path, "" for top level
}

// Tree is the immutable arena. The zero value is not usable; construct via
// New or FromNested.
type Tree struct {
	nodes    map[string]Node
	children map[string][]string // parent path ("" = root) -> ordered child paths
	parent   map[string]string
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{
		nodes:    map[string]Node{},
		children: map[string][]string{},
		parent:   map[string]string{},
	}
}

// FromNested builds a tree from the nested wire shape. Sibling order is
// normalized ascending by navOrder with ties kept in input order; nodes
// without navOrder sort after ordered siblings. Duplicate paths are a
// validation error.
func FromNested(roots []NestedNode) (*Tree, error) {
	t := New()
	if err := t.addNested("", roots); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) addNested(parent string, nested []NestedNode) error {
	ordered := append([]NestedNode(nil), nested...)
	sortSiblings(ordered)

	for _, nn := range ordered {
		if nn.Path == "" {
			return errors.ValidationError("structure node without a path")
		}
		if _, exists := t.nodes[nn.Path]; exists {
			return errors.ValidationError("duplicate structure node path").
				WithContext("path", nn.Path)
		}
		t.nodes[nn.Path] = nn.Node
		t.children[parent] = append(t.children[parent], nn.Path)
		if parent != "" {
			t.parent[nn.Path] = parent
		}
		if err := t.addNested(nn.Path, nn.Children); err != nil {
			return err
		}
	}
	return nil
}

func sortSiblings(siblings []NestedNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		a, b := siblings[i].NavOrder, siblings[j].NavOrder
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// ToNested converts the tree back to the nested wire shape, preserving
// sibling order.
func (t *Tree) ToNested() []NestedNode {
	return t.nested("")
}

func (t *Tree) nested(parent string) []NestedNode {
	var out []NestedNode
	for _, path := range t.children[parent] {
		out = append(out, NestedNode{Node: t.nodes[path], Children: t.nested(path)})
	}
	return out
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Find returns the node with the given path.
func (t *Tree) Find(path string) (Node, bool) {
	n, ok := t.nodes[path]
	return n, ok
}

// Parent returns the parent path of a node; "" means top level.
func (t *Tree) Parent(path string) string { return t.parent[path] }

// Children returns the ordered children of a path; "" yields the roots.
func (t *Tree) Children(path string) []Node {
	out := make([]Node, 0, len(t.children[path]))
	for _, p := range t.children[path] {
		out = append(out, t.nodes[p])
	}
	return out
}

// Roots returns the ordered top-level nodes.
func (t *Tree) Roots() []Node { return t.Children("") }

// Homepage returns the designated homepage node: index 0 of the root
// sequence. ok is false on an empty tree.
func (t *Tree) Homepage() (Node, bool) {
	roots := t.children[""]
	if len(roots) == 0 {
		return Node{}, false
	}
	return t.nodes[roots[0]], true
}

// Flatten returns the depth-annotated linear sequence in visual order.
func (t *Tree) Flatten() []FlatNode {
	var out []FlatNode
	t.flatten("", 0, &out)
	return out
}

func (t *Tree) flatten(parent string, depth int, out *[]FlatNode) {
	for _, path := range t.children[parent] {
		*out = append(*out, FlatNode{Node: t.nodes[path], Depth: depth, Parent: parent})
		t.flatten(path, depth+1, out)
	}
}

// Paths returns the set of all node paths.
func (t *Tree) Paths() []string {
	out := make([]string, 0, len(t.nodes))
	for _, fn := range t.Flatten() {
		out = append(out, fn.Path)
	}
	return out
}

// DescendantPaths returns the set of all descendant paths of a node,
// excluding the node itself. Used for illegal-drop prevention.
func (t *Tree) DescendantPaths(path string) map[string]struct{} {
	out := map[string]struct{}{}
	t.collectDescendants(path, out)
	return out
}

func (t *Tree) collectDescendants(path string, out map[string]struct{}) {
	for _, child := range t.children[path] {
		out[child] = struct{}{}
		t.collectDescendants(child, out)
	}
}

// clone copies the arena so a mutation never affects previously held trees.
func (t *Tree) clone() *Tree {
	nt := &Tree{
		nodes:    make(map[string]Node, len(t.nodes)),
		children: make(map[string][]string, len(t.children)),
		parent:   make(map[string]string, len(t.parent)),
	}
	for k, v := range t.nodes {
		nt.nodes[k] = v
	}
	for k, v := range t.children {
		nt.children[k] = append([]string(nil), v...)
	}
	for k, v := range t.parent {
		nt.parent[k] = v
	}
	return nt
}

// Insert returns a new tree with the node added under parentPath ("" for top
// level) at the given index; a negative index appends. Without an explicit
// position the node's navOrder becomes max sibling order + 1.
func (t *Tree) Insert(node Node, parentPath string, index int) (*Tree, error) {
	if node.Path == "" {
		return nil, errors.ValidationError("structure node without a path")
	}
	if _, exists := t.nodes[node.Path]; exists {
		return nil, errors.ValidationError("duplicate structure node path").
			WithContext("path", node.Path)
	}
	if parentPath != "" {
		if _, ok := t.nodes[parentPath]; !ok {
			return nil, errors.ValidationError("insert under unknown parent").
				WithContext("parent", parentPath)
		}
	}

	nt := t.clone()
	siblings := nt.children[parentPath]
	if index < 0 || index > len(siblings) {
		index = len(siblings)
		if node.NavOrder == nil {
			next := nt.maxNavOrder(parentPath) + 1
			node.NavOrder = &next
		}
	} else if node.NavOrder == nil {
		// explicit position implies nav participation; renumber below
		// settles the final contiguous value
		node.NavOrder = &index
	}
	siblings = append(siblings, "")
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = node.Path
	nt.children[parentPath] = siblings
	nt.nodes[node.Path] = node
	if parentPath != "" {
		nt.parent[node.Path] = parentPath
	}
	nt.renumber(parentPath)
	return nt, nil
}

func (t *Tree) maxNavOrder(parentPath string) int {
	max := -1
	for _, p := range t.children[parentPath] {
		if no := t.nodes[p].NavOrder; no != nil && *no > max {
			max = *no
		}
	}
	return max
}

// Remove returns a new tree with the node and its entire subtree removed.
// Deletion cascades: descendants are deleted with the node, never orphaned.
func (t *Tree) Remove(path string) (*Tree, error) {
	if _, ok := t.nodes[path]; !ok {
		return nil, errors.ValidationError("remove of unknown node").
			WithContext("path", path)
	}

	nt := t.clone()
	doomed := nt.DescendantPaths(path)
	doomed[path] = struct{}{}

	parent := nt.parent[path]
	nt.children[parent] = removePath(nt.children[parent], path)
	for p := range doomed {
		delete(nt.nodes, p)
		delete(nt.children, p)
		delete(nt.parent, p)
	}
	nt.renumber(parent)
	return nt, nil
}

// Move returns a new tree with the node (and its subtree) reparented under
// newParent ("" for top level) at the given index; a negative index appends.
// Moving a node under itself or one of its descendants is a validation
// error; callers that must absorb it silently do so at the engine level.
func (t *Tree) Move(path, newParent string, index int) (*Tree, error) {
	if _, ok := t.nodes[path]; !ok {
		return nil, errors.ValidationError("move of unknown node").
			WithContext("path", path)
	}
	if newParent != "" {
		if _, ok := t.nodes[newParent]; !ok {
			return nil, errors.ValidationError("move under unknown parent").
				WithContext("parent", newParent)
		}
		if newParent == path {
			return nil, errors.ValidationError("node cannot become its own parent")
		}
		if _, isDesc := t.DescendantPaths(path)[newParent]; isDesc {
			return nil, errors.ValidationError("node cannot become its own ancestor").
				WithContext("path", path).WithContext("parent", newParent)
		}
	}

	nt := t.clone()
	oldParent := nt.parent[path]
	nt.children[oldParent] = removePath(nt.children[oldParent], path)

	siblings := nt.children[newParent]
	if index < 0 || index > len(siblings) {
		index = len(siblings)
	}
	siblings = append(siblings, "")
	copy(siblings[index+1:], siblings[index:])
	siblings[index] = path
	nt.children[newParent] = siblings

	if newParent == "" {
		delete(nt.parent, path)
	} else {
		nt.parent[path] = newParent
	}

	nt.renumber(oldParent)
	if oldParent != newParent {
		nt.renumber(newParent)
	}
	return nt, nil
}

// renumber rewrites navOrder for the ordered siblings of a parent as
// contiguous ascending integers starting at 0. Nodes that never had a
// navOrder stay outside navigation and keep none.
func (t *Tree) renumber(parentPath string) {
	next := 0
	for _, p := range t.children[parentPath] {
		n := t.nodes[p]
		if n.NavOrder == nil {
			continue
		}
		v := next
		n.NavOrder = &v
		t.nodes[p] = n
		next++
	}
}

func removePath(paths []string, path string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}
