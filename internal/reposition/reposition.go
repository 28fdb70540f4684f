// Package reposition computes the effect of drag-and-drop gestures on the
// structure tree: a projection of the candidate depth/parent/index while the
// drag is in flight, and the committed move once the node is dropped.
//
// Invalid gestures (unknown ids, dragging the homepage, creating a cycle)
// are absorbed as no-ops; they stem from transient drag state, not real
// commands, so the editor simply reverts.
package reposition

import (
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// MaxNestingDepth is the absolute nesting limit: two levels below the top
// level. A fixed product constraint, independent of what neighbors allow.
const MaxNestingDepth = 2

// IndentWidth is the horizontal pixel distance representing one depth step
// in the editor's tree widget.
const IndentWidth = 24

// Projection is the candidate placement for the dragged node before the
// move is committed.
type Projection struct {
	Depth  int
	Parent string // "" means top level
	Index  int    // insertion index among the new parent's children
}

// ProjectMove simulates moving activeID to the position currently hovered
// (overID) with the pointer displaced offsetX pixels horizontally, and
// returns the projected depth/parent/index. It returns nil when the gesture
// is invalid: unknown ids, dragging the designated homepage, or a placement
// that would make the node its own ancestor.
func ProjectMove(flat []structure.FlatNode, activeID, overID string, offsetX int) *Projection {
	activeIdx, overIdx := -1, -1
	for i, fn := range flat {
		if fn.Path == activeID {
			activeIdx = i
		}
		if fn.Path == overID {
			overIdx = i
		}
	}
	if activeIdx < 0 || overIdx < 0 {
		return nil
	}
	// The homepage is pinned outside the sortable sequence.
	if len(flat) > 0 && flat[0].Path == activeID && flat[0].Depth == 0 {
		return nil
	}

	active := flat[activeIdx]

	// Candidate linear order: active removed and reinserted at the hovered
	// index, its subtree travelling with it implicitly (descendants are
	// skipped when deriving neighbors).
	subtree := map[string]struct{}{activeID: {}}
	collectFlatDescendants(flat, activeIdx, subtree)

	var candidate []structure.FlatNode
	for i, fn := range flat {
		if _, inSub := subtree[fn.Path]; inSub && i != activeIdx {
			continue
		}
		candidate = append(candidate, fn)
	}
	// position of active within candidate after the simulated remove/insert
	candidate = moveEntry(candidate, indexOf(candidate, activeID), clampedOverIndex(candidate, overIdx, overID))

	pos := indexOf(candidate, activeID)
	projected := active.Depth + offsetX/IndentWidth

	maxDepth := 0
	if pos > 0 {
		maxDepth = candidate[pos-1].Depth + 1
	}
	if maxDepth > MaxNestingDepth {
		maxDepth = MaxNestingDepth
	}
	minDepth := 0
	if pos+1 < len(candidate) {
		minDepth = candidate[pos+1].Depth
	}

	depth := projected
	if depth > maxDepth {
		depth = maxDepth
	}
	if depth < minDepth {
		depth = minDepth
	}

	parent := deriveParent(candidate, pos, depth)
	if parent == activeID {
		return nil
	}
	if _, inSub := subtree[parent]; inSub {
		return nil
	}

	index := siblingIndex(candidate, pos, parent, depth)
	// A top-level drop can hover above the pinned homepage; the homepage
	// stays first, so the candidate lands right below it.
	if parent == "" && index == 0 && flat[0].Depth == 0 {
		index = 1
	}
	return &Projection{Depth: depth, Parent: parent, Index: index}
}

// ApplyMove commits a move: activeID becomes the child of parentPath ("" for
// the root container, appended as the last top-level sibling when index is
// negative) at the given index. Invalid moves return the input tree
// unchanged.
func ApplyMove(tree *structure.Tree, activeID, parentPath string, index int) *structure.Tree {
	if home, ok := tree.Homepage(); ok {
		if home.Path == activeID {
			return tree
		}
		if parentPath == "" && index == 0 {
			index = 1
		}
	}
	nt, err := tree.Move(activeID, parentPath, index)
	if err != nil {
		return tree
	}
	return nt
}

// deriveParent walks the candidate order to find the parent implied by the
// clamped depth: same depth as the preceding item shares its parent, one
// deeper makes the preceding item the parent, shallower walks back to the
// nearest ancestor at depth-1.
func deriveParent(candidate []structure.FlatNode, pos, depth int) string {
	if depth == 0 || pos == 0 {
		return ""
	}
	prev := candidate[pos-1]
	switch {
	case depth == prev.Depth:
		return prev.Parent
	case depth > prev.Depth:
		return prev.Path
	default:
		for i := pos - 1; i >= 0; i-- {
			if candidate[i].Depth == depth {
				return candidate[i].Parent
			}
			if candidate[i].Depth < depth {
				break
			}
		}
		return ""
	}
}

// siblingIndex counts prior candidate entries that will be siblings under
// the derived parent, yielding the insertion index.
func siblingIndex(candidate []structure.FlatNode, pos int, parent string, depth int) int {
	index := 0
	for i := 0; i < pos; i++ {
		if candidate[i].Parent == parent && candidate[i].Depth == depth {
			index++
		}
	}
	return index
}

func collectFlatDescendants(flat []structure.FlatNode, idx int, out map[string]struct{}) {
	depth := flat[idx].Depth
	for i := idx + 1; i < len(flat); i++ {
		if flat[i].Depth <= depth {
			break
		}
		out[flat[i].Path] = struct{}{}
	}
}

func indexOf(flat []structure.FlatNode, path string) int {
	for i, fn := range flat {
		if fn.Path == path {
			return i
		}
	}
	return -1
}

func clampedOverIndex(candidate []structure.FlatNode, overIdx int, overID string) int {
	if i := indexOf(candidate, overID); i >= 0 {
		return i
	}
	if overIdx >= len(candidate) {
		return len(candidate) - 1
	}
	return overIdx
}

func moveEntry(flat []structure.FlatNode, from, to int) []structure.FlatNode {
	if from < 0 || to < 0 || from == to {
		return flat
	}
	entry := flat[from]
	out := append(flat[:from:from], flat[from+1:]...)
	if to > len(out) {
		to = len(out)
	}
	out = append(out, structure.FlatNode{})
	copy(out[to+1:], out[to:])
	out[to] = entry
	return out
}
