// Package search implements the binary search (and exhaustive range scan)
// over decimation levels, and the minimum-passing-level report computed
// from a completed search's results. See spec.md section 4.F.
package search

import (
	"fmt"

	"github.com/teronlabs/decimate/internal/decimate"
	"github.com/teronlabs/decimate/internal/store"
)

// Node is one slot of the binary decision tree, indexed by its own Value.
// Left is the next value to try on a failing level (larger decimation,
// easier to pass); Right is the next value to try on a passing level
// (smaller decimation, harder to pass).
type Node struct {
	Value  int
	MyMin  int
	MyMax  int
	Left   int
	Right  int
	Tested bool
	NoData bool
	Record store.Record
}

// IsLeaf reports whether v has neither a left nor a right child.
func (n Node) IsLeaf() bool {
	return n.Left == n.Value && n.Right == n.Value
}

// Tree is an arena of Nodes sized maxV+1 and indexed by scaled decimation
// level v. Slots below minV are unused zero values.
type Tree []Node

// BuildTree constructs the tree over v in [minV, maxV], rooted at maxV,
// following spec.md section 4.F's right/left formulas as an arena instead
// of the object graph init_binary_tree / init_sub_binary_tree builds in
// original_source/src/decimate/deci.py. The two diverge whenever v+myMin
// is even: the spec's floor((v-1+myMin)/2) picks the slot below deci.py's
// (v+myMin)/2.
func BuildTree(maxV, minV int) (Tree, error) {
	if minV < 0 || maxV < minV {
		return nil, fmt.Errorf("%w: invalid tree range minV=%d maxV=%d", decimate.ErrInvalidArgument, minV, maxV)
	}

	tree := make(Tree, maxV+1)

	var fill func(v, myMin, myMax int)

	fill = func(v, myMin, myMax int) {
		right := v
		if v > myMin {
			right = ((v - 1) + myMin) / 2
		}

		left := v
		if v < myMax {
			left = myMax - (myMax-v)/2
		}

		tree[v] = Node{Value: v, MyMin: myMin, MyMax: myMax, Left: left, Right: right}

		if right != v {
			fill(right, myMin, v-1)
		}

		if left != v {
			fill(left, v+1, myMax)
		}
	}

	fill(maxV, minV, maxV)

	return tree, nil
}
