package rsfec

import (
	"sync"

	"github.com/pkg/errors"
)

// decodeMatrix is what the decoder needs for one erasure pattern:
// the inverted square matrix and the codeword position feeding each
// of its columns.
type decodeMatrix struct {
	inverse Matrix
	sources []int
}

// The tree uses a Reader-Writer mutex to make it thread-safe
// when accessing cached matrices and inserting new ones.
type inversionTree struct {
	mutex sync.RWMutex
	root  inversionNode
}

type inversionNode struct {
	entry    *decodeMatrix
	children []*inversionNode
}

var errAlreadySet = errors.New("the root node identity matrix is already set")

// newInversionTree initializes a tree for storing decode matrices.
func newInversionTree(totalSymbols int) *inversionTree {
	return &inversionTree{
		root: inversionNode{
			children: make([]*inversionNode, totalSymbols),
		},
	}
}

// GetInvertedMatrix returns the cached entry or nil if it is not cached.
// erased must be sorted in ascending order.
func (t *inversionTree) GetInvertedMatrix(erased []int) *decodeMatrix {
	if t == nil || len(erased) == 0 {
		return nil
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.root.getInvertedMatrix(erased, 0)
}

// InsertInvertedMatrix stores an entry for a sorted erasure pattern.
func (t *inversionTree) InsertInvertedMatrix(erased []int, entry *decodeMatrix, totalSymbols int) error {
	if t == nil {
		return nil
	}
	if len(erased) == 0 {
		return errAlreadySet
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.root.insertInvertedMatrix(erased, entry, totalSymbols, 0)
	return nil
}

func (n *inversionNode) getInvertedMatrix(erased []int, parent int) *decodeMatrix {
	// Children are indexed relative to the previous erased position.
	node := n.children[erased[0]-parent]
	if node == nil {
		return nil
	}
	if len(erased) > 1 {
		return node.getInvertedMatrix(erased[1:], erased[0]+1)
	}
	return node.entry
}

func (n *inversionNode) insertInvertedMatrix(erased []int, entry *decodeMatrix, totalSymbols, parent int) {
	node := n.children[erased[0]-parent]
	if node == nil {
		// The next erased position is larger than this one, so only
		// totalSymbols-erased[0]-1 children are ever needed.
		node = &inversionNode{
			children: make([]*inversionNode, totalSymbols-erased[0]-1),
		}
		n.children[erased[0]-parent] = node
	}

	if len(erased) > 1 {
		node.insertInvertedMatrix(erased[1:], entry, totalSymbols, erased[0]+1)
	} else {
		node.entry = entry
	}
}
