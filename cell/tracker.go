// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cell

import (
	"fmt"
	"sync"
)

// Tracker records which cells of a tree have actually been read. Cursors
// obtained through Track mark every reference they hand out, so walking a
// tree through tracked slices leaves a complete trace of the visited cells;
// Visit records cells reached by other means. The trace can then be turned
// into a Merkle proof covering exactly the visited parts via BuildProof.
//
// A tracker is safe for concurrent use and can be reused for several proofs;
// Reset clears the trace.
type Tracker struct {
	mutex   sync.Mutex
	visited map[Hash]struct{}
}

// NewTracker creates a tracker with an empty trace.
func NewTracker() *Tracker {
	return &Tracker{visited: map[Hash]struct{}{}}
}

// Visit records the cell as read.
func (t *Tracker) Visit(c *Cell) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.visited[c.Hash()] = struct{}{}
}

// Visited reports whether the cell has been recorded.
func (t *Tracker) Visited(c *Cell) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	_, ok := t.visited[c.Hash()]
	return ok
}

// Size returns the number of distinct recorded cells.
func (t *Tracker) Size() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.visited)
}

// Reset clears the trace.
func (t *Tracker) Reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.visited = map[Hash]struct{}{}
}

// Track records the cell and returns a cursor over it that records every
// reference it resolves. Cursors derived from it via Copy and Subslice keep
// recording into the same tracker.
func (t *Tracker) Track(c *Cell) *Slice {
	t.Visit(c)
	s := c.Slice()
	s.tracker = t
	return s
}

// BuildProof derives a Merkle proof from the recorded trace: visited cells
// are included, subtrees below unvisited cells are replaced by pruned
// branches standing in for their content. The root itself must have been
// visited.
func (t *Tracker) BuildProof(root *Cell) (*Cell, error) {
	if !t.Visited(root) {
		return nil, fmt.Errorf("cannot build a proof, the root %s was never visited", root.Hash())
	}
	body, err := t.include(root)
	if err != nil {
		return nil, err
	}
	return NewMerkleProof(body)
}

func (t *Tracker) include(c *Cell) (*Cell, error) {
	refs := c.References()
	changed := false
	for i, ref := range refs {
		var repl *Cell
		var err error
		if t.Visited(ref) {
			repl, err = t.include(ref)
		} else {
			repl, err = NewPrunedBranch(ref)
		}
		if err != nil {
			return nil, err
		}
		if repl != ref {
			refs[i] = repl
			changed = true
		}
	}
	if !changed {
		return c, nil
	}

	builder := NewBuilder()
	if err := builder.AppendRaw(c.Data(), c.BitLen()); err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if err := builder.AppendReference(ref); err != nil {
			return nil, err
		}
	}
	if c.Type().IsExotic() {
		return builder.FinalizeExotic()
	}
	return builder.Finalize()
}
