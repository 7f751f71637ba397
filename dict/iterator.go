// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import "github.com/0xsoniclabs/cellar/cell"

// Iterator walks the entries of a dictionary in strictly ascending key
// order. It is lazy: nodes are only parsed as the iteration reaches them.
// A fresh iterator restarts the walk from the first key.
//
//	iter := dictionary.Iterate()
//	for iter.Next() {
//		... iter.Key(), iter.Value() ...
//	}
//	if err := iter.Error(); err != nil { ... }
type Iterator struct {
	keyLen int
	stack  []iteratorFrame
	key    []byte
	value  *cell.Slice
	err    error
}

// iteratorFrame is a pending subtree together with the key bits leading to
// it.
type iteratorFrame struct {
	node   *cell.Cell
	prefix bitstring
}

// Iterate returns an iterator positioned before the first entry.
func (d *Dictionary) Iterate() *Iterator {
	iter := &Iterator{keyLen: d.keyLen}
	if d.root != nil {
		iter.stack = []iteratorFrame{{node: d.root}}
	}
	return iter
}

// Next advances to the next entry. It returns false when the iteration is
// exhausted or has failed; Error distinguishes the two.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for len(it.stack) > 0 {
		frame := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		s := frame.node.Slice()
		label, err := readLabel(s, it.keyLen-len(frame.prefix))
		if err != nil {
			it.err = err
			return false
		}
		prefix := concat(frame.prefix, label)

		if len(prefix) == it.keyLen {
			it.key = packBits(prefix)
			it.value = s
			return true
		}

		// Push the 1-branch below the 0-branch so the 0-branch is visited
		// first.
		one, err := branchRef(s, 1)
		if err != nil {
			it.err = err
			return false
		}
		zero, err := branchRef(s, 0)
		if err != nil {
			it.err = err
			return false
		}
		it.stack = append(it.stack,
			iteratorFrame{node: one, prefix: concat(prefix, bitstring{1})},
			iteratorFrame{node: zero, prefix: concat(prefix, bitstring{0})},
		)
	}
	return false
}

// Key returns the key of the current entry, packed most significant bit
// first into ⌈keyLen/8⌉ bytes. It is only valid after Next returned true.
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the value of the current entry. It is only valid after Next
// returned true.
func (it *Iterator) Value() *cell.Slice {
	return it.value
}

// Error returns the error that terminated the iteration, if any.
func (it *Iterator) Error() error {
	return it.err
}
