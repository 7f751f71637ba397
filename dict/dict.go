// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dict implements a dictionary over fixed-length bit keys, encoded
// directly as a cell subtree: a binary Patricia trie whose nodes are cells
// carrying a compressed edge label, with every internal node holding exactly
// the 0-branch and 1-branch subtrees as its two references. The encoding is
// canonical, so dictionaries with equal content are bit-identical regardless
// of the operations that produced them.
package dict

import (
	"errors"
	"fmt"

	"github.com/0xsoniclabs/cellar/cell"
)

var (
	// ErrKeyLength is returned when a key of the wrong length is passed to a
	// dictionary. Keys are never silently truncated or padded.
	ErrKeyLength = errors.New("dictionary key length mismatch")

	// ErrMalformedLabel is returned when a node of the underlying cell tree
	// does not parse as a well-formed trie node.
	ErrMalformedLabel = errors.New("malformed dictionary label")
)

// Dictionary is a mutable view of an immutable cell-encoded trie. Mutations
// replace the root; the previous cell trees remain valid and may be shared.
type Dictionary struct {
	keyLen int
	root   *cell.Cell // < nil for the empty dictionary
}

// New creates an empty dictionary over keys of the given bit length.
func New(keyLen int) (*Dictionary, error) {
	if keyLen < 1 || keyLen > cell.MaxBitLen {
		return nil, fmt.Errorf("invalid key length %d, must be in 1..%d", keyLen, cell.MaxBitLen)
	}
	return &Dictionary{keyLen: keyLen}, nil
}

// FromRoot wraps an existing dictionary root cell, as produced by Root of
// another instance or decoded from a bag of cells. A nil root is the empty
// dictionary. The tree is validated lazily while it is accessed.
func FromRoot(keyLen int, root *cell.Cell) (*Dictionary, error) {
	if keyLen < 1 || keyLen > cell.MaxBitLen {
		return nil, fmt.Errorf("invalid key length %d, must be in 1..%d", keyLen, cell.MaxBitLen)
	}
	return &Dictionary{keyLen: keyLen, root: root}, nil
}

// KeyLen returns the fixed key length in bits.
func (d *Dictionary) KeyLen() int {
	return d.keyLen
}

// Root returns the root cell of the dictionary, nil if it is empty. The
// root can be embedded into larger cell structures or serialized as a bag.
func (d *Dictionary) Root() *cell.Cell {
	return d.root
}

// IsEmpty reports whether the dictionary holds no entries.
func (d *Dictionary) IsEmpty() bool {
	return d.root == nil
}

// Len counts the entries by traversing the tree.
func (d *Dictionary) Len() (int, error) {
	count := 0
	iter := d.Iterate()
	for iter.Next() {
		count++
	}
	return count, iter.Error()
}

// Get returns the value stored for the given key, or found == false if the
// key is not present. The key must be packed most significant bit first into
// ⌈keyLen/8⌉ bytes.
func (d *Dictionary) Get(key []byte) (value *cell.Slice, found bool, err error) {
	keyBits, err := d.keyBits(key)
	if err != nil {
		return nil, false, err
	}
	if d.root == nil {
		return nil, false, nil
	}

	s := d.root.Slice()
	pos := 0
	for {
		label, err := readLabel(s, d.keyLen-pos)
		if err != nil {
			return nil, false, err
		}
		for i, bit := range label {
			if keyBits[pos+i] != bit {
				return nil, false, nil
			}
		}
		pos += len(label)
		if pos == d.keyLen {
			return s, true, nil
		}
		child, err := branchRef(s, keyBits[pos])
		if err != nil {
			return nil, false, err
		}
		pos++
		s = child.Slice()
	}
}

// Set stores a value for the given key and returns the previously stored
// value, if any. The value's remaining bits and references are copied into
// the leaf; together with the leaf's label they must fit into a single cell.
func (d *Dictionary) Set(key []byte, value *cell.Slice) (prev *cell.Slice, err error) {
	keyBits, err := d.keyBits(key)
	if err != nil {
		return nil, err
	}
	root, prev, err := d.insert(d.root, keyBits, 0, value)
	if err != nil {
		return nil, err
	}
	d.root = root
	return prev, nil
}

// Remove deletes the entry for the given key and returns the removed value,
// if any. Removing the last entry of a fork merges the remaining sibling
// into the parent edge, keeping the encoding canonical.
func (d *Dictionary) Remove(key []byte) (removed *cell.Slice, err error) {
	keyBits, err := d.keyBits(key)
	if err != nil {
		return nil, err
	}
	if d.root == nil {
		return nil, nil
	}
	root, removed, err := d.remove(d.root, keyBits, 0)
	if err != nil {
		return nil, err
	}
	d.root = root
	return removed, nil
}

// --- Tree Manipulation ---

func (d *Dictionary) insert(node *cell.Cell, keyBits bitstring, pos int, value *cell.Slice) (*cell.Cell, *cell.Slice, error) {
	if node == nil {
		leaf, err := d.makeLeaf(keyBits[pos:], pos, value)
		return leaf, nil, err
	}

	s := node.Slice()
	label, err := readLabel(s, d.keyLen-pos)
	if err != nil {
		return nil, nil, err
	}
	common := commonPrefixLen(label, keyBits[pos:])

	if common == len(label) {
		if pos+common == d.keyLen {
			// Exact hit, replace the leaf value.
			leaf, err := d.makeLeaf(label, pos, value)
			if err != nil {
				return nil, nil, err
			}
			return leaf, s, nil
		}

		// The label matches fully, descend into the branch.
		branch := keyBits[pos+common]
		child, err := branchRef(s, branch)
		if err != nil {
			return nil, nil, err
		}
		newChild, prev, err := d.insert(child, keyBits, pos+common+1, value)
		if err != nil {
			return nil, nil, err
		}
		sibling, err := branchRef(s, 1-branch)
		if err != nil {
			return nil, nil, err
		}
		children := [2]*cell.Cell{}
		children[branch], children[1-branch] = newChild, sibling
		fork, err := d.makeFork(label, pos, children[0], children[1])
		if err != nil {
			return nil, nil, err
		}
		return fork, prev, nil
	}

	// The key diverges inside the label: split the edge. The existing node
	// keeps the label part below the branch point, a new leaf takes the
	// inserted key, and a new fork with the common label part joins them.
	relabeled, err := d.rebuildNode(s, label[common+1:], pos+common+1)
	if err != nil {
		return nil, nil, err
	}
	leaf, err := d.makeLeaf(keyBits[pos+common+1:], pos+common+1, value)
	if err != nil {
		return nil, nil, err
	}
	children := [2]*cell.Cell{}
	children[label[common]], children[keyBits[pos+common]] = relabeled, leaf
	fork, err := d.makeFork(label[:common], pos, children[0], children[1])
	if err != nil {
		return nil, nil, err
	}
	return fork, nil, nil
}

func (d *Dictionary) remove(node *cell.Cell, keyBits bitstring, pos int) (*cell.Cell, *cell.Slice, error) {
	s := node.Slice()
	label, err := readLabel(s, d.keyLen-pos)
	if err != nil {
		return nil, nil, err
	}
	if commonPrefixLen(label, keyBits[pos:]) != len(label) {
		return node, nil, nil // key not present
	}
	if pos+len(label) == d.keyLen {
		return nil, s, nil // leaf found, drop it
	}

	branch := keyBits[pos+len(label)]
	child, err := branchRef(s, branch)
	if err != nil {
		return nil, nil, err
	}
	newChild, removed, err := d.remove(child, keyBits, pos+len(label)+1)
	if err != nil || removed == nil {
		return node, nil, err
	}
	sibling, err := branchRef(s, 1-branch)
	if err != nil {
		return nil, nil, err
	}

	if newChild != nil {
		children := [2]*cell.Cell{}
		children[branch], children[1-branch] = newChild, sibling
		fork, err := d.makeFork(label, pos, children[0], children[1])
		if err != nil {
			return nil, nil, err
		}
		return fork, removed, nil
	}

	// The branch is gone; absorb the sibling's label into this edge so no
	// single-child node remains.
	siblingSlice := sibling.Slice()
	siblingPos := pos + len(label) + 1
	siblingLabel, err := readLabel(siblingSlice, d.keyLen-siblingPos)
	if err != nil {
		return nil, nil, err
	}
	merged, err := d.rebuildNode(siblingSlice, concat(label, bitstring{1 - branch}, siblingLabel), pos)
	if err != nil {
		return nil, nil, err
	}
	return merged, removed, nil
}

// --- Node Construction ---

// makeLeaf builds a leaf node at key position pos: a label followed by the
// value's bits and references.
func (d *Dictionary) makeLeaf(label bitstring, pos int, value *cell.Slice) (*cell.Cell, error) {
	builder := cell.NewBuilder()
	if err := writeLabel(builder, label, d.keyLen-pos); err != nil {
		return nil, err
	}
	if err := builder.AppendSlice(value); err != nil {
		return nil, err
	}
	return builder.Finalize()
}

// makeFork builds an internal node at key position pos: a label followed by
// the 0-branch and 1-branch subtrees.
func (d *Dictionary) makeFork(label bitstring, pos int, zero, one *cell.Cell) (*cell.Cell, error) {
	builder := cell.NewBuilder()
	if err := writeLabel(builder, label, d.keyLen-pos); err != nil {
		return nil, err
	}
	if err := builder.AppendReference(zero); err != nil {
		return nil, err
	}
	if err := builder.AppendReference(one); err != nil {
		return nil, err
	}
	return builder.Finalize()
}

// rebuildNode builds a copy of a node with a new label at key position pos,
// keeping the node body (a leaf value or the two fork branches) as read from
// the given slice, which must be positioned past the old label.
func (d *Dictionary) rebuildNode(body *cell.Slice, label bitstring, pos int) (*cell.Cell, error) {
	builder := cell.NewBuilder()
	if err := writeLabel(builder, label, d.keyLen-pos); err != nil {
		return nil, err
	}
	if err := builder.AppendSlice(body); err != nil {
		return nil, err
	}
	return builder.Finalize()
}

// branchRef fetches the subtree for the given next key bit from a fork node.
func branchRef(s *cell.Slice, bit uint8) (*cell.Cell, error) {
	child, err := s.Reference(int(bit))
	if err != nil {
		return nil, fmt.Errorf("%w: fork node without a %d-branch", ErrMalformedLabel, bit)
	}
	return child, nil
}

func (d *Dictionary) keyBits(key []byte) (bitstring, error) {
	if len(key) != (d.keyLen+7)/8 {
		return nil, fmt.Errorf("%w: got %d bytes for %d key bits", ErrKeyLength, len(key), d.keyLen)
	}
	return unpackBits(key, d.keyLen), nil
}
