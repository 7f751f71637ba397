// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package cell provides the content-addressed cell substrate used for state
// and message representation: immutable hash-linked cells of up to 1023 data
// bits and 4 references, builders for constructing them, and slices for
// reading them without copying.
package cell

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	// MaxBitLen is the maximum number of data bits a cell can hold.
	MaxBitLen = 1023
	// MaxRefs is the maximum number of references a cell can hold.
	MaxRefs = 4
	// MaxDepth is the maximum depth of a cell tree. The depth of a cell is 0
	// for leaves and 1 + the maximum child depth otherwise.
	MaxDepth = 1024
)

// Hash is the fixed-width content digest of a cell.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// CellType distinguishes ordinary cells from the exotic cell kinds. The
// values of the exotic kinds equal the type tag stored in the first data byte
// of the respective cell.
type CellType uint8

const (
	PrunedBranchCell CellType = 0x01
	LibraryRefCell   CellType = 0x02
	MerkleProofCell  CellType = 0x03
	MerkleUpdateCell CellType = 0x04
	OrdinaryCell     CellType = 0xff
)

func (t CellType) String() string {
	switch t {
	case OrdinaryCell:
		return "ordinary"
	case PrunedBranchCell:
		return "pruned_branch"
	case LibraryRefCell:
		return "library_reference"
	case MerkleProofCell:
		return "merkle_proof"
	case MerkleUpdateCell:
		return "merkle_update"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// IsExotic reports whether the type is one of the exotic cell kinds.
func (t CellType) IsExotic() bool {
	return t != OrdinaryCell
}

// Cell is an immutable node of a content-addressed DAG. Cells are created by
// finalizing a Builder and are freely shareable afterwards; identical
// subtrees may alias the same instance. All hashes and depths are computed
// once during finalization and cached for the lifetime of the cell.
type Cell struct {
	cellType  CellType
	levelMask LevelMask
	bitLen    int
	data      []byte  // < ⌈bitLen/8⌉ bytes, unused trailing bits zero
	refs      []*Cell // < all finalized before this cell, making cycles impossible
	hashes    []Hash
	depths    []uint16
}

var emptyCell = func() *Cell {
	c, err := NewBuilder().Finalize()
	if err != nil {
		panic(fmt.Sprintf("failed to create the empty cell: %v", err))
	}
	return c
}()

// Empty returns the interned cell with no data and no references.
func Empty() *Cell {
	return emptyCell
}

// Type returns the cell's kind.
func (c *Cell) Type() CellType {
	return c.cellType
}

// LevelMask returns the set of materialized hash levels of the cell.
func (c *Cell) LevelMask() LevelMask {
	return c.levelMask
}

// Level returns the cell's level, the highest materialized hash level.
func (c *Cell) Level() int {
	return c.levelMask.Level()
}

// BitLen returns the number of data bits stored in the cell.
func (c *Cell) BitLen() int {
	return c.bitLen
}

// Data returns a copy of the cell's payload, ⌈BitLen/8⌉ bytes with unused
// trailing bits zero.
func (c *Cell) Data() []byte {
	res := make([]byte, len(c.data))
	copy(res, c.data)
	return res
}

// RefCount returns the number of references of the cell.
func (c *Cell) RefCount() int {
	return len(c.refs)
}

// Reference returns the i-th referenced cell.
func (c *Cell) Reference(i int) (*Cell, error) {
	if i < 0 || i >= len(c.refs) {
		return nil, fmt.Errorf("%w: reference %d of %d", ErrOutOfBounds, i, len(c.refs))
	}
	return c.refs[i], nil
}

// References returns a copy of the cell's reference list.
func (c *Cell) References() []*Cell {
	res := make([]*Cell, len(c.refs))
	copy(res, c.refs)
	return res
}

// Hash returns the cell's identity hash, the hash at the cell's own level.
// For cells without exotic content this equals the level-0 representation
// hash. It is the key under which cells are deduplicated and stored.
func (c *Cell) Hash() Hash {
	return c.HashAt(3)
}

// HashAt returns the cell's hash at the given level. Levels outside 0..3 are
// clamped. Levels whose mask bit is not set fall back to the next lower
// materialized hash; for pruned branches the hashes of elided levels are read
// from the embedded payload.
func (c *Cell) HashAt(level int) Hash {
	idx := c.levelMask.Apply(clampLevel(level)).HashIndex()
	if c.cellType == PrunedBranchCell {
		stored := c.levelMask.HashIndex()
		if idx != stored {
			var res Hash
			copy(res[:], c.data[2+idx*32:])
			return res
		}
		idx = 0
	}
	return c.hashes[idx]
}

// Depth returns the cell's depth at the cell's own level.
func (c *Cell) Depth() uint16 {
	return c.DepthAt(3)
}

// DepthAt returns the cell's depth at the given level, with the same level
// resolution rules as HashAt.
func (c *Cell) DepthAt(level int) uint16 {
	idx := c.levelMask.Apply(clampLevel(level)).HashIndex()
	if c.cellType == PrunedBranchCell {
		stored := c.levelMask.HashIndex()
		if idx != stored {
			return binary.BigEndian.Uint16(c.data[2+stored*32+idx*2:])
		}
		idx = 0
	}
	return c.depths[idx]
}

// Descriptor returns the two summary bytes of the cell as used on the wire:
// reference count, exotic flag, and level mask in the first byte, the data
// length with the completion flag in the second.
func (c *Cell) Descriptor() (d1, d2 byte) {
	return c.descriptors(c.levelMask)
}

func (c *Cell) descriptors(mask LevelMask) (d1, d2 byte) {
	d1 = byte(len(c.refs)) | byte(mask)<<5
	if c.cellType.IsExotic() {
		d1 |= 8
	}
	d2 = byte(c.bitLen/8) + byte((c.bitLen+7)/8)
	return d1, d2
}

// Slice returns a read cursor over the cell's full bit and reference range.
func (c *Cell) Slice() *Slice {
	return &Slice{
		cell:   c,
		bitEnd: c.bitLen,
		refEnd: len(c.refs),
	}
}

// Equal reports whether two cells have identical content. Content identity
// is hash identity.
func (c *Cell) Equal(other *Cell) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.Hash() == other.Hash()
}

func (c *Cell) String() string {
	return fmt.Sprintf("Cell{%s, %d bits, %d refs, %s}", c.cellType, c.bitLen, len(c.refs), c.Hash())
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 3 {
		return 3
	}
	return level
}
