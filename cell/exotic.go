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
	"encoding/binary"
	"fmt"
)

// Exotic cell payload sizes in bits. Each exotic payload starts with an
// 8-bit type tag.
const (
	libraryRefBits   = 8 + 256
	merkleProofBits  = 8 + 256 + 16
	merkleUpdateBits = 8 + 2*(256+16)
)

// prunedBranchBits returns the payload size of a pruned branch embedding the
// given number of hash/depth pairs.
func prunedBranchBits(pairs int) int {
	return 16 + pairs*(256+16)
}

// initExotic validates the structural constraints of an exotic cell under
// construction and derives its cell type and level mask. The rules per kind:
//
//   - pruned branch: no references; the payload embeds the level mask of the
//     elided subtree followed by one hash and one depth per masked level;
//   - library reference: no references, a single embedded hash;
//   - Merkle proof: one reference whose level-0 hash and depth must equal the
//     embedded values; the own mask is the child's mask shifted down;
//   - Merkle update: two references (old and new state), each validated the
//     same way.
func (c *Cell) initExotic() error {
	if c.bitLen < 8 {
		return fmt.Errorf("%w: missing type tag", ErrMalformedExoticCell)
	}
	switch tag := CellType(c.data[0]); tag {
	case PrunedBranchCell:
		return c.initPrunedBranch()
	case LibraryRefCell:
		return c.initLibraryRef()
	case MerkleProofCell:
		return c.initMerkleProof()
	case MerkleUpdateCell:
		return c.initMerkleUpdate()
	default:
		return fmt.Errorf("%w: unknown type tag %d", ErrMalformedExoticCell, tag)
	}
}

func (c *Cell) initPrunedBranch() error {
	if len(c.refs) != 0 {
		return fmt.Errorf("%w: pruned branch with %d references", ErrMalformedExoticCell, len(c.refs))
	}
	if c.bitLen < 16 {
		return fmt.Errorf("%w: pruned branch missing level mask", ErrMalformedExoticCell)
	}
	mask := LevelMask(c.data[1])
	if mask == 0 || mask > 7 {
		return fmt.Errorf("%w: invalid pruned branch level mask %d", ErrMalformedExoticCell, mask)
	}
	if want := prunedBranchBits(mask.HashIndex()); c.bitLen != want {
		return fmt.Errorf("%w: pruned branch with %d payload bits, want %d", ErrMalformedExoticCell, c.bitLen, want)
	}
	c.cellType = PrunedBranchCell
	c.levelMask = mask
	return nil
}

func (c *Cell) initLibraryRef() error {
	if len(c.refs) != 0 {
		return fmt.Errorf("%w: library reference with %d references", ErrMalformedExoticCell, len(c.refs))
	}
	if c.bitLen != libraryRefBits {
		return fmt.Errorf("%w: library reference with %d payload bits, want %d", ErrMalformedExoticCell, c.bitLen, libraryRefBits)
	}
	c.cellType = LibraryRefCell
	c.levelMask = 0
	return nil
}

func (c *Cell) initMerkleProof() error {
	if len(c.refs) != 1 {
		return fmt.Errorf("%w: merkle proof with %d references", ErrMalformedExoticCell, len(c.refs))
	}
	if c.bitLen != merkleProofBits {
		return fmt.Errorf("%w: merkle proof with %d payload bits, want %d", ErrMalformedExoticCell, c.bitLen, merkleProofBits)
	}
	if err := checkEmbeddedHash(c.data[1:], c.refs[0]); err != nil {
		return err
	}
	c.cellType = MerkleProofCell
	c.levelMask = c.refs[0].levelMask >> 1
	return nil
}

func (c *Cell) initMerkleUpdate() error {
	if len(c.refs) != 2 {
		return fmt.Errorf("%w: merkle update with %d references", ErrMalformedExoticCell, len(c.refs))
	}
	if c.bitLen != merkleUpdateBits {
		return fmt.Errorf("%w: merkle update with %d payload bits, want %d", ErrMalformedExoticCell, c.bitLen, merkleUpdateBits)
	}
	for i, ref := range c.refs {
		var embedded [34]byte
		copy(embedded[:32], c.data[1+i*32:])
		copy(embedded[32:], c.data[65+i*2:])
		if err := checkEmbeddedHash(embedded[:], ref); err != nil {
			return err
		}
	}
	c.cellType = MerkleUpdateCell
	c.levelMask = (c.refs[0].levelMask | c.refs[1].levelMask) >> 1
	return nil
}

// checkEmbeddedHash compares an embedded 32-byte hash followed by a 2-byte
// depth against the level-0 hash and depth of the given cell.
func checkEmbeddedHash(data []byte, ref *Cell) error {
	var want Hash
	copy(want[:], data)
	if have := ref.HashAt(0); have != want {
		return fmt.Errorf("%w: embedded hash %s does not match subtree hash %s", ErrMalformedExoticCell, want, have)
	}
	if want, have := binary.BigEndian.Uint16(data[32:]), ref.DepthAt(0); have != want {
		return fmt.Errorf("%w: embedded depth %d does not match subtree depth %d", ErrMalformedExoticCell, want, have)
	}
	return nil
}

// NewPrunedBranch creates a pruned branch cell standing in for the given
// subtree, embedding its level-0 hash and depth. Subtrees that already carry
// masked levels cannot be pruned again.
func NewPrunedBranch(c *Cell) (*Cell, error) {
	if c.levelMask != 0 {
		return nil, fmt.Errorf("%w: cannot prune a subtree of level %d", ErrMalformedExoticCell, c.Level())
	}
	builder := NewBuilder()
	hash := c.HashAt(0)
	var depth [2]byte
	binary.BigEndian.PutUint16(depth[:], c.DepthAt(0))
	if err := joinErrors(
		builder.AppendBits(uint64(PrunedBranchCell), 8),
		builder.AppendBits(1, 8), // level mask of the pruned branch
		builder.AppendRaw(hash[:], 256),
		builder.AppendRaw(depth[:], 16),
	); err != nil {
		return nil, err
	}
	return builder.FinalizeExotic()
}

// NewMerkleProof creates a Merkle proof cell certifying the content of the
// given subtree. The subtree typically contains pruned branches for the
// parts that are elided from the proof.
func NewMerkleProof(c *Cell) (*Cell, error) {
	builder := NewBuilder()
	hash := c.HashAt(0)
	var depth [2]byte
	binary.BigEndian.PutUint16(depth[:], c.DepthAt(0))
	if err := joinErrors(
		builder.AppendBits(uint64(MerkleProofCell), 8),
		builder.AppendRaw(hash[:], 256),
		builder.AppendRaw(depth[:], 16),
		builder.AppendReference(c),
	); err != nil {
		return nil, err
	}
	return builder.FinalizeExotic()
}

// NewMerkleUpdate creates a Merkle update cell certifying a transition from
// the old to the new subtree.
func NewMerkleUpdate(old, new *Cell) (*Cell, error) {
	builder := NewBuilder()
	oldHash, newHash := old.HashAt(0), new.HashAt(0)
	var depths [4]byte
	binary.BigEndian.PutUint16(depths[:2], old.DepthAt(0))
	binary.BigEndian.PutUint16(depths[2:], new.DepthAt(0))
	if err := joinErrors(
		builder.AppendBits(uint64(MerkleUpdateCell), 8),
		builder.AppendRaw(oldHash[:], 256),
		builder.AppendRaw(newHash[:], 256),
		builder.AppendRaw(depths[:], 32),
		builder.AppendReference(old),
		builder.AppendReference(new),
	); err != nil {
		return nil, err
	}
	return builder.FinalizeExotic()
}

// CheckProof verifies that the given cell is a well-formed Merkle proof and
// returns the certified subtree.
func CheckProof(proof *Cell) (*Cell, error) {
	if proof.cellType != MerkleProofCell {
		return nil, fmt.Errorf("%w: %s is not a merkle proof", ErrMalformedExoticCell, proof.cellType)
	}
	if err := checkEmbeddedHash(proof.data[1:], proof.refs[0]); err != nil {
		return nil, err
	}
	return proof.refs[0], nil
}

// CheckUpdate verifies that the given cell is a well-formed Merkle update
// and returns the certified old and new subtrees.
func CheckUpdate(update *Cell) (old, new *Cell, err error) {
	if update.cellType != MerkleUpdateCell {
		return nil, nil, fmt.Errorf("%w: %s is not a merkle update", ErrMalformedExoticCell, update.cellType)
	}
	for i, ref := range update.refs {
		var embedded [34]byte
		copy(embedded[:32], update.data[1+i*32:])
		copy(embedded[32:], update.data[65+i*2:])
		if err := checkEmbeddedHash(embedded[:], ref); err != nil {
			return nil, nil, err
		}
	}
	return update.refs[0], update.refs[1], nil
}

func joinErrors(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
