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

	"github.com/holiman/uint256"
)

// Builder is a mutable staging area accumulating data bits and references
// before finalizing them into an immutable Cell. Builders are exclusively
// owned by a single writer; they are not safe for concurrent use.
//
// Every append operation checks the remaining capacity first and fails with
// ErrCellOverflow without modifying the builder if the content would not fit.
// Since a builder can only reference already finalized cells, the resulting
// graph is acyclic by construction.
type Builder struct {
	data   [128]byte
	bitLen int
	refs   []*Cell
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BitLen returns the number of bits accumulated so far.
func (b *Builder) BitLen() int {
	return b.bitLen
}

// RefCount returns the number of references accumulated so far.
func (b *Builder) RefCount() int {
	return len(b.refs)
}

// RemainingBits returns the number of bits that can still be appended.
func (b *Builder) RemainingBits() int {
	return MaxBitLen - b.bitLen
}

// RemainingRefs returns the number of references that can still be appended.
func (b *Builder) RemainingRefs() int {
	return MaxRefs - len(b.refs)
}

// AppendBit appends a single bit.
func (b *Builder) AppendBit(bit bool) error {
	if b.bitLen+1 > MaxBitLen {
		return fmt.Errorf("%w: cannot append a bit to %d bits", ErrCellOverflow, b.bitLen)
	}
	if bit {
		setBit(b.data[:], b.bitLen)
	}
	b.bitLen++
	return nil
}

// AppendBits appends the given number of low bits of value, most significant
// first. The width must be in the range 0 to 64.
func (b *Builder) AppendBits(value uint64, width int) error {
	if width < 0 || width > 64 {
		return fmt.Errorf("invalid bit width %d, must be in 0..64", width)
	}
	if b.bitLen+width > MaxBitLen {
		return fmt.Errorf("%w: cannot append %d bits to %d bits", ErrCellOverflow, width, b.bitLen)
	}
	for i := width - 1; i >= 0; i-- {
		if value>>i&1 != 0 {
			setBit(b.data[:], b.bitLen)
		}
		b.bitLen++
	}
	return nil
}

// AppendRaw appends the first bitLen bits of the given buffer.
func (b *Builder) AppendRaw(data []byte, bitLen int) error {
	if bitLen < 0 || bitLen > len(data)*8 {
		return fmt.Errorf("invalid bit length %d for %d bytes", bitLen, len(data))
	}
	if b.bitLen+bitLen > MaxBitLen {
		return fmt.Errorf("%w: cannot append %d bits to %d bits", ErrCellOverflow, bitLen, b.bitLen)
	}
	copyBits(b.data[:], b.bitLen, data, 0, bitLen)
	b.bitLen += bitLen
	return nil
}

// AppendUint256 appends a 256-bit unsigned integer, most significant bit
// first.
func (b *Builder) AppendUint256(value *uint256.Int) error {
	bytes := value.Bytes32()
	return b.AppendRaw(bytes[:], 256)
}

// AppendReference appends a reference to an already finalized cell.
func (b *Builder) AppendReference(c *Cell) error {
	if len(b.refs)+1 > MaxRefs {
		return fmt.Errorf("%w: cannot append a fifth reference", ErrCellOverflow)
	}
	b.refs = append(b.refs, c)
	return nil
}

// AppendBuilder splices the accumulated data and references of another
// builder into this one. The other builder is not modified. If the combined
// content does not fit, nothing is appended.
func (b *Builder) AppendBuilder(other *Builder) error {
	if b.bitLen+other.bitLen > MaxBitLen || len(b.refs)+len(other.refs) > MaxRefs {
		return fmt.Errorf("%w: cannot merge %d+%d bits and %d+%d references",
			ErrCellOverflow, b.bitLen, other.bitLen, len(b.refs), len(other.refs))
	}
	copyBits(b.data[:], b.bitLen, other.data[:], 0, other.bitLen)
	b.bitLen += other.bitLen
	b.refs = append(b.refs, other.refs...)
	return nil
}

// AppendSlice appends the remaining bits and references of the given slice.
// The slice is not advanced. If the combined content does not fit, nothing is
// appended.
func (b *Builder) AppendSlice(s *Slice) error {
	if b.bitLen+s.RemainingBits() > MaxBitLen || len(b.refs)+s.RemainingRefs() > MaxRefs {
		return fmt.Errorf("%w: cannot append %d bits and %d references",
			ErrCellOverflow, s.RemainingBits(), s.RemainingRefs())
	}
	copyBits(b.data[:], b.bitLen, s.cell.data, s.bitPos, s.bitEnd-s.bitPos)
	b.bitLen += s.bitEnd - s.bitPos
	b.refs = append(b.refs, s.cell.refs[s.refPos:s.refEnd]...)
	return nil
}

// Finalize turns the accumulated content into an immutable ordinary cell,
// running the hash engine over it. The builder can be discarded afterwards.
func (b *Builder) Finalize() (*Cell, error) {
	return b.finalize(false)
}

// FinalizeExotic turns the accumulated content into an immutable exotic
// cell. The cell kind is taken from the type tag in the first data byte, and
// the content must satisfy the structural constraints of that kind.
func (b *Builder) FinalizeExotic() (*Cell, error) {
	return b.finalize(true)
}

func (b *Builder) finalize(exotic bool) (*Cell, error) {
	data := make([]byte, (b.bitLen+7)/8)
	copyBits(data, 0, b.data[:], 0, b.bitLen)
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)

	c := &Cell{
		cellType: OrdinaryCell,
		bitLen:   b.bitLen,
		data:     data,
		refs:     refs,
	}
	if exotic {
		if err := c.initExotic(); err != nil {
			return nil, err
		}
	} else {
		for _, ref := range refs {
			c.levelMask |= ref.levelMask
		}
	}
	if err := c.computeHashes(); err != nil {
		return nil, err
	}
	return c, nil
}
