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

// Slice is a non-owning read cursor over a cell's bit range and reference
// range. Slices never mutate the underlying cell and are cheap to copy;
// every access is range-checked against the slice's current bounds and fails
// with ErrOutOfBounds without advancing the cursor.
type Slice struct {
	cell    *Cell
	bitPos  int
	bitEnd  int
	refPos  int
	refEnd  int
	tracker *Tracker // < records resolved references, nil for plain slices
}

// Copy returns an independent cursor at the same position.
func (s *Slice) Copy() *Slice {
	res := *s
	return &res
}

// Cell returns the cell the slice reads from.
func (s *Slice) Cell() *Cell {
	return s.cell
}

// RemainingBits returns the number of unread bits.
func (s *Slice) RemainingBits() int {
	return s.bitEnd - s.bitPos
}

// RemainingRefs returns the number of unread references.
func (s *Slice) RemainingRefs() int {
	return s.refEnd - s.refPos
}

// IsEmpty reports whether no bits and no references remain.
func (s *Slice) IsEmpty() bool {
	return s.RemainingBits() == 0 && s.RemainingRefs() == 0
}

// ReadBit reads the next bit.
func (s *Slice) ReadBit() (bool, error) {
	if s.bitPos+1 > s.bitEnd {
		return false, fmt.Errorf("%w: reading a bit with none remaining", ErrOutOfBounds)
	}
	bit := bitAt(s.cell.data, s.bitPos)
	s.bitPos++
	return bit, nil
}

// ReadUint reads the given number of bits as an unsigned integer, most
// significant bit first. The width must be in the range 0 to 64.
func (s *Slice) ReadUint(width int) (uint64, error) {
	if width < 0 || width > 64 {
		return 0, fmt.Errorf("invalid bit width %d, must be in 0..64", width)
	}
	if s.bitPos+width > s.bitEnd {
		return 0, fmt.Errorf("%w: reading %d bits with %d remaining", ErrOutOfBounds, width, s.RemainingBits())
	}
	var res uint64
	for i := range width {
		res <<= 1
		if bitAt(s.cell.data, s.bitPos+i) {
			res |= 1
		}
	}
	s.bitPos += width
	return res, nil
}

// ReadUint256 reads a 256-bit unsigned integer, most significant bit first.
func (s *Slice) ReadUint256() (*uint256.Int, error) {
	raw, err := s.ReadRaw(256)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

// ReadRaw reads the given number of bits into a fresh buffer of
// ⌈bitLen/8⌉ bytes, aligned to the most significant bit of the first byte.
func (s *Slice) ReadRaw(bitLen int) ([]byte, error) {
	if bitLen < 0 {
		return nil, fmt.Errorf("invalid bit length %d", bitLen)
	}
	if s.bitPos+bitLen > s.bitEnd {
		return nil, fmt.Errorf("%w: reading %d bits with %d remaining", ErrOutOfBounds, bitLen, s.RemainingBits())
	}
	res := make([]byte, (bitLen+7)/8)
	copyBits(res, 0, s.cell.data, s.bitPos, bitLen)
	s.bitPos += bitLen
	return res, nil
}

// Skip advances the cursor by the given number of bits.
func (s *Slice) Skip(bits int) error {
	if bits < 0 || s.bitPos+bits > s.bitEnd {
		return fmt.Errorf("%w: skipping %d bits with %d remaining", ErrOutOfBounds, bits, s.RemainingBits())
	}
	s.bitPos += bits
	return nil
}

// Subslice returns a view over a sub-range of the remaining bits, starting
// at the given offset from the current position. The reference range is
// unchanged, and the cursor of this slice does not move.
func (s *Slice) Subslice(offset, bitLen int) (*Slice, error) {
	if offset < 0 || bitLen < 0 || s.bitPos+offset+bitLen > s.bitEnd {
		return nil, fmt.Errorf("%w: subslice [%d, %d) of %d remaining bits",
			ErrOutOfBounds, offset, offset+bitLen, s.RemainingBits())
	}
	return &Slice{
		cell:    s.cell,
		bitPos:  s.bitPos + offset,
		bitEnd:  s.bitPos + offset + bitLen,
		refPos:  s.refPos,
		refEnd:  s.refEnd,
		tracker: s.tracker,
	}, nil
}

// Reference returns the i-th reference within the slice's remaining
// reference range, without advancing the cursor.
func (s *Slice) Reference(i int) (*Cell, error) {
	if i < 0 || s.refPos+i >= s.refEnd {
		return nil, fmt.Errorf("%w: reference %d of %d remaining", ErrOutOfBounds, i, s.RemainingRefs())
	}
	ref := s.cell.refs[s.refPos+i]
	if s.tracker != nil {
		s.tracker.Visit(ref)
	}
	return ref, nil
}

// NextReference reads the next reference and advances the cursor.
func (s *Slice) NextReference() (*Cell, error) {
	if s.refPos >= s.refEnd {
		return nil, fmt.Errorf("%w: reading a reference with none remaining", ErrOutOfBounds)
	}
	ref := s.cell.refs[s.refPos]
	s.refPos++
	if s.tracker != nil {
		s.tracker.Visit(ref)
	}
	return ref, nil
}
