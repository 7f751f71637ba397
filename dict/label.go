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

import (
	"fmt"
	"math/bits"

	"github.com/0xsoniclabs/cellar/cell"
)

// Edge labels know three encodings, discriminated by a one- or two-bit tag:
//
//	0            unary length, then the literal bits   (short)
//	10           fixed-width length, then the literals (long)
//	11           repeated bit, then fixed-width length (same)
//
// The fixed width is ⌈log₂(m+1)⌉ bits for the remaining key length m at the
// node. Writers pick the most compact encoding; on equal sizes the order
// same, short, long decides, keeping independently built dictionaries
// bit-identical.

// lengthWidth returns the number of bits used by fixed-width label lengths
// for the given maximum label length.
func lengthWidth(maxLen int) int {
	return bits.Len(uint(maxLen))
}

// readLabel reads an edge label off the slice. Labels longer than maxLen and
// labels running beyond the node's payload are malformed.
func readLabel(s *cell.Slice, maxLen int) (bitstring, error) {
	tag, err := s.ReadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
	}
	if !tag {
		return readShortLabel(s, maxLen)
	}
	tag, err = s.ReadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
	}
	if !tag {
		return readLongLabel(s, maxLen)
	}
	return readSameLabel(s, maxLen)
}

func readShortLabel(s *cell.Slice, maxLen int) (bitstring, error) {
	length := 0
	for {
		bit, err := s.ReadBit()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
		}
		if !bit {
			break
		}
		if length++; length > maxLen {
			return nil, fmt.Errorf("%w: unary length exceeds %d remaining key bits", ErrMalformedLabel, maxLen)
		}
	}
	return readLabelBits(s, length)
}

func readLongLabel(s *cell.Slice, maxLen int) (bitstring, error) {
	length, err := s.ReadUint(lengthWidth(maxLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
	}
	if int(length) > maxLen {
		return nil, fmt.Errorf("%w: length %d exceeds %d remaining key bits", ErrMalformedLabel, length, maxLen)
	}
	return readLabelBits(s, int(length))
}

func readSameLabel(s *cell.Slice, maxLen int) (bitstring, error) {
	repeated, err := s.ReadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
	}
	length, err := s.ReadUint(lengthWidth(maxLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
	}
	if int(length) > maxLen {
		return nil, fmt.Errorf("%w: length %d exceeds %d remaining key bits", ErrMalformedLabel, length, maxLen)
	}
	res := make(bitstring, length)
	if repeated {
		for i := range res {
			res[i] = 1
		}
	}
	return res, nil
}

func readLabelBits(s *cell.Slice, length int) (bitstring, error) {
	raw, err := s.ReadRaw(length)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLabel, err)
	}
	return unpackBits(raw, length), nil
}

// writeLabel appends the most compact encoding of the label to the builder.
func writeLabel(b *cell.Builder, label bitstring, maxLen int) error {
	width := lengthWidth(maxLen)
	shortSize := 2 + 2*len(label)
	longSize := 2 + width + len(label)
	sameSize := shortSize + longSize + 1 // never picked unless eligible
	if allBitsEqual(label) {
		sameSize = 3 + width
	}

	switch {
	case sameSize <= shortSize && sameSize <= longSize:
		if err := appendBits(b, bitstring{1, 1, label[0]}); err != nil {
			return err
		}
		return b.AppendBits(uint64(len(label)), width)
	case shortSize <= longSize:
		if err := b.AppendBit(false); err != nil {
			return err
		}
		for range label {
			if err := b.AppendBit(true); err != nil {
				return err
			}
		}
		if err := b.AppendBit(false); err != nil {
			return err
		}
		return appendBits(b, label)
	default:
		if err := appendBits(b, bitstring{1, 0}); err != nil {
			return err
		}
		if err := b.AppendBits(uint64(len(label)), width); err != nil {
			return err
		}
		return appendBits(b, label)
	}
}

func appendBits(b *cell.Builder, bits bitstring) error {
	return b.AppendRaw(packBits(bits), len(bits))
}
