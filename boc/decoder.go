// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package boc

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math/bits"

	"github.com/0xsoniclabs/cellar/cell"
)

// Decode parses an encoded bag and returns its root cells, applying the
// default resource limits.
func Decode(data []byte) ([]*cell.Cell, error) {
	return DecodeWithLimits(data, DefaultLimits())
}

// DecodeOne parses an encoded bag that must contain exactly one root.
func DecodeOne(data []byte) (*cell.Cell, error) {
	roots, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: expected a single root, got %d", ErrMalformedBag, len(roots))
	}
	return roots[0], nil
}

// DecodeWithLimits parses an encoded bag and returns its root cells. Any
// structural violation aborts the whole decode: references must point
// strictly forward, declared sizes must match the buffer, and the optional
// checksum must verify. Records are materialized last to first, so every
// cell's children are finalized before the cell itself, which makes cyclic
// input unrepresentable.
func DecodeWithLimits(data []byte, limits Limits) ([]*cell.Cell, error) {
	r := reader{data: data}
	header, err := parseBagHeader(&r)
	if err != nil {
		return nil, err
	}
	if header.cellCount > limits.MaxCells {
		return nil, fmt.Errorf("%w: %d cells exceed the limit of %d", ErrLimitExceeded, header.cellCount, limits.MaxCells)
	}

	if header.hasIndex {
		// The offset index only accelerates random access; records are
		// parsed sequentially here, so it is skipped.
		if err := r.skip(header.cellCount * header.offSize); err != nil {
			return nil, err
		}
	}

	// The declared payload size, the record bytes, and the optional trailer
	// must line up with the buffer end exactly.
	trailer := 0
	if header.hasCRC {
		trailer = 4
	}
	if uint64(r.remaining()) != header.totalSize+uint64(trailer) {
		return nil, fmt.Errorf("%w: declared payload size %d does not match %d remaining bytes",
			ErrMalformedBag, header.totalSize, r.remaining()-trailer)
	}
	if header.hasCRC {
		want := binary.LittleEndian.Uint32(data[len(data)-4:])
		have := crc32.Checksum(data[:len(data)-4], crc32.MakeTable(crc32.Castagnoli))
		if have != want {
			return nil, fmt.Errorf("%w: checksum mismatch, have %08x, want %08x", ErrMalformedBag, have, want)
		}
	}

	records, err := parseRecords(&r, header.cellCount, header.refSize)
	if err != nil {
		return nil, err
	}
	if r.remaining() != trailer {
		return nil, fmt.Errorf("%w: %d payload bytes not covered by any cell record",
			ErrMalformedBag, r.remaining()-trailer)
	}
	cells, err := buildCells(records, limits)
	if err != nil {
		return nil, err
	}

	roots := make([]*cell.Cell, header.rootCount)
	for i, idx := range header.rootIndices {
		roots[i] = cells[idx]
	}
	return roots, nil
}

// bagHeader is the parsed fixed part of an encoded bag.
type bagHeader struct {
	hasIndex     bool
	hasCRC       bool
	hasCacheBits bool
	refSize      int
	offSize      int
	cellCount    int
	rootCount    int
	totalSize    uint64
	rootIndices  []int
}

func parseBagHeader(r *reader) (bagHeader, error) {
	var header bagHeader

	magic, err := r.readUint(4)
	if err != nil {
		return header, err
	}
	if magic != bagMagic {
		return header, fmt.Errorf("%w: unexpected magic value %08x", ErrMalformedBag, magic)
	}

	flags, err := r.readByte()
	if err != nil {
		return header, err
	}
	header.hasIndex = flags&flagHasIndex != 0
	header.hasCRC = flags&flagHasCRC != 0
	header.hasCacheBits = flags&flagHasCacheBits != 0
	header.refSize = int(flags & 7)
	if header.refSize < 1 || header.refSize > 4 {
		return header, fmt.Errorf("%w: invalid reference size %d", ErrMalformedBag, header.refSize)
	}
	if header.hasCacheBits && !header.hasIndex {
		return header, fmt.Errorf("%w: cache bits without an index", ErrMalformedBag)
	}

	offSize, err := r.readByte()
	if err != nil {
		return header, err
	}
	header.offSize = int(offSize)
	if header.offSize < 1 || header.offSize > 8 {
		return header, fmt.Errorf("%w: invalid offset size %d", ErrMalformedBag, header.offSize)
	}

	var counts [3]uint64 // cells, roots, absent
	for i := range counts {
		if counts[i], err = r.readUint(header.refSize); err != nil {
			return header, err
		}
	}
	if header.totalSize, err = r.readUint(header.offSize); err != nil {
		return header, err
	}

	header.cellCount = int(counts[0])
	header.rootCount = int(counts[1])
	if counts[2] != 0 {
		return header, fmt.Errorf("%w: bags with absent cells are not supported", ErrMalformedBag)
	}
	if header.cellCount == 0 || header.rootCount == 0 || header.rootCount > header.cellCount {
		return header, fmt.Errorf("%w: inconsistent counts, %d cells and %d roots",
			ErrMalformedBag, header.cellCount, header.rootCount)
	}

	header.rootIndices = make([]int, header.rootCount)
	for i := range header.rootIndices {
		idx, err := r.readUint(header.refSize)
		if err != nil {
			return header, err
		}
		if idx >= uint64(header.cellCount) {
			return header, fmt.Errorf("%w: root index %d out of range", ErrMalformedBag, idx)
		}
		header.rootIndices[i] = int(idx)
	}
	return header, nil
}

// record is one parsed but not yet materialized cell.
type record struct {
	exotic bool
	mask   cell.LevelMask
	data   []byte
	bitLen int
	refs   []int
}

// parseRecords reads and validates all cell records before any cell is
// built. Reference indices must be strictly greater than the record's own
// index and within range.
func parseRecords(r *reader, cellCount, refSize int) ([]record, error) {
	records := make([]record, cellCount)
	for i := range records {
		d1, err := r.readByte()
		if err != nil {
			return nil, err
		}
		refCount := int(d1 & 7)
		if refCount > cell.MaxRefs {
			return nil, fmt.Errorf("%w: cell %d declares %d references", ErrMalformedBag, i, refCount)
		}
		d2, err := r.readByte()
		if err != nil {
			return nil, err
		}
		dataLen := (int(d2) + 1) / 2
		payload, err := r.readSlice(dataLen)
		if err != nil {
			return nil, err
		}

		bitLen := dataLen * 8
		if d2%2 != 0 {
			// Incomplete last byte: the completion tag marks the end of the
			// payload and must be present.
			last := payload[dataLen-1]
			if last == 0 {
				return nil, fmt.Errorf("%w: cell %d has no completion tag", ErrMalformedBag, i)
			}
			bitLen -= bits.TrailingZeros8(last) + 1
		}

		refs := make([]int, refCount)
		for j := range refs {
			idx, err := r.readUint(refSize)
			if err != nil {
				return nil, err
			}
			if idx <= uint64(i) {
				return nil, fmt.Errorf("%w: cell %d references %d, backward or self references are forbidden",
					ErrMalformedBag, i, idx)
			}
			if idx >= uint64(cellCount) {
				return nil, fmt.Errorf("%w: cell %d references %d of %d cells", ErrMalformedBag, i, idx, cellCount)
			}
			refs[j] = int(idx)
		}
		records[i] = record{
			exotic: d1&8 != 0,
			mask:   cell.LevelMask(d1 >> 5),
			data:   payload,
			bitLen: bitLen,
			refs:   refs,
		}
	}
	return records, nil
}

// buildCells materializes the parsed records in reverse order, finalizing
// every cell through the builder so that all structural and depth checks
// apply to decoded input as well.
func buildCells(records []record, limits Limits) ([]*cell.Cell, error) {
	cells := make([]*cell.Cell, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		builder := cell.NewBuilder()
		if err := builder.AppendRaw(rec.data, rec.bitLen); err != nil {
			return nil, fmt.Errorf("%w: cell %d: %w", ErrMalformedBag, i, err)
		}
		for _, ref := range rec.refs {
			if err := builder.AppendReference(cells[ref]); err != nil {
				return nil, fmt.Errorf("%w: cell %d: %w", ErrMalformedBag, i, err)
			}
		}
		var c *cell.Cell
		var err error
		if rec.exotic {
			c, err = builder.FinalizeExotic()
		} else {
			c, err = builder.Finalize()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: cell %d: %w", ErrMalformedBag, i, err)
		}
		if c.LevelMask() != rec.mask {
			return nil, fmt.Errorf("%w: cell %d declares level mask %d, content has %d",
				ErrMalformedBag, i, rec.mask, c.LevelMask())
		}
		if int(c.Depth()) > limits.MaxDepth {
			return nil, fmt.Errorf("%w: cell %d has depth %d, limit is %d", ErrLimitExceeded, i, c.Depth(), limits.MaxDepth)
		}
		cells[i] = c
	}
	return cells, nil
}

// reader is a cursor over the encoded buffer failing closed on truncation.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("%w: truncated buffer at byte %d", ErrMalformedBag, r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readSlice(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated buffer, %d bytes needed at byte %d", ErrMalformedBag, n, r.pos)
	}
	res := r.data[r.pos : r.pos+n]
	r.pos += n
	return res, nil
}

func (r *reader) skip(n int) error {
	_, err := r.readSlice(n)
	return err
}

func (r *reader) readUint(width int) (uint64, error) {
	raw, err := r.readSlice(width)
	if err != nil {
		return 0, err
	}
	var res uint64
	for _, b := range raw {
		res = res<<8 | uint64(b)
	}
	return res, nil
}
