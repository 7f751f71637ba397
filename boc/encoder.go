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
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/0xsoniclabs/cellar/cell"
)

// Encode serializes the DAGs rooted in the given cells into a bag without
// optional features.
func Encode(roots ...*cell.Cell) ([]byte, error) {
	return EncodeWithOptions(WriteOptions{}, roots...)
}

// EncodeWithOptions serializes the DAGs rooted in the given cells. All
// reachable cells are deduplicated by content hash and written in a
// deterministic topological order in which every reference index is strictly
// greater than the index of the referencing cell.
func EncodeWithOptions(options WriteOptions, roots ...*cell.Cell) ([]byte, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("cannot encode a bag without roots")
	}

	order := orderCells(roots)
	index := make(map[cell.Hash]int, len(order))
	for i, c := range order {
		index[c.Hash()] = i
	}

	refSize := byteWidth(uint64(len(order)))
	totalSize := 0
	for _, c := range order {
		totalSize += recordSize(c, refSize)
	}
	offSize := byteWidth(uint64(totalSize))

	var buf bytes.Buffer
	writeUint(&buf, bagMagic, 4)
	flags := byte(refSize)
	if options.WithIndex {
		flags |= flagHasIndex
	}
	if options.WithCRC {
		flags |= flagHasCRC
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(offSize))
	writeUint(&buf, uint64(len(order)), refSize)
	writeUint(&buf, uint64(len(roots)), refSize)
	writeUint(&buf, 0, refSize) // absent cells, never produced
	writeUint(&buf, uint64(totalSize), offSize)
	for _, root := range roots {
		writeUint(&buf, uint64(index[root.Hash()]), refSize)
	}
	if options.WithIndex {
		offset := 0
		for _, c := range order {
			offset += recordSize(c, refSize)
			writeUint(&buf, uint64(offset), offSize)
		}
	}
	for _, c := range order {
		writeRecord(&buf, c, index, refSize)
	}
	if options.WithCRC {
		checksum := crc32.Checksum(buf.Bytes(), crc32.MakeTable(crc32.Castagnoli))
		var trailer [4]byte
		binary.LittleEndian.PutUint32(trailer[:], checksum)
		buf.Write(trailer[:])
	}
	return buf.Bytes(), nil
}

// orderCells lists all cells reachable from the roots, parents before
// children, each distinct cell exactly once. The order is the reversed
// post-order of a depth-first traversal, which guarantees that for every
// reference the referenced cell appears at a strictly larger index.
func orderCells(roots []*cell.Cell) []*cell.Cell {
	var post []*cell.Cell
	seen := make(map[cell.Hash]struct{})

	var visit func(c *cell.Cell)
	visit = func(c *cell.Cell) {
		hash := c.Hash()
		if _, ok := seen[hash]; ok {
			return
		}
		seen[hash] = struct{}{}
		for _, ref := range c.References() {
			visit(ref)
		}
		post = append(post, c)
	}
	for _, root := range roots {
		visit(root)
	}

	res := make([]*cell.Cell, len(post))
	for i, c := range post {
		res[len(post)-1-i] = c
	}
	return res
}

// recordSize returns the encoded size of one cell record: two descriptor
// bytes, the padded payload, and one index per reference.
func recordSize(c *cell.Cell, refSize int) int {
	return 2 + (c.BitLen()+7)/8 + c.RefCount()*refSize
}

func writeRecord(buf *bytes.Buffer, c *cell.Cell, index map[cell.Hash]int, refSize int) {
	d1, d2 := c.Descriptor()
	buf.WriteByte(d1)
	buf.WriteByte(d2)
	data := c.Data()
	if c.BitLen()%8 != 0 {
		data[len(data)-1] |= 1 << (7 - c.BitLen()%8) // completion tag
	}
	buf.Write(data)
	for _, ref := range c.References() {
		writeUint(buf, uint64(index[ref.Hash()]), refSize)
	}
}

// byteWidth returns the minimal number of bytes needed to represent the
// given value, at least 1.
func byteWidth(value uint64) int {
	width := 1
	for width < 8 && value >= 1<<(8*width) {
		width++
	}
	return width
}

// writeUint writes the low bytes of the value in big-endian order.
func writeUint(buf *bytes.Buffer, value uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(value >> (8 * i)))
	}
}
