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

// Info summarizes the header of an encoded bag without materializing any
// cells.
type Info struct {
	CellCount  int    // < number of cell records
	RootCount  int    // < number of roots
	DataSize   uint64 // < declared payload size in bytes
	RefSize    int    // < byte width of counts and reference indices
	OffsetSize int    // < byte width of size and index fields
	HasIndex   bool   // < offset index present
	HasCRC     bool   // < CRC-32C trailer present
}

// Inspect parses the header of an encoded bag. The cell records themselves
// are not touched, making this safe and cheap even for bags far beyond the
// decoding limits.
func Inspect(data []byte) (Info, error) {
	r := reader{data: data}
	header, err := parseBagHeader(&r)
	if err != nil {
		return Info{}, err
	}
	return Info{
		CellCount:  header.cellCount,
		RootCount:  header.rootCount,
		DataSize:   header.totalSize,
		RefSize:    header.refSize,
		OffsetSize: header.offSize,
		HasIndex:   header.hasIndex,
		HasCRC:     header.hasCRC,
	}, nil
}
