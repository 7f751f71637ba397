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

import "math/bits"

// LevelMask records which of the hash levels 1 to 3 are materialized for a
// cell. Bit i (counted from the least significant bit) corresponds to level
// i+1; level 0 is always materialized and has no bit. Only the three lowest
// bits are used.
type LevelMask uint8

// Level returns the highest materialized level, between 0 and 3.
func (m LevelMask) Level() int {
	return bits.Len8(uint8(m))
}

// HashIndex returns the number of set bits in the mask. It is the index of
// the cell's own highest hash within the materialized hash sequence.
func (m LevelMask) HashIndex() int {
	return bits.OnesCount8(uint8(m))
}

// HashCount returns the number of materialized hashes, i.e. the set bits
// plus the always-present level 0.
func (m LevelMask) HashCount() int {
	return m.HashIndex() + 1
}

// Apply truncates the mask to the levels at or below the given level.
func (m LevelMask) Apply(level int) LevelMask {
	return m & LevelMask(1<<level-1)
}

// IsSignificant reports whether a distinct hash exists for the given level.
// Level 0 is always significant; a higher level is significant if its mask
// bit is set.
func (m LevelMask) IsSignificant(level int) bool {
	return level == 0 || m>>(level-1)&1 != 0
}
