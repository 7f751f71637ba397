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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelMask_LevelIsHighestSetBit(t *testing.T) {
	require := require.New(t)
	tests := map[LevelMask]int{
		0b000: 0,
		0b001: 1,
		0b010: 2,
		0b011: 2,
		0b100: 3,
		0b101: 3,
		0b110: 3,
		0b111: 3,
	}
	for mask, level := range tests {
		require.Equal(level, mask.Level(), "mask %03b", mask)
	}
}

func TestLevelMask_HashIndexCountsSetBits(t *testing.T) {
	require := require.New(t)
	tests := map[LevelMask]int{
		0b000: 0,
		0b001: 1,
		0b010: 1,
		0b011: 2,
		0b101: 2,
		0b111: 3,
	}
	for mask, index := range tests {
		require.Equal(index, mask.HashIndex(), "mask %03b", mask)
		require.Equal(index+1, mask.HashCount(), "mask %03b", mask)
	}
}

func TestLevelMask_ApplyTruncatesToLevel(t *testing.T) {
	require := require.New(t)
	mask := LevelMask(0b101)
	require.Equal(LevelMask(0b000), mask.Apply(0))
	require.Equal(LevelMask(0b001), mask.Apply(1))
	require.Equal(LevelMask(0b001), mask.Apply(2))
	require.Equal(LevelMask(0b101), mask.Apply(3))
}

func TestLevelMask_SignificantLevels(t *testing.T) {
	require := require.New(t)
	mask := LevelMask(0b010)
	require.True(mask.IsSignificant(0), "level 0 is always significant")
	require.False(mask.IsSignificant(1))
	require.True(mask.IsSignificant(2))
	require.False(mask.IsSignificant(3))
}
