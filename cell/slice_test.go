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

func buildCell(t *testing.T, setup func(*Builder)) *Cell {
	t.Helper()
	builder := NewBuilder()
	setup(builder)
	c, err := builder.Finalize()
	require.NoError(t, err)
	return c
}

func TestSlice_ReadsBackWhatTheBuilderWrote(t *testing.T) {
	require := require.New(t)
	c := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0b101, 3))
		require.NoError(b.AppendBits(0xdead, 16))
		require.NoError(b.AppendBit(true))
	})

	s := c.Slice()
	require.Equal(20, s.RemainingBits())

	value, err := s.ReadUint(3)
	require.NoError(err)
	require.Equal(uint64(0b101), value)

	value, err = s.ReadUint(16)
	require.NoError(err)
	require.Equal(uint64(0xdead), value)

	bit, err := s.ReadBit()
	require.NoError(err)
	require.True(bit)
	require.True(s.IsEmpty())
}

func TestSlice_FailedReadDoesNotAdvance(t *testing.T) {
	require := require.New(t)
	c := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0xab, 8))
	})

	s := c.Slice()
	require.NoError(s.Skip(4))

	_, err := s.ReadUint(8)
	require.ErrorIs(err, ErrOutOfBounds)
	require.Equal(4, s.RemainingBits(), "failed reads must not move the cursor")

	value, err := s.ReadUint(4)
	require.NoError(err)
	require.Equal(uint64(0xb), value)

	_, err = s.ReadBit()
	require.ErrorIs(err, ErrOutOfBounds)
	require.ErrorIs(s.Skip(1), ErrOutOfBounds)
}

func TestSlice_ReadRawAlignsToFirstByte(t *testing.T) {
	require := require.New(t)
	c := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0b1111, 4))
		require.NoError(b.AppendBits(0xa5, 8))
	})

	s := c.Slice()
	require.NoError(s.Skip(4))
	raw, err := s.ReadRaw(8)
	require.NoError(err)
	require.Equal([]byte{0xa5}, raw)
}

func TestSlice_SubsliceViewsWithoutMovingTheCursor(t *testing.T) {
	require := require.New(t)
	c := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0xabcd, 16))
	})

	s := c.Slice()
	sub, err := s.Subslice(4, 8)
	require.NoError(err)
	require.Equal(16, s.RemainingBits())
	require.Equal(8, sub.RemainingBits())

	value, err := sub.ReadUint(8)
	require.NoError(err)
	require.Equal(uint64(0xbc), value)

	_, err = s.Subslice(10, 8)
	require.ErrorIs(err, ErrOutOfBounds)
}

func TestSlice_ReferenceCursor(t *testing.T) {
	require := require.New(t)
	first := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(1, 8))
	})
	second := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(2, 8))
	})
	parent := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendReference(first))
		require.NoError(b.AppendReference(second))
	})

	s := parent.Slice()
	require.Equal(2, s.RemainingRefs())

	peeked, err := s.Reference(1)
	require.NoError(err)
	require.True(second.Equal(peeked))
	require.Equal(2, s.RemainingRefs())

	next, err := s.NextReference()
	require.NoError(err)
	require.True(first.Equal(next))
	next, err = s.NextReference()
	require.NoError(err)
	require.True(second.Equal(next))

	_, err = s.NextReference()
	require.ErrorIs(err, ErrOutOfBounds)
	_, err = s.Reference(0)
	require.ErrorIs(err, ErrOutOfBounds)
}

func TestSlice_CopyIsIndependent(t *testing.T) {
	require := require.New(t)
	c := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0xff, 8))
	})

	s := c.Slice()
	clone := s.Copy()
	require.NoError(s.Skip(8))
	require.Equal(0, s.RemainingBits())
	require.Equal(8, clone.RemainingBits())
}
