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
	"encoding/binary"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator_EmptyDictionary(t *testing.T) {
	require := require.New(t)
	dictionary, err := New(8)
	require.NoError(err)

	iter := dictionary.Iterate()
	require.False(iter.Next())
	require.NoError(iter.Error())
}

func TestIterator_YieldsEntriesInAscendingKeyOrder(t *testing.T) {
	require := require.New(t)
	rng := rand.New(rand.NewSource(7))

	dictionary, err := New(16)
	require.NoError(err)
	keys := map[uint16]struct{}{}
	for range 100 {
		key := uint16(rng.Intn(1 << 16))
		keys[key] = struct{}{}
		_, err := dictionary.Set(key16(key), value32(t, uint64(key)))
		require.NoError(err)
	}

	sorted := make([]uint16, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	slices.Sort(sorted)

	iter := dictionary.Iterate()
	for _, want := range sorted {
		require.True(iter.Next(), "missing key %d", want)
		require.Equal(binary.BigEndian.Uint16(iter.Key()), want)
		require.Equal(uint64(want), read32(t, iter.Value()))
	}
	require.False(iter.Next())
	require.NoError(iter.Error())
}

func TestIterator_KeysArePackedMostSignificantBitFirst(t *testing.T) {
	require := require.New(t)
	dictionary, err := New(4)
	require.NoError(err)
	_, err = dictionary.Set(key4(0b1010), value32(t, 1))
	require.NoError(err)

	iter := dictionary.Iterate()
	require.True(iter.Next())
	require.Equal([]byte{0b1010_0000}, iter.Key())
}

func TestIterator_FreshIteratorsRestart(t *testing.T) {
	require := require.New(t)
	dictionary, err := New(8)
	require.NoError(err)
	for _, key := range []uint8{3, 1, 2} {
		_, err := dictionary.Set([]byte{key}, value32(t, uint64(key)))
		require.NoError(err)
	}

	collect := func() []byte {
		var res []byte
		iter := dictionary.Iterate()
		for iter.Next() {
			res = append(res, iter.Key()...)
		}
		require.NoError(iter.Error())
		return res
	}

	first := collect()
	second := collect()
	require.Equal([]byte{1, 2, 3}, first)
	require.Equal(first, second)
}
