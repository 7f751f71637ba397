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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_InternReturnsTheCanonicalInstance(t *testing.T) {
	require := require.New(t)
	registry := NewRegistry()

	a := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0x2a, 8))
	})
	b := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0x2a, 8))
	})
	require.NotSame(a, b)

	require.Same(a, registry.Intern(a))
	require.Same(a, registry.Intern(b), "equal content must yield the first interned instance")
	require.Equal(1, registry.Size())

	cached, ok := registry.Lookup(a.Hash())
	require.True(ok)
	require.Same(a, cached)

	_, ok = registry.Lookup(Empty().Hash())
	require.False(ok)
}

func TestRegistry_ConcurrentInterningMaterializesAtMostOnce(t *testing.T) {
	require := require.New(t)
	registry := NewRegistry()

	const workers = 16
	candidates := make([]*Cell, workers)
	for i := range candidates {
		candidates[i] = buildCell(t, func(b *Builder) {
			require.NoError(b.AppendBits(0xbeef, 16))
		})
	}

	results := make([]*Cell, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = registry.Intern(candidates[i])
		}()
	}
	wg.Wait()

	require.Equal(1, registry.Size())
	for i := 1; i < workers; i++ {
		require.Same(results[0], results[i])
	}
}

func TestRegistry_FlushDropsAllEntries(t *testing.T) {
	require := require.New(t)
	registry := NewRegistry()

	registry.Intern(Empty())
	require.Equal(1, registry.Size())

	registry.Flush()
	require.Equal(0, registry.Size())
	_, ok := registry.Lookup(Empty().Hash())
	require.False(ok)
}
