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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xsoniclabs/cellar/cell"
)

func buildLeaf(t *testing.T, value uint64, width int) *cell.Cell {
	t.Helper()
	builder := cell.NewBuilder()
	require.NoError(t, builder.AppendBits(value, width))
	c, err := builder.Finalize()
	require.NoError(t, err)
	return c
}

func buildParent(t *testing.T, value uint64, width int, refs ...*cell.Cell) *cell.Cell {
	t.Helper()
	builder := cell.NewBuilder()
	require.NoError(t, builder.AppendBits(value, width))
	for _, ref := range refs {
		require.NoError(t, builder.AppendReference(ref))
	}
	c, err := builder.Finalize()
	require.NoError(t, err)
	return c
}

func TestEncode_RoundTripPreservesTheTree(t *testing.T) {
	require := require.New(t)
	root := buildParent(t, 0xaa, 8,
		buildLeaf(t, 0x01, 8),
		buildLeaf(t, 0x02, 8),
	)

	encoded, err := Encode(root)
	require.NoError(err)
	decoded, err := DecodeOne(encoded)
	require.NoError(err)
	require.Equal(root.Hash(), decoded.Hash())
	require.Equal(root.Data(), decoded.Data())
	require.Equal(2, decoded.RefCount())
}

func TestEncode_SharedSubtreesAreWrittenOnce(t *testing.T) {
	require := require.New(t)
	shared := buildLeaf(t, 0x2a, 8)
	root := buildParent(t, 0xaa, 8, shared, shared, buildLeaf(t, 0x2a, 8))

	encoded, err := Encode(root)
	require.NoError(err)
	info, err := Inspect(encoded)
	require.NoError(err)
	require.Equal(2, info.CellCount, "three references to equal content, one record")

	decoded, err := DecodeOne(encoded)
	require.NoError(err)
	require.Equal(root.Hash(), decoded.Hash())
}

func TestEncode_IsDeterministic(t *testing.T) {
	require := require.New(t)
	build := func() *cell.Cell {
		return buildParent(t, 0xaa, 8,
			buildLeaf(t, 0x01, 8),
			buildParent(t, 0xbb, 8, buildLeaf(t, 0x02, 8)),
		)
	}

	first, err := Encode(build())
	require.NoError(err)
	second, err := Encode(build())
	require.NoError(err)
	require.Equal(first, second, "equal content must encode to equal bytes")
}

func TestEncode_IncompleteBytesCarryACompletionTag(t *testing.T) {
	require := require.New(t)
	root := buildLeaf(t, 0b101, 3)

	encoded, err := Encode(root)
	require.NoError(err)
	decoded, err := DecodeOne(encoded)
	require.NoError(err)
	require.Equal(3, decoded.BitLen())
	require.Equal(root.Hash(), decoded.Hash())
}

func TestEncode_MultipleRoots(t *testing.T) {
	require := require.New(t)
	shared := buildLeaf(t, 0x2a, 8)
	first := buildParent(t, 0x01, 8, shared)
	second := buildParent(t, 0x02, 8, shared)

	encoded, err := Encode(first, second)
	require.NoError(err)
	info, err := Inspect(encoded)
	require.NoError(err)
	require.Equal(2, info.RootCount)
	require.Equal(3, info.CellCount, "the shared leaf is stored once")

	roots, err := Decode(encoded)
	require.NoError(err)
	require.Len(roots, 2)
	require.Equal(first.Hash(), roots[0].Hash())
	require.Equal(second.Hash(), roots[1].Hash())

	_, err = DecodeOne(encoded)
	require.ErrorIs(err, ErrMalformedBag)
}

func TestEncode_WithoutRootsFails(t *testing.T) {
	require := require.New(t)
	_, err := Encode()
	require.Error(err)
}

func TestEncode_OptionalFeaturesRoundTrip(t *testing.T) {
	require := require.New(t)
	root := buildParent(t, 0xaa, 8, buildLeaf(t, 0x01, 8))

	for _, options := range []WriteOptions{
		{},
		{WithIndex: true},
		{WithCRC: true},
		{WithIndex: true, WithCRC: true},
	} {
		encoded, err := EncodeWithOptions(options, root)
		require.NoError(err)

		info, err := Inspect(encoded)
		require.NoError(err)
		require.Equal(options.WithIndex, info.HasIndex, "options %+v", options)
		require.Equal(options.WithCRC, info.HasCRC, "options %+v", options)

		decoded, err := DecodeOne(encoded)
		require.NoError(err, "options %+v", options)
		require.Equal(root.Hash(), decoded.Hash())
	}
}

func TestEncode_ExoticCellsRoundTrip(t *testing.T) {
	require := require.New(t)
	full := buildParent(t, 0xaa, 8,
		buildLeaf(t, 0x11, 8),
		buildLeaf(t, 0x22, 8),
	)
	elided, err := full.Reference(1)
	require.NoError(err)
	pruned, err := cell.NewPrunedBranch(elided)
	require.NoError(err)
	kept, err := full.Reference(0)
	require.NoError(err)
	partial := buildParent(t, 0xaa, 8, kept, pruned)
	proof, err := cell.NewMerkleProof(partial)
	require.NoError(err)

	encoded, err := Encode(proof)
	require.NoError(err)
	decoded, err := DecodeOne(encoded)
	require.NoError(err)
	require.Equal(cell.MerkleProofCell, decoded.Type())
	require.Equal(proof.Hash(), decoded.Hash())

	certified, err := cell.CheckProof(decoded)
	require.NoError(err)
	require.Equal(full.Hash(), certified.HashAt(0))
}
