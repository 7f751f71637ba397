// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/0xsoniclabs/cellar/cell"
)

// prunedTree builds a full tree and a copy in which the second child is
// replaced by a pruned branch.
func prunedTree(t *testing.T) (full, partial, elided *cell.Cell) {
	t.Helper()
	require := require.New(t)

	left := buildLeaf(t, 0x11, 8)
	elided = buildParent(t, 0x22, 8, buildLeaf(t, 0x33, 8))
	full = buildParent(t, 0xaa, 8, left, elided)

	pruned, err := cell.NewPrunedBranch(elided)
	require.NoError(err)
	partial = buildParent(t, 0xaa, 8, left, pruned)
	require.Equal(full.Hash(), partial.HashAt(0))
	return full, partial, elided
}

func TestResolve_RestoresPrunedSubtreesFromTheStore(t *testing.T) {
	require := require.New(t)
	db, err := Open(t.TempDir())
	require.NoError(err)
	defer db.Close()

	full, partial, elided := prunedTree(t)
	require.NoError(db.Put(elided))

	resolved, err := Resolve(partial, db, cell.NewRegistry())
	require.NoError(err)
	require.Equal(full.Hash(), resolved.Hash())
	require.Equal(0, resolved.Level(), "no pruned content may remain")
}

func TestResolve_CellsWithoutPrunedContentAreReturnedAsIs(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	source := NewMockSource(ctrl)

	full, _, _ := prunedTree(t)
	resolved, err := Resolve(full, source, nil)
	require.NoError(err)
	require.Same(full, resolved, "a fully materialized tree needs no source access")
}

func TestResolve_MissingSubtreesFailTheResolution(t *testing.T) {
	require := require.New(t)
	db, err := Open(t.TempDir())
	require.NoError(err)
	defer db.Close()

	_, partial, _ := prunedTree(t)
	_, err = Resolve(partial, db, nil)
	require.ErrorIs(err, ErrNotFound)
}

func TestResolve_SharedSubtreesAreFetchedOnce(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	source := NewMockSource(ctrl)

	_, partial, elided := prunedTree(t)
	pruned, err := partial.Reference(1)
	require.NoError(err)
	root := buildParent(t, 0xbb, 8, pruned, pruned, partial)

	source.EXPECT().Load(elided.Hash()).Return(elided, nil)

	resolved, err := Resolve(root, source, cell.NewRegistry())
	require.NoError(err)
	require.Equal(0, resolved.Level())

	want := buildParent(t, 0xbb, 8, elided, elided,
		buildParent(t, 0xaa, 8, buildLeaf(t, 0x11, 8), elided))
	require.Equal(want.Hash(), resolved.Hash())
}

func TestResolve_MismatchedSourceContentIsRejected(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	source := NewMockSource(ctrl)

	_, partial, elided := prunedTree(t)
	source.EXPECT().Load(elided.Hash()).Return(buildLeaf(t, 0x44, 8), nil)

	_, err := Resolve(partial, source, nil)
	require.ErrorContains(err, "requested hash")
}

func TestResolve_ProofsStayValidAfterResolution(t *testing.T) {
	require := require.New(t)
	db, err := Open(t.TempDir())
	require.NoError(err)
	defer db.Close()

	full, partial, elided := prunedTree(t)
	require.NoError(db.Put(elided))
	proof, err := cell.NewMerkleProof(partial)
	require.NoError(err)

	resolved, err := Resolve(proof, db, cell.NewRegistry())
	require.NoError(err)
	require.Equal(cell.MerkleProofCell, resolved.Type())

	certified, err := cell.CheckProof(resolved)
	require.NoError(err)
	require.Equal(full.Hash(), certified.Hash())
}
