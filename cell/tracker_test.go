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

func TestTracker_RecordsVisitedCells(t *testing.T) {
	require := require.New(t)
	root, left, right := sampleTree(t)

	tracker := NewTracker()
	require.False(tracker.Visited(root))
	require.Equal(0, tracker.Size())

	tracker.Visit(root)
	tracker.Visit(left)
	tracker.Visit(left) // re-visiting is a no-op
	require.True(tracker.Visited(root))
	require.True(tracker.Visited(left))
	require.False(tracker.Visited(right))
	require.Equal(2, tracker.Size())

	tracker.Reset()
	require.False(tracker.Visited(root))
	require.Equal(0, tracker.Size())
}

func TestTracker_TrackedCursorsRecordResolvedReferences(t *testing.T) {
	require := require.New(t)
	root, left, right := sampleTree(t)

	tracker := NewTracker()
	s := tracker.Track(root)
	require.True(tracker.Visited(root))
	require.False(tracker.Visited(left))
	require.False(tracker.Visited(right))

	child, err := s.NextReference()
	require.NoError(err)
	require.True(left.Equal(child))
	require.True(tracker.Visited(left))
	require.False(tracker.Visited(right), "untouched references stay unrecorded")
}

func TestTracker_DerivedCursorsKeepRecording(t *testing.T) {
	require := require.New(t)
	root, left, right := sampleTree(t)

	tracker := NewTracker()
	s := tracker.Track(root)

	_, err := s.Copy().NextReference()
	require.NoError(err)
	require.True(tracker.Visited(left))

	sub, err := s.Subslice(0, s.RemainingBits())
	require.NoError(err)
	_, err = sub.Reference(1)
	require.NoError(err)
	require.True(tracker.Visited(right))
}

func TestTracker_PlainCursorsDoNotRecord(t *testing.T) {
	require := require.New(t)
	root, left, _ := sampleTree(t)

	tracker := NewTracker()
	_, err := root.Slice().NextReference()
	require.NoError(err)
	require.False(tracker.Visited(left))
	require.Equal(0, tracker.Size())
}

func TestTracker_BuildProofPrunesUnvisitedSubtrees(t *testing.T) {
	require := require.New(t)
	root, left, right := sampleTree(t)

	// Read only the left leaf through a tracked cursor.
	tracker := NewTracker()
	s := tracker.Track(root)
	_, err := s.NextReference()
	require.NoError(err)

	proof, err := tracker.BuildProof(root)
	require.NoError(err)
	require.Equal(MerkleProofCell, proof.Type())

	certified, err := CheckProof(proof)
	require.NoError(err)
	require.Equal(root.Hash(), certified.HashAt(0), "level 0 must agree with the full tree")

	kept, err := certified.Reference(0)
	require.NoError(err)
	require.True(left.Equal(kept))

	pruned, err := certified.Reference(1)
	require.NoError(err)
	require.Equal(PrunedBranchCell, pruned.Type())
	require.Equal(right.Hash(), pruned.HashAt(0))
}

func TestTracker_BuildProofKeepsFullyVisitedTreesIntact(t *testing.T) {
	require := require.New(t)
	root, left, right := sampleTree(t)

	tracker := NewTracker()
	tracker.Visit(root)
	tracker.Visit(left)
	tracker.Visit(right)

	proof, err := tracker.BuildProof(root)
	require.NoError(err)
	certified, err := CheckProof(proof)
	require.NoError(err)
	require.True(root.Equal(certified))
	require.Equal(0, certified.Level(), "nothing was pruned")
}

func TestTracker_BuildProofPrunesBelowTheDeepestVisitedCell(t *testing.T) {
	require := require.New(t)

	leaf := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0x11, 8))
	})
	mid := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0x22, 8))
		require.NoError(b.AppendReference(leaf))
	})
	root := buildCell(t, func(b *Builder) {
		require.NoError(b.AppendBits(0x33, 8))
		require.NoError(b.AppendReference(mid))
	})

	tracker := NewTracker()
	tracker.Visit(root)
	tracker.Visit(mid)

	proof, err := tracker.BuildProof(root)
	require.NoError(err)
	certified, err := CheckProof(proof)
	require.NoError(err)
	require.Equal(root.Hash(), certified.HashAt(0))

	rebuilt, err := certified.Reference(0)
	require.NoError(err)
	require.Equal(mid.Hash(), rebuilt.HashAt(0))
	pruned, err := rebuilt.Reference(0)
	require.NoError(err)
	require.Equal(PrunedBranchCell, pruned.Type())
	require.Equal(leaf.Hash(), pruned.HashAt(0))
}

func TestTracker_BuildProofRequiresAVisitedRoot(t *testing.T) {
	require := require.New(t)
	root, _, _ := sampleTree(t)

	_, err := NewTracker().BuildProof(root)
	require.ErrorContains(err, "never visited")
}
