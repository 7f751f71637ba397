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
	"encoding/binary"
	"fmt"

	sha256 "github.com/minio/sha256-simd"
)

// computeHashes fills in the per-level hashes and depths of a freshly
// finalized cell. The level mask and cell type must already be set, and all
// referenced cells must be finalized.
//
// The hash of a cell at a level is the SHA-256 digest over the two
// descriptor bytes (with the level mask truncated to that level), the
// payload, and the depths and hashes of all children at the same level. At
// levels above the lowest materialized one, the previous level's hash stands
// in for the payload. Merkle proof and update cells query their children one
// level higher, which is what shifts hashes down through a proof. Pruned
// branches materialize only their own hash; the hashes of the elided levels
// live in the payload and are served from there by HashAt and DepthAt.
func (c *Cell) computeHashes() error {
	totalCount := c.levelMask.HashCount()
	hashCount := totalCount
	if c.cellType == PrunedBranchCell {
		hashCount = 1
	}
	offset := totalCount - hashCount
	c.hashes = make([]Hash, hashCount)
	c.depths = make([]uint16, hashCount)

	childOffset := 0
	if c.cellType == MerkleProofCell || c.cellType == MerkleUpdateCell {
		childOffset = 1
	}

	hashIndex := 0
	for level := 0; level <= c.levelMask.Level(); level++ {
		if !c.levelMask.IsSignificant(level) {
			continue
		}
		if hashIndex < offset {
			hashIndex++
			continue
		}

		d1, d2 := c.descriptors(c.levelMask.Apply(level))
		hasher := sha256.New()
		hasher.Write([]byte{d1, d2})

		if hashIndex == offset {
			hasher.Write(dataWithCompletionTag(c.data, c.bitLen))
		} else {
			prev := c.hashes[hashIndex-offset-1]
			hasher.Write(prev[:])
		}

		var depth uint16
		for _, ref := range c.refs {
			childDepth := ref.DepthAt(level + childOffset)
			var buf [2]byte
			binary.BigEndian.PutUint16(buf[:], childDepth)
			hasher.Write(buf[:])
			if childDepth > depth {
				depth = childDepth
			}
		}
		if len(c.refs) > 0 {
			if depth >= MaxDepth {
				return fmt.Errorf("%w: depth %d exceeds the maximum of %d", ErrDepthLimit, int(depth)+1, MaxDepth)
			}
			depth++
		}
		for _, ref := range c.refs {
			childHash := ref.HashAt(level + childOffset)
			hasher.Write(childHash[:])
		}

		c.depths[hashIndex-offset] = depth
		copy(c.hashes[hashIndex-offset][:], hasher.Sum(nil))
		hashIndex++
	}
	return nil
}
