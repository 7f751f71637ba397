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
	"fmt"

	"github.com/0xsoniclabs/cellar/cell"
)

// Resolve replaces the pruned branches in the given tree by the full subtrees
// they stand for, fetched from the source by their level-0 hash. Cells
// without pruned content are returned as they are; a parent is only rebuilt
// if one of its descendants changed. The returned root carries the same
// level-0 hash as the input, so a resolved proof still commits to the same
// state.
//
// The optional registry deduplicates resolved subtrees: a subtree referenced
// by several pruned branches is fetched and materialized at most once.
// Passing a nil registry disables the cache.
//
// Pruned branches of level two or higher stand for subtrees inside nested
// proofs rather than for stored state; they are left in place.
func Resolve(root *cell.Cell, source Source, registry *cell.Registry) (*cell.Cell, error) {
	if root.Type() == cell.PrunedBranchCell {
		if root.Level() > 1 {
			return root, nil
		}
		return resolvePruned(root, source, registry)
	}

	refs := root.References()
	changed := false
	for i, ref := range refs {
		resolved, err := Resolve(ref, source, registry)
		if err != nil {
			return nil, err
		}
		if resolved != ref {
			refs[i] = resolved
			changed = true
		}
	}
	if !changed {
		return root, nil
	}

	builder := cell.NewBuilder()
	if err := builder.AppendRaw(root.Data(), root.BitLen()); err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if err := builder.AppendReference(ref); err != nil {
			return nil, err
		}
	}
	if root.Type().IsExotic() {
		return builder.FinalizeExotic()
	}
	return builder.Finalize()
}

func resolvePruned(pruned *cell.Cell, source Source, registry *cell.Registry) (*cell.Cell, error) {
	hash := pruned.HashAt(0)
	if registry != nil {
		if cached, ok := registry.Lookup(hash); ok {
			return cached, nil
		}
	}
	loaded, err := source.Load(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pruned subtree %s: %w", hash, err)
	}
	if loaded.Hash() != hash {
		return nil, fmt.Errorf("source delivered cell %s for requested hash %s", loaded.Hash(), hash)
	}
	// The loaded tree may itself contain pruned branches, for instance when
	// the source stores state in pruned shards.
	resolved, err := Resolve(loaded, source, registry)
	if err != nil {
		return nil, err
	}
	if registry != nil {
		resolved = registry.Intern(resolved)
	}
	return resolved, nil
}
