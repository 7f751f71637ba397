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

import "errors"

var (
	// ErrCellOverflow is returned by builder append operations that would
	// exceed the 1023-bit data capacity or the 4-reference limit of a cell.
	// A failed append leaves the builder unchanged.
	ErrCellOverflow = errors.New("cell capacity exceeded")

	// ErrOutOfBounds is returned by slice read, skip, and reference accesses
	// reaching beyond the slice's current bit or reference range.
	ErrOutOfBounds = errors.New("slice access out of bounds")

	// ErrMalformedExoticCell is returned when finalizing an exotic cell whose
	// content violates the structural constraints of its cell type.
	ErrMalformedExoticCell = errors.New("malformed exotic cell")

	// ErrDepthLimit is returned when finalizing a cell whose depth would
	// exceed MaxDepth.
	ErrDepthLimit = errors.New("cell depth limit exceeded")
)
