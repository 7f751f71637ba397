// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package boc implements the bag-of-cells codec, the binary container
// format exchanging rooted cell DAGs as a dense byte stream. Cells are
// deduplicated by content hash, ordered so that reference indices always
// point forward, and framed with a header carrying feature flags, counts,
// an optional offset index, and an optional CRC-32C checksum.
package boc

import (
	"errors"

	"github.com/0xsoniclabs/cellar/cell"
	"github.com/pbnjay/memory"
)

// bagMagic identifies the generic bag-of-cells format. The feature flags
// follow in the first header byte after the magic.
const bagMagic = 0xb5ee9c72

const (
	flagHasIndex     = 0x80
	flagHasCRC       = 0x40
	flagHasCacheBits = 0x20
)

var (
	// ErrMalformedBag is returned when decoding input that violates the
	// format: bad magic, truncated buffer, inconsistent declared sizes, or
	// reference indices that are out of range, self-referential, or not
	// strictly increasing. Decoding fails closed; no cells are returned.
	ErrMalformedBag = errors.New("malformed bag of cells")

	// ErrLimitExceeded is returned when decoding input that declares or
	// produces more cells or deeper trees than the configured limits allow.
	ErrLimitExceeded = errors.New("bag of cells limit exceeded")
)

// WriteOptions selects the optional features of an encoded bag.
type WriteOptions struct {
	// WithIndex adds a cumulative offset table for random record access.
	WithIndex bool
	// WithCRC appends a CRC-32C checksum over the whole stream.
	WithCRC bool
}

// Limits bounds the resources committed while decoding a bag. Decode input
// may originate from an untrusted peer; the limits make oversized input fail
// fast instead of exhausting memory.
type Limits struct {
	// MaxCells is the maximum number of cell records accepted in one bag.
	MaxCells int
	// MaxDepth is the maximum accepted cell tree depth. It can be lowered
	// below cell.MaxDepth but not raised beyond it, since finalization
	// enforces the hard limit regardless.
	MaxDepth int
}

// assumedCellSize is the per-cell memory estimate used to derive the default
// cell ceiling from the available physical memory.
const assumedCellSize = 256

// DefaultLimits returns decoding limits sized for this machine: the cell
// ceiling is chosen so that a fully materialized bag fits into a quarter of
// the physical memory.
func DefaultLimits() Limits {
	maxCells := int(memory.TotalMemory() / 4 / assumedCellSize)
	if maxCells < 1<<16 {
		maxCells = 1 << 16
	}
	return Limits{
		MaxCells: maxCells,
		MaxDepth: cell.MaxDepth,
	}
}
