// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store persists cell trees in a content-addressed key/value store.
// Each stored tree is keyed by the identity hash of its root and encoded as a
// single-root bag of cells, compressed with snappy. Because cells are
// immutable and keys are content hashes, writes are idempotent and entries
// never need updating in place.
package store

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/0xsoniclabs/cellar/boc"
	"github.com/0xsoniclabs/cellar/cell"
)

// ErrNotFound is returned when no cell tree is stored under a requested hash.
var ErrNotFound = errors.New("cell not found")

// Source provides cell trees by the identity hash of their root. It is the
// read side of a Store, but may equally be backed by a network fetch or an
// in-memory cache.
type Source interface {
	// Load returns the cell tree rooted at the cell with the given identity
	// hash, or ErrNotFound if the source does not know it.
	Load(hash cell.Hash) (*cell.Cell, error)
}

// Store is a content-addressed cell tree store on top of LevelDB. It is safe
// for concurrent use.
type Store struct {
	db     *leveldb.DB
	limits boc.Limits
}

// Store implements the Source interface.
var _ Source = (*Store)(nil)

// Open opens the store in the given directory, creating it if needed.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		// Bags are snappy-compressed before they reach LevelDB already.
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cell store in %s: %w", path, err)
	}
	return &Store{db: db, limits: boc.DefaultLimits()}, nil
}

// Put stores the cell tree rooted in the given cell under its identity hash.
// Storing an already present tree is a no-op.
func (s *Store) Put(root *cell.Cell) error {
	hash := root.Hash()
	if ok, err := s.Has(hash); err != nil || ok {
		return err
	}
	encoded, err := boc.Encode(root)
	if err != nil {
		return fmt.Errorf("failed to encode cell %s: %w", hash, err)
	}
	return s.db.Put(hash[:], snappy.Encode(nil, encoded), nil)
}

// Load returns the cell tree stored under the given identity hash, or
// ErrNotFound. The tree is decoded and re-hashed on the way out, so a
// corrupted database entry surfaces as an error rather than as a wrong tree.
func (s *Store) Load(hash cell.Hash) (*cell.Cell, error) {
	raw, err := s.db.Get(hash[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cell %s: %w", hash, err)
	}
	encoded, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cell %s: %w", hash, err)
	}
	root, err := boc.DecodeOne(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cell %s: %w", hash, err)
	}
	if root.Hash() != hash {
		return nil, fmt.Errorf("corrupted store entry, cell %s stored under %s", root.Hash(), hash)
	}
	return root, nil
}

// Has reports whether a cell tree is stored under the given identity hash.
func (s *Store) Has(hash cell.Hash) (bool, error) {
	ok, err := s.db.Has(hash[:], nil)
	if err != nil {
		return false, fmt.Errorf("failed to probe cell %s: %w", hash, err)
	}
	return ok, nil
}

// Delete removes the cell tree stored under the given identity hash. Deleting
// an absent entry is a no-op.
func (s *Store) Delete(hash cell.Hash) error {
	return s.db.Delete(hash[:], nil)
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
