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

import "sync"

// Registry is an interning cache mapping content hashes to cells. It
// guarantees at-most-once materialization per hash under concurrent access:
// all callers interning structurally identical cells observe the same
// instance. The registry grows without bound until explicitly flushed;
// owners decide the lifecycle, there is no implicit global instance.
type Registry struct {
	cells sync.Map // Hash -> *Cell
	size  int64
	mutex sync.Mutex // < guards size together with insertions
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Intern registers the given cell and returns the canonical instance for its
// content. If a cell with the same hash is already registered, that instance
// is returned and the argument is dropped.
func (r *Registry) Intern(c *Cell) *Cell {
	if existing, loaded := r.cells.LoadOrStore(c.Hash(), c); loaded {
		return existing.(*Cell)
	}
	r.mutex.Lock()
	r.size++
	r.mutex.Unlock()
	return c
}

// Lookup returns the registered cell for the given hash, if present.
func (r *Registry) Lookup(hash Hash) (*Cell, bool) {
	if c, ok := r.cells.Load(hash); ok {
		return c.(*Cell), true
	}
	return nil, false
}

// Size returns the number of registered cells.
func (r *Registry) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return int(r.size)
}

// Flush drops all registered cells.
func (r *Registry) Flush() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cells.Range(func(key, _ any) bool {
		r.cells.Delete(key)
		return true
	})
	r.size = 0
}
