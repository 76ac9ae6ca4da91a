// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
)

type cellState uint8

const (
	// unsynced cells have not been read from the backend in this
	// instantiation.
	unsynced cellState = iota
	// clean cells hold exactly what the backend holds.
	clean
	// dirty cells were written in memory and not yet flushed.
	dirty
)

var _ Flusher = (*Cell)(nil)

// Cell is a lazily synchronized cache of the value stored at one key.
//
// A Cell issues at most one backend read per instantiation and at most one
// backend write per Flush.
type Cell struct {
	backend Backend
	key     Key

	state   cellState
	present bool
	value   []byte
}

// NewCell returns an unsynced cell over [key].
func NewCell(backend Backend, key Key) *Cell {
	return &Cell{
		backend: backend,
		key:     key,
	}
}

func (c *Cell) Key() Key { return c.key }

// Get returns the value at the cell's key and whether one is present.
func (c *Cell) Get() ([]byte, bool, error) {
	if err := c.sync(); err != nil {
		return nil, false, err
	}
	return c.value, c.present, nil
}

func (c *Cell) sync() error {
	if c.state != unsynced {
		return nil
	}
	value, err := c.backend.GetStorage(c.key)
	switch {
	case err == nil:
		c.value, c.present = value, true
	case errors.Is(err, database.ErrNotFound):
		c.value, c.present = nil, false
	default:
		return fmt.Errorf("failed to load storage at %s: %w", c.key, err)
	}
	c.state = clean
	return nil
}

// Set caches [value] as present and marks the cell dirty. A nil value is
// stored as a present, empty value.
func (c *Cell) Set(value []byte) {
	if value == nil {
		value = []byte{}
	}
	c.value, c.present = value, true
	c.state = dirty
}

// Clear caches the absence of a value and marks the cell dirty. On flush
// this becomes a storage clear, not a write of empty bytes.
func (c *Cell) Clear() {
	c.value, c.present = nil, false
	c.state = dirty
}

// Flush writes the cached value back if the cell is dirty.
func (c *Cell) Flush() error {
	if c.state != dirty {
		return nil
	}
	var err error
	if c.present {
		err = c.backend.SetStorage(c.key, c.value)
	} else {
		err = c.backend.ClearStorage(c.key)
	}
	if err != nil {
		return fmt.Errorf("failed to flush storage at %s: %w", c.key, err)
	}
	c.state = clean
	return nil
}

// Discard forgets the cached value so the next Get reads the backend again.
func (c *Cell) Discard() {
	c.value, c.present = nil, false
	c.state = unsynced
}

// Dirty reports whether the cell holds unflushed changes.
func (c *Cell) Dirty() bool { return c.state == dirty }
