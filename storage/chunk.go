// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"
	"sort"
)

var _ Flusher = (*Chunk)(nil)

// Chunk is a fixed capacity array of cells over the key range
// [base, base+capacity). Offset i always maps to key base+i.
//
// Cells are only instantiated when their offset is first touched, so
// offsets that are never used in an invocation cost nothing.
type Chunk struct {
	backend  Backend
	base     Key
	capacity uint64

	cells map[uint64]*Cell
}

func NewChunk(backend Backend, base Key, capacity uint64) *Chunk {
	return &Chunk{
		backend:  backend,
		base:     base,
		capacity: capacity,
		cells:    make(map[uint64]*Cell),
	}
}

func (c *Chunk) Base() Key               { return c.base }
func (c *Chunk) Capacity() uint64        { return c.capacity }
func (c *Chunk) Touched() int            { return len(c.cells) }
func (c *Chunk) KeyAt(offset uint64) Key { return c.base.Add(offset) }

func (c *Chunk) cell(offset uint64) (*Cell, error) {
	if offset >= c.capacity {
		return nil, fmt.Errorf("%w: offset %d in chunk of capacity %d", ErrOutOfBounds, offset, c.capacity)
	}
	cell, ok := c.cells[offset]
	if !ok {
		cell = NewCell(c.backend, c.base.Add(offset))
		c.cells[offset] = cell
	}
	return cell, nil
}

// Get returns the value at [offset] and whether it is present.
func (c *Chunk) Get(offset uint64) ([]byte, bool, error) {
	cell, err := c.cell(offset)
	if err != nil {
		return nil, false, err
	}
	return cell.Get()
}

func (c *Chunk) Set(offset uint64, value []byte) error {
	cell, err := c.cell(offset)
	if err != nil {
		return err
	}
	cell.Set(value)
	return nil
}

func (c *Chunk) Clear(offset uint64) error {
	cell, err := c.cell(offset)
	if err != nil {
		return err
	}
	cell.Clear()
	return nil
}

// Flush flushes every instantiated cell in ascending offset order.
func (c *Chunk) Flush() error {
	offsets := make([]uint64, 0, len(c.cells))
	for offset, cell := range c.cells {
		if cell.Dirty() {
			offsets = append(offsets, offset)
		}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	for _, offset := range offsets {
		if err := c.cells[offset].Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops every instantiated cell.
func (c *Chunk) Discard() {
	c.cells = make(map[uint64]*Cell)
}
