// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package collections implements typed containers over contract storage.
//
// Every container keeps only codec bytes in storage cells and loads them
// lazily. Containers must be flushed (normally through their
// [storage.Layout]) for any change to reach the backend.
package collections

import (
	"fmt"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/storage"
)

var _ storage.Flusher = (*Value[uint64])(nil)

// Value is a single typed value stored at one key.
type Value[T any] struct {
	cell *storage.Cell
}

// NewValue declares a Value in [l].
func NewValue[T any](l *storage.Layout) (*Value[T], error) {
	key, err := l.Declare(1)
	if err != nil {
		return nil, err
	}
	v := newValueAt[T](l.Backend(), key)
	l.Register(v)
	return v, nil
}

func newValueAt[T any](backend storage.Backend, key storage.Key) *Value[T] {
	return &Value[T]{cell: storage.NewCell(backend, key)}
}

func (v *Value[T]) Key() storage.Key { return v.cell.Key() }

// Load returns the value and whether it is present.
func (v *Value[T]) Load() (T, bool, error) {
	var zero T
	raw, ok, err := v.cell.Get()
	if err != nil || !ok {
		return zero, false, err
	}
	decoded, err := codec.Decode[T](raw)
	if err != nil {
		return zero, false, fmt.Errorf("value at %s: %w", v.cell.Key(), err)
	}
	return decoded, true, nil
}

// Get returns the value or [ErrNotFound].
func (v *Value[T]) Get() (T, error) {
	decoded, ok, err := v.Load()
	if err != nil {
		return decoded, err
	}
	if !ok {
		return decoded, fmt.Errorf("%w: value at %s", ErrNotFound, v.cell.Key())
	}
	return decoded, nil
}

// GetOr returns the value, or [def] when it is absent.
func (v *Value[T]) GetOr(def T) (T, error) {
	decoded, ok, err := v.Load()
	if err != nil || !ok {
		return def, err
	}
	return decoded, nil
}

func (v *Value[T]) Set(value T) error {
	raw, err := codec.Encode(value)
	if err != nil {
		return err
	}
	v.cell.Set(raw)
	return nil
}

// Clear marks the value absent.
func (v *Value[T]) Clear() { v.cell.Clear() }

func (v *Value[T]) Flush() error { return v.cell.Flush() }
func (v *Value[T]) Discard()     { v.cell.Discard() }

func loadElem[T any](c *storage.Chunk, offset uint64) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(offset)
	if err != nil || !ok {
		return zero, false, err
	}
	decoded, err := codec.Decode[T](raw)
	if err != nil {
		return zero, false, fmt.Errorf("element at %s: %w", c.KeyAt(offset), err)
	}
	return decoded, true, nil
}

// mustLoadElem loads an element the header claims to be present.
func mustLoadElem[T any](c *storage.Chunk, offset uint64) (T, error) {
	decoded, ok, err := loadElem[T](c, offset)
	if err != nil {
		return decoded, err
	}
	if !ok {
		return decoded, fmt.Errorf("%w: missing element at %s", ErrCorrupt, c.KeyAt(offset))
	}
	return decoded, nil
}

func storeElem[T any](c *storage.Chunk, offset uint64, value T) error {
	raw, err := codec.Encode(value)
	if err != nil {
		return err
	}
	return c.Set(offset, raw)
}
