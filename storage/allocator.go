// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"errors"
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractstore/codec"
)

var errZeroKey = errors.New("allocator origin must not be the zero key")

// cursor is the persisted part of an allocator.
type cursor struct {
	// LayoutEnd is the first key after the declared layout.
	LayoutEnd Key `serialize:"true"`
	// Next is the first key never handed out.
	Next Key `serialize:"true"`
}

// Allocator hands out disjoint key ranges.
//
// Ranges for the declared layout are handed out by [Allocator.Declare] in
// declaration order starting right after the origin, so the same layout
// always lands on the same keys. Ranges needed at runtime come from
// [Allocator.Allocate], which continues from the cursor persisted at the
// origin by previous invocations. Nothing is ever handed out twice.
type Allocator struct {
	origin Key
	cell   *Cell

	next      Key
	layoutEnd Key
	resumed   bool
	// persisted is the cursor as last read or written
	persisted cursor
	hasStored bool
}

// NewAllocator returns an allocator whose cursor lives at [origin].
func NewAllocator(backend Backend, origin Key) (*Allocator, error) {
	if origin == (Key{}) {
		return nil, errZeroKey
	}
	start := origin.Add(1)
	return &Allocator{
		origin:    origin,
		cell:      NewCell(backend, origin),
		next:      start,
		layoutEnd: start,
	}, nil
}

func (a *Allocator) Origin() Key { return a.origin }

// Declare reserves [size] keys for a structure of the declared layout.
func (a *Allocator) Declare(size uint64) (Key, error) {
	if a.resumed {
		return Key{}, ErrLayoutSealed
	}
	key := a.bump(size)
	a.layoutEnd = a.next
	return key, nil
}

// Allocate reserves [size] fresh keys at runtime. The first call seals the
// declared layout and resumes from the persisted cursor.
func (a *Allocator) Allocate(size uint64) (Key, error) {
	if err := a.resume(); err != nil {
		return Key{}, err
	}
	return a.bump(size), nil
}

func (a *Allocator) bump(size uint64) Key {
	if size == 0 {
		size = 1
	}
	key := a.next
	a.next = a.next.Add(size)
	return key
}

func (a *Allocator) resume() error {
	if a.resumed {
		return nil
	}
	raw, ok, err := a.cell.Get()
	if err != nil {
		return err
	}
	a.resumed = true
	if !ok {
		return nil
	}
	stored, err := codec.Decode[cursor](raw)
	if err != nil {
		return fmt.Errorf("failed to decode allocator cursor at %s: %w", a.origin, err)
	}
	a.persisted, a.hasStored = stored, true

	if stored.LayoutEnd != a.layoutEnd && stored.Next != stored.LayoutEnd {
		// runtime ranges were placed after the old layout end
		return fmt.Errorf("%w: layout ends at %s but %s was persisted", ErrLayoutMismatch, a.layoutEnd, stored.LayoutEnd)
	}
	if stored.Next.Compare(a.next) > 0 {
		a.next = stored.Next
	}
	log.Debug("resumed allocator", "origin", a.origin, "next", a.next)
	return nil
}

// Flush persists the cursor if it moved. An allocator that never resumed
// handed out no runtime keys, so there is nothing to persist.
func (a *Allocator) Flush() error {
	if !a.resumed {
		return nil
	}
	current := cursor{LayoutEnd: a.layoutEnd, Next: a.next}
	if a.hasStored && a.persisted == current {
		return nil
	}
	raw, err := codec.Encode(current)
	if err != nil {
		return err
	}
	a.cell.Set(raw)
	if err := a.cell.Flush(); err != nil {
		return err
	}
	a.persisted, a.hasStored = current, true
	return nil
}

// Discard forgets everything learned from storage. Declared ranges are kept.
func (a *Allocator) Discard() {
	a.cell.Discard()
	a.resumed = false
	a.hasStored = false
	a.persisted = cursor{}
	a.next = a.layoutEnd
}
