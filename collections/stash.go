// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"fmt"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/storage"
)

// noVacancy terminates the vacant list.
const noVacancy = MaxLen

var _ storage.Flusher = (*Stash[uint64])(nil)

type stashHeader struct {
	// Len is the number of occupied entries.
	Len uint64 `serialize:"true"`
	// Entries is the number of entries ever created.
	Entries uint64 `serialize:"true"`
	// Head is the lowest vacant index.
	Head uint64 `serialize:"true"`
}

type stashEntry struct {
	Vacant bool   `serialize:"true"`
	Next   uint64 `serialize:"true"`
	Value  []byte `serialize:"true"`
}

// Stash stores values under stable indices. Removing a value frees its
// index, and [Stash.Put] reuses the lowest free index before creating a new
// one.
type Stash[T any] struct {
	header  *Value[stashHeader]
	entries *storage.Chunk

	hdr    stashHeader
	loaded bool
}

// NewStash declares a Stash in [l].
func NewStash[T any](l *storage.Layout) (*Stash[T], error) {
	headerKey, err := l.Declare(1)
	if err != nil {
		return nil, err
	}
	base, err := l.Declare(MaxLen)
	if err != nil {
		return nil, err
	}
	s := &Stash[T]{
		header:  newValueAt[stashHeader](l.Backend(), headerKey),
		entries: storage.NewChunk(l.Backend(), base, MaxLen),
	}
	l.Register(s)
	return s, nil
}

func (s *Stash[T]) load() error {
	if s.loaded {
		return nil
	}
	hdr, err := s.header.GetOr(stashHeader{Head: noVacancy})
	if err != nil {
		return err
	}
	s.hdr, s.loaded = hdr, true
	return nil
}

func (s *Stash[T]) saveHeader() error {
	return s.header.Set(s.hdr)
}

// Len returns the number of occupied entries.
func (s *Stash[T]) Len() (uint64, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	return s.hdr.Len, nil
}

// Entries returns one past the highest index ever handed out.
func (s *Stash[T]) Entries() (uint64, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	return s.hdr.Entries, nil
}

func (s *Stash[T]) entry(i uint64) (stashEntry, error) {
	if err := s.load(); err != nil {
		return stashEntry{}, err
	}
	if i >= s.hdr.Entries {
		return stashEntry{}, fmt.Errorf("%w: index %d with %d entries", ErrOutOfBounds, i, s.hdr.Entries)
	}
	return mustLoadElem[stashEntry](s.entries, i)
}

func (s *Stash[T]) occupied(i uint64) (stashEntry, error) {
	e, err := s.entry(i)
	if err != nil {
		return e, err
	}
	if e.Vacant {
		return e, fmt.Errorf("%w: index %d is vacant", ErrNotFound, i)
	}
	return e, nil
}

// Put stores [value] and returns its index.
func (s *Stash[T]) Put(value T) (uint64, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	raw, err := codec.Encode(value)
	if err != nil {
		return 0, err
	}

	var i uint64
	if s.hdr.Head != noVacancy {
		i = s.hdr.Head
		vacant, err := s.entry(i)
		if err != nil {
			return 0, err
		}
		if !vacant.Vacant {
			return 0, fmt.Errorf("%w: vacant list points at occupied index %d", ErrCorrupt, i)
		}
		s.hdr.Head = vacant.Next
	} else {
		if s.hdr.Entries == MaxLen {
			return 0, fmt.Errorf("%w: stash holds %d entries", ErrCapacityExceeded, MaxLen)
		}
		i = s.hdr.Entries
		s.hdr.Entries++
	}
	if err := storeElem(s.entries, i, stashEntry{Value: raw}); err != nil {
		return 0, err
	}
	s.hdr.Len++
	return i, s.saveHeader()
}

func (s *Stash[T]) Get(i uint64) (T, error) {
	e, err := s.occupied(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return codec.Decode[T](e.Value)
}

func (s *Stash[T]) Contains(i uint64) (bool, error) {
	if err := s.load(); err != nil {
		return false, err
	}
	if i >= s.hdr.Entries {
		return false, nil
	}
	e, err := s.entry(i)
	return err == nil && !e.Vacant, err
}

// Set replaces the value at an occupied index and returns the old value.
func (s *Stash[T]) Set(i uint64, value T) (T, error) {
	var old T
	e, err := s.occupied(i)
	if err != nil {
		return old, err
	}
	old, err = codec.Decode[T](e.Value)
	if err != nil {
		return old, err
	}
	raw, err := codec.Encode(value)
	if err != nil {
		return old, err
	}
	return old, storeElem(s.entries, i, stashEntry{Value: raw})
}

// Take removes and returns the value at [i], freeing the index.
func (s *Stash[T]) Take(i uint64) (T, error) {
	var zero T
	e, err := s.occupied(i)
	if err != nil {
		return zero, err
	}
	value, err := codec.Decode[T](e.Value)
	if err != nil {
		return zero, err
	}

	// the vacant list is kept sorted so the lowest index is reused first
	if s.hdr.Head == noVacancy || i < s.hdr.Head {
		if err := storeElem(s.entries, i, stashEntry{Vacant: true, Next: s.hdr.Head}); err != nil {
			return zero, err
		}
		s.hdr.Head = i
	} else {
		prev := s.hdr.Head
		prevEntry, err := s.entry(prev)
		if err != nil {
			return zero, err
		}
		for prevEntry.Next != noVacancy && prevEntry.Next < i {
			prev = prevEntry.Next
			if prevEntry, err = s.entry(prev); err != nil {
				return zero, err
			}
		}
		if err := storeElem(s.entries, i, stashEntry{Vacant: true, Next: prevEntry.Next}); err != nil {
			return zero, err
		}
		prevEntry.Next = i
		if err := storeElem(s.entries, prev, prevEntry); err != nil {
			return zero, err
		}
	}
	s.hdr.Len--
	return value, s.saveHeader()
}

// Iterate calls [fn] on every occupied entry in index order until it
// returns false.
func (s *Stash[T]) Iterate(fn func(i uint64, value T) bool) error {
	if err := s.load(); err != nil {
		return err
	}
	for i := uint64(0); i < s.hdr.Entries; i++ {
		e, err := mustLoadElem[stashEntry](s.entries, i)
		if err != nil {
			return err
		}
		if e.Vacant {
			continue
		}
		value, err := codec.Decode[T](e.Value)
		if err != nil {
			return err
		}
		if !fn(i, value) {
			return nil
		}
	}
	return nil
}

func (s *Stash[T]) Flush() error {
	if err := s.entries.Flush(); err != nil {
		return err
	}
	return s.header.Flush()
}

func (s *Stash[T]) Discard() {
	s.entries.Discard()
	s.header.Discard()
	s.loaded = false
	s.hdr = stashHeader{}
}
