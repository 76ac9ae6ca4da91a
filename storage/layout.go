// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	log "github.com/inconshreveable/log15"
)

var _ Flusher = (*Layout)(nil)

// Layout is the storage context of one contract instance. It is threaded
// into every collection constructor and owns the allocator and the list of
// structures that must be flushed at the end of an invocation.
type Layout struct {
	backend   Backend
	allocator *Allocator
	flushers  []Flusher
}

// NewLayout returns an empty layout rooted at [origin].
func NewLayout(backend Backend, origin Key) (*Layout, error) {
	allocator, err := NewAllocator(backend, origin)
	if err != nil {
		return nil, err
	}
	return &Layout{
		backend:   backend,
		allocator: allocator,
	}, nil
}

func (l *Layout) Backend() Backend      { return l.backend }
func (l *Layout) Allocator() *Allocator { return l.allocator }

// Declare reserves [size] keys of the declared layout.
func (l *Layout) Declare(size uint64) (Key, error) {
	return l.allocator.Declare(size)
}

// Register adds [f] to the structures flushed by [Layout.Flush].
func (l *Layout) Register(f Flusher) {
	l.flushers = append(l.flushers, f)
}

// Flush writes back every registered structure in registration order and
// then persists the allocator cursor.
func (l *Layout) Flush() error {
	for _, f := range l.flushers {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if err := l.allocator.Flush(); err != nil {
		return err
	}
	log.Debug("flushed storage layout", "origin", l.allocator.Origin(), "structures", len(l.flushers))
	return nil
}

// Discard drops every cached value of every registered structure.
func (l *Layout) Discard() {
	for _, f := range l.flushers {
		f.Discard()
	}
	l.allocator.Discard()
}
