// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/storage"
)

const (
	// InitialMapCapacity is the number of slots of a new HashMap table.
	InitialMapCapacity uint64 = 16

	maxMapCapacity uint64 = 1 << 62
)

var _ storage.Flusher = (*HashMap[uint64, uint64])(nil)

type mapHeader struct {
	Len      uint64      `serialize:"true"`
	Capacity uint64      `serialize:"true"`
	Table    storage.Key `serialize:"true"`
}

type mapEntry struct {
	Key   []byte `serialize:"true"`
	Value []byte `serialize:"true"`
}

// HashMap is an open addressing hash table with linear probing. Keys are
// compared by their codec encoding.
//
// The table starts in the declared layout. When it fills up past three
// quarters a table twice the size is allocated at runtime, every entry is
// rehashed into it and the old slots are cleared.
type HashMap[K, V any] struct {
	backend   storage.Backend
	allocator *storage.Allocator
	declared  storage.Key

	header  *Value[mapHeader]
	hdr     mapHeader
	loaded  bool
	table   *storage.Chunk
	retired []*storage.Chunk
}

// NewHashMap declares a HashMap in [l].
func NewHashMap[K, V any](l *storage.Layout) (*HashMap[K, V], error) {
	headerKey, err := l.Declare(1)
	if err != nil {
		return nil, err
	}
	table, err := l.Declare(InitialMapCapacity)
	if err != nil {
		return nil, err
	}
	m := &HashMap[K, V]{
		backend:   l.Backend(),
		allocator: l.Allocator(),
		declared:  table,
		header:    newValueAt[mapHeader](l.Backend(), headerKey),
	}
	l.Register(m)
	return m, nil
}

func hashKey(encoded []byte) uint64 {
	digest := hashing.ComputeHash256(encoded)
	return binary.BigEndian.Uint64(digest[:8])
}

func (m *HashMap[K, V]) load() error {
	if m.loaded {
		return nil
	}
	hdr, err := m.header.GetOr(mapHeader{
		Capacity: InitialMapCapacity,
		Table:    m.declared,
	})
	if err != nil {
		return err
	}
	if hdr.Capacity == 0 || hdr.Capacity&(hdr.Capacity-1) != 0 {
		return fmt.Errorf("%w: map capacity %d", ErrCorrupt, hdr.Capacity)
	}
	m.hdr = hdr
	m.table = storage.NewChunk(m.backend, hdr.Table, hdr.Capacity)
	m.loaded = true
	return nil
}

func (m *HashMap[K, V]) saveHeader() error {
	return m.header.Set(m.hdr)
}

// find probes for [encoded]. It returns the slot holding the key, or the
// empty slot that ends the probe sequence.
func (m *HashMap[K, V]) find(encoded []byte) (uint64, *mapEntry, error) {
	mask := m.hdr.Capacity - 1
	slot := hashKey(encoded) & mask
	for probes := uint64(0); probes < m.hdr.Capacity; probes++ {
		entry, ok, err := loadElem[mapEntry](m.table, slot)
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			return slot, nil, nil
		}
		if bytes.Equal(entry.Key, encoded) {
			return slot, &entry, nil
		}
		slot = (slot + 1) & mask
	}
	return 0, nil, fmt.Errorf("%w: map table has no empty slot", ErrCorrupt)
}

func (m *HashMap[K, V]) lookup(key K) ([]byte, uint64, *mapEntry, error) {
	if err := m.load(); err != nil {
		return nil, 0, nil, err
	}
	encoded, err := codec.Encode(key)
	if err != nil {
		return nil, 0, nil, err
	}
	slot, entry, err := m.find(encoded)
	return encoded, slot, entry, err
}

func (m *HashMap[K, V]) Len() (uint64, error) {
	if err := m.load(); err != nil {
		return 0, err
	}
	return m.hdr.Len, nil
}

// Capacity returns the number of slots of the current table.
func (m *HashMap[K, V]) Capacity() (uint64, error) {
	if err := m.load(); err != nil {
		return 0, err
	}
	return m.hdr.Capacity, nil
}

// Get returns the value stored under [key] or [ErrNotFound].
func (m *HashMap[K, V]) Get(key K) (V, error) {
	var zero V
	_, _, entry, err := m.lookup(key)
	if err != nil {
		return zero, err
	}
	if entry == nil {
		return zero, ErrNotFound
	}
	return codec.Decode[V](entry.Value)
}

func (m *HashMap[K, V]) Contains(key K) (bool, error) {
	_, _, entry, err := m.lookup(key)
	return entry != nil, err
}

// Insert stores [value] under [key]. It returns the previous value and
// whether there was one.
func (m *HashMap[K, V]) Insert(key K, value V) (V, bool, error) {
	var old V
	encodedKey, slot, entry, err := m.lookup(key)
	if err != nil {
		return old, false, err
	}
	encodedValue, err := codec.Encode(value)
	if err != nil {
		return old, false, err
	}

	if entry != nil {
		old, err = codec.Decode[V](entry.Value)
		if err != nil {
			return old, false, err
		}
		entry.Value = encodedValue
		return old, true, storeElem(m.table, slot, *entry)
	}

	if (m.hdr.Len+1)*4 > m.hdr.Capacity*3 {
		if err := m.grow(); err != nil {
			return old, false, err
		}
		if slot, _, err = m.find(encodedKey); err != nil {
			return old, false, err
		}
	}
	if err := storeElem(m.table, slot, mapEntry{Key: encodedKey, Value: encodedValue}); err != nil {
		return old, false, err
	}
	m.hdr.Len++
	return old, false, m.saveHeader()
}

// Remove deletes [key] and returns its value, or [ErrNotFound].
func (m *HashMap[K, V]) Remove(key K) (V, error) {
	var zero V
	_, slot, entry, err := m.lookup(key)
	if err != nil {
		return zero, err
	}
	if entry == nil {
		return zero, ErrNotFound
	}
	value, err := codec.Decode[V](entry.Value)
	if err != nil {
		return zero, err
	}
	if err := m.table.Clear(slot); err != nil {
		return zero, err
	}
	if err := m.shiftBack(slot); err != nil {
		return zero, err
	}
	m.hdr.Len--
	return value, m.saveHeader()
}

// shiftBack closes the hole at [hole] so that no probe sequence crosses an
// empty slot before reaching its key.
func (m *HashMap[K, V]) shiftBack(hole uint64) error {
	mask := m.hdr.Capacity - 1
	for next := (hole + 1) & mask; ; next = (next + 1) & mask {
		entry, ok, err := loadElem[mapEntry](m.table, next)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		home := hashKey(entry.Key) & mask
		// the entry stays if its home lies cyclically in (hole, next]
		if (next-home)&mask < (next-hole)&mask {
			continue
		}
		if err := storeElem(m.table, hole, entry); err != nil {
			return err
		}
		if err := m.table.Clear(next); err != nil {
			return err
		}
		hole = next
	}
}

func (m *HashMap[K, V]) grow() error {
	if m.hdr.Capacity >= maxMapCapacity {
		return fmt.Errorf("%w: map capacity %d", ErrCapacityExceeded, m.hdr.Capacity)
	}
	newCapacity := m.hdr.Capacity * 2
	base, err := m.allocator.Allocate(newCapacity)
	if err != nil {
		return err
	}

	old := m.table
	entries := make([]mapEntry, 0, m.hdr.Len)
	for slot := uint64(0); slot < m.hdr.Capacity; slot++ {
		entry, ok, err := loadElem[mapEntry](old, slot)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		entries = append(entries, entry)
		if err := old.Clear(slot); err != nil {
			return err
		}
	}

	m.retired = append(m.retired, old)
	m.table = storage.NewChunk(m.backend, base, newCapacity)
	m.hdr.Capacity = newCapacity
	m.hdr.Table = base
	for _, entry := range entries {
		slot, _, err := m.find(entry.Key)
		if err != nil {
			return err
		}
		if err := storeElem(m.table, slot, entry); err != nil {
			return err
		}
	}
	log.Debug("grew hash map", "header", m.header.Key(), "capacity", newCapacity, "table", base)
	return m.saveHeader()
}

// Iterate calls [fn] on every entry in table order until it returns false.
// Every slot of the table is read.
func (m *HashMap[K, V]) Iterate(fn func(key K, value V) bool) error {
	if err := m.load(); err != nil {
		return err
	}
	for slot := uint64(0); slot < m.hdr.Capacity; slot++ {
		entry, ok, err := loadElem[mapEntry](m.table, slot)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		key, err := codec.Decode[K](entry.Key)
		if err != nil {
			return err
		}
		value, err := codec.Decode[V](entry.Value)
		if err != nil {
			return err
		}
		if !fn(key, value) {
			return nil
		}
	}
	return nil
}

func (m *HashMap[K, V]) Flush() error {
	for _, table := range m.retired {
		if err := table.Flush(); err != nil {
			return err
		}
	}
	m.retired = nil
	if m.table != nil {
		if err := m.table.Flush(); err != nil {
			return err
		}
	}
	return m.header.Flush()
}

func (m *HashMap[K, V]) Discard() {
	m.retired = nil
	m.table = nil
	m.loaded = false
	m.hdr = mapHeader{}
	m.header.Discard()
}
