// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storagetest provides an in-memory storage backend that counts
// every access, for tests of the storage layer.
package storagetest

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/ava-labs/contractstore/storage"
)

var _ storage.Backend = (*Backend)(nil)

// Backend is a counting storage backend over a memdb.
type Backend struct {
	db database.Database

	Reads  int
	Writes int
	Clears int
}

func NewBackend() *Backend {
	return &Backend{db: memdb.New()}
}

func (b *Backend) GetStorage(key storage.Key) ([]byte, error) {
	b.Reads++
	return b.db.Get(key[:])
}

func (b *Backend) SetStorage(key storage.Key, value []byte) error {
	b.Writes++
	return b.db.Put(key[:], value)
}

func (b *Backend) ClearStorage(key storage.Key) error {
	b.Clears++
	return b.db.Delete(key[:])
}

// Has reports whether [key] holds a value, without counting as a read.
func (b *Backend) Has(key storage.Key) bool {
	ok, _ := b.db.Has(key[:])
	return ok
}

// Len returns the number of stored keys.
func (b *Backend) Len() int {
	it := b.db.NewIterator()
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n
}

// ResetCounts zeroes the access counters.
func (b *Backend) ResetCounts() {
	b.Reads, b.Writes, b.Clears = 0, 0, 0
}
