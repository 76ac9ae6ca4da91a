// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

// Backend is the slice of the contract environment the storage layer needs.
// Every call is a real (and billed) access to the persisted store.
//
// GetStorage returns database.ErrNotFound when [key] holds no value. A
// present value may be empty; absence is only ever expressed by the error.
type Backend interface {
	GetStorage(key Key) ([]byte, error)
	SetStorage(key Key, value []byte) error
	ClearStorage(key Key) error
}

// Flusher is implemented by every structure that caches storage.
type Flusher interface {
	// Flush writes back every dirty slot.
	Flush() error
	// Discard drops the in-memory cache without writing anything.
	Discard()
}
