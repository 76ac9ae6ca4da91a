// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"errors"

	"github.com/ava-labs/contractstore/storage"
)

var (
	ErrOutOfBounds      = storage.ErrOutOfBounds
	ErrNotFound         = errors.New("element not found")
	ErrEmpty            = errors.New("collection is empty")
	ErrCapacityExceeded = errors.New("collection capacity exceeded")
	// ErrCorrupt is returned when storage that the header claims to be
	// present is missing.
	ErrCorrupt = errors.New("collection storage is corrupt")
)
