// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	// ErrOutOfBounds is returned when an offset or index lies outside of the
	// addressable range of a structure. It is a programming error and is
	// never conflated with an absent element.
	ErrOutOfBounds = errors.New("index out of bounds")

	ErrLayoutSealed   = errors.New("storage layout already sealed")
	ErrLayoutMismatch = errors.New("persisted storage layout does not match declared layout")
)
