// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import "errors"

var (
	ErrShortInput         = errors.New("input is shorter than a selector")
	ErrUnknownSelector    = errors.New("unknown selector")
	ErrNotPayable         = errors.New("message does not accept value")
	ErrNotInitialized     = errors.New("contract is not initialized")
	ErrAlreadyInitialized = errors.New("contract is already initialized")
	ErrBadArguments       = errors.New("failed to decode arguments")
)
