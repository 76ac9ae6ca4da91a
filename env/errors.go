// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package env

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchContract      = errors.New("no such contract")
	ErrCalleeTrapped       = errors.New("callee trapped")
	ErrCalleeReverted      = errors.New("callee reverted")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimumBalance = errors.New("balance would fall below the minimum balance")
	ErrCodeNotFound        = errors.New("no such code")
	ErrContractExists      = errors.New("contract already exists")
	ErrNotFunded           = errors.New("endowment does not cover the minimum balance")
	// ErrHostRefused is returned for host failures with no more specific
	// meaning.
	ErrHostRefused = errors.New("host refused the operation")

	ErrInputAlreadyRead = errors.New("input must be read before any other interaction")
	ErrOutputAlreadySet = errors.New("output has already been set")
)

// CallError is returned by InvokeContract.
type CallError struct {
	Callee   AccountID
	Selector Selector
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call to %s (selector %s) failed: %v", e.Callee, e.Selector, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// TransferError is returned by Transfer.
type TransferError struct {
	To    AccountID
	Value Balance
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer of %d to %s failed: %v", e.Value, e.To, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// CreateError is returned by CreateContract.
type CreateError struct {
	CodeHash Hash
	Err      error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("instantiating code %s failed: %v", e.CodeHash, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }
