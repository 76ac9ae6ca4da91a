// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package env defines the interface contract logic uses to reach its
// surrounding execution host.
//
// Two implementations exist: [host] forwards every call to the real host
// and [offchain] simulates a host in memory. Contract code is written
// against [Env] only and never learns which one it runs on.
package env

import (
	"encoding/hex"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/contractstore/storage"
)

type (
	// AccountID identifies a user or contract account.
	AccountID = ids.ShortID
	Hash      = ids.ID

	Balance     uint64
	BlockNumber uint64
	// Moment is a block timestamp in milliseconds.
	Moment uint64
)

// SelectorLen is the length of a message selector.
const SelectorLen = 4

// Selector picks the message a call is dispatched to.
type Selector [SelectorLen]byte

func (s Selector) String() string { return hex.EncodeToString(s[:]) }

// CallParams describes a call into another contract.
type CallParams struct {
	Callee   AccountID
	Selector Selector
	Input    []byte
	Value    Balance
}

// CreateParams describes the instantiation of a contract from code the
// host already holds.
type CreateParams struct {
	CodeHash Hash
	// Selector and Input are passed to the constructor of the new contract.
	Selector Selector
	Input    []byte
	// Value is the endowment of the new contract. It must cover the
	// minimum balance.
	Value Balance
	// Salt tells apart instances of one code created by one account.
	Salt []byte
}

// Event is an emitted event. Topics are used by indexers to filter events.
type Event struct {
	Topics []Hash `serialize:"true" json:"topics"`
	Data   []byte `serialize:"true" json:"data"`
}

// Env is everything a contract can ask of its host.
//
// Storage access is inherited from [storage.Backend] so that an Env can
// back a [storage.Layout] directly.
type Env interface {
	storage.Backend

	// Caller returns the account that invoked the executing contract.
	Caller() AccountID
	// Address returns the account of the executing contract.
	Address() AccountID
	// Balance returns the balance of the executing contract.
	Balance() Balance
	// TransferredValue returns the value sent along with the invocation.
	TransferredValue() Balance
	BlockNumber() BlockNumber
	Now() Moment
	// MinimumBalance returns the balance below which an account may not
	// fall after a transfer.
	MinimumBalance() Balance

	EmitEvent(event Event) error
	// InvokeContract calls into another contract and returns its output.
	// Failures are reported as a *CallError.
	InvokeContract(params CallParams) ([]byte, error)
	// Transfer moves [value] from the executing contract to [to]. Failures
	// are reported as a *TransferError.
	Transfer(to AccountID, value Balance) error
	// CreateContract instantiates a contract, runs its constructor and
	// returns its account. Failures are reported as a *CreateError.
	CreateContract(params CreateParams) (AccountID, error)

	// RentAllowance returns the most the host may charge the executing
	// contract for rent.
	RentAllowance() Balance
	SetRentAllowance(allowance Balance) error
	// GetRuntimeStorage reads the storage of the chain runtime, outside of
	// any contract. It returns database.ErrNotFound if [key] holds no value.
	GetRuntimeStorage(key []byte) ([]byte, error)

	// Input returns the call data of the invocation. It must be the first
	// interaction with the environment.
	Input() ([]byte, error)
	// Output sets the return data of the invocation. It must be the last
	// interaction with the environment.
	Output(data []byte) error
	// Random returns a pseudo random value seeded by [subject]. It is not
	// suitable for anything that needs unpredictability.
	Random(subject []byte) Hash
	// Println writes a debug message.
	Println(msg string)
}
