// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package host implements env.Env by forwarding every call to the
// execution host. It keeps no state besides the interaction guard.
package host

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

var _ env.Env = (*Env)(nil)

type Env struct {
	rt    Runtime
	guard env.Guard
}

func New(rt Runtime) *Env {
	return &Env{rt: rt}
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func decodeAccount(b []byte) env.AccountID {
	var id ids.ShortID
	copy(id[:], b)
	return id
}

func (e *Env) GetStorage(key storage.Key) ([]byte, error) {
	if err := e.guard.Touch(); err != nil {
		return nil, err
	}
	value, code := e.rt.GetStorage(key[:])
	switch code {
	case Success:
		if value == nil {
			value = []byte{}
		}
		return value, nil
	case KeyNotFound:
		return nil, database.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: get_storage returned %s", env.ErrHostRefused, code)
	}
}

func (e *Env) SetStorage(key storage.Key, value []byte) error {
	if err := e.guard.Touch(); err != nil {
		return err
	}
	e.rt.SetStorage(key[:], value)
	return nil
}

func (e *Env) ClearStorage(key storage.Key) error {
	if err := e.guard.Touch(); err != nil {
		return err
	}
	e.rt.ClearStorage(key[:])
	return nil
}

func (e *Env) Caller() env.AccountID {
	return decodeAccount(e.rt.Caller())
}

func (e *Env) Address() env.AccountID {
	return decodeAccount(e.rt.Address())
}

func (e *Env) Balance() env.Balance {
	return env.Balance(decodeUint64(e.rt.Balance()))
}

func (e *Env) TransferredValue() env.Balance {
	return env.Balance(decodeUint64(e.rt.ValueTransferred()))
}

func (e *Env) BlockNumber() env.BlockNumber {
	return env.BlockNumber(decodeUint64(e.rt.BlockNumber()))
}

func (e *Env) Now() env.Moment {
	return env.Moment(decodeUint64(e.rt.Now()))
}

func (e *Env) MinimumBalance() env.Balance {
	return env.Balance(decodeUint64(e.rt.MinimumBalance()))
}

func (e *Env) EmitEvent(event env.Event) error {
	if err := e.guard.Touch(); err != nil {
		return err
	}
	topics := make([]byte, 0, len(event.Topics)*len(ids.Empty))
	for _, topic := range event.Topics {
		topics = append(topics, topic[:]...)
	}
	e.rt.DepositEvent(topics, event.Data)
	return nil
}

func callInput(selector env.Selector, args []byte) []byte {
	input := make([]byte, 0, env.SelectorLen+len(args))
	input = append(input, selector[:]...)
	return append(input, args...)
}

func (e *Env) InvokeContract(params env.CallParams) ([]byte, error) {
	if err := e.guard.Touch(); err != nil {
		return nil, err
	}
	input := callInput(params.Selector, params.Input)
	out, code := e.rt.Call(params.Callee[:], encodeUint64(uint64(params.Value)), input)
	if code == Success {
		return out, nil
	}
	return nil, &env.CallError{
		Callee:   params.Callee,
		Selector: params.Selector,
		Err:      callCodeErr(code),
	}
}

func callCodeErr(code ReturnCode) error {
	switch code {
	case CalleeTrapped:
		return env.ErrCalleeTrapped
	case CalleeReverted:
		return env.ErrCalleeReverted
	case TransferFailed:
		return env.ErrInsufficientBalance
	case BelowSubsistenceThreshold:
		return env.ErrBelowMinimumBalance
	case CodeNotFound, NotCallable:
		return env.ErrNoSuchContract
	default:
		return fmt.Errorf("%w: call returned %s", env.ErrHostRefused, code)
	}
}

func (e *Env) Transfer(to env.AccountID, value env.Balance) error {
	if err := e.guard.Touch(); err != nil {
		return err
	}
	var err error
	switch code := e.rt.Transfer(to[:], encodeUint64(uint64(value))); code {
	case Success:
		return nil
	case TransferFailed:
		err = env.ErrInsufficientBalance
	case BelowSubsistenceThreshold:
		err = env.ErrBelowMinimumBalance
	default:
		err = fmt.Errorf("%w: transfer returned %s", env.ErrHostRefused, code)
	}
	return &env.TransferError{To: to, Value: value, Err: err}
}

func (e *Env) CreateContract(params env.CreateParams) (env.AccountID, error) {
	if err := e.guard.Touch(); err != nil {
		return ids.ShortEmpty, err
	}
	input := callInput(params.Selector, params.Input)
	address, code := e.rt.Instantiate(params.CodeHash[:], encodeUint64(uint64(params.Value)), input, params.Salt)
	if code == Success {
		return decodeAccount(address), nil
	}

	var err error
	switch code {
	case CodeNotFound:
		err = env.ErrCodeNotFound
	case NewContractNotFunded:
		err = env.ErrNotFunded
	case NotCallable:
		err = env.ErrContractExists
	case CalleeTrapped:
		err = env.ErrCalleeTrapped
	case CalleeReverted:
		err = env.ErrCalleeReverted
	case TransferFailed:
		err = env.ErrInsufficientBalance
	case BelowSubsistenceThreshold:
		err = env.ErrBelowMinimumBalance
	default:
		err = fmt.Errorf("%w: instantiate returned %s", env.ErrHostRefused, code)
	}
	return ids.ShortEmpty, &env.CreateError{CodeHash: params.CodeHash, Err: err}
}

func (e *Env) RentAllowance() env.Balance {
	return env.Balance(decodeUint64(e.rt.RentAllowance()))
}

func (e *Env) SetRentAllowance(allowance env.Balance) error {
	if err := e.guard.Touch(); err != nil {
		return err
	}
	e.rt.SetRentAllowance(encodeUint64(uint64(allowance)))
	return nil
}

func (e *Env) GetRuntimeStorage(key []byte) ([]byte, error) {
	if err := e.guard.Touch(); err != nil {
		return nil, err
	}
	value, code := e.rt.GetRuntimeStorage(key)
	switch code {
	case Success:
		if value == nil {
			value = []byte{}
		}
		return value, nil
	case KeyNotFound:
		return nil, database.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: get_runtime_storage returned %s", env.ErrHostRefused, code)
	}
}

func (e *Env) Input() ([]byte, error) {
	if err := e.guard.Input(); err != nil {
		return nil, err
	}
	return e.rt.Input(), nil
}

func (e *Env) Output(data []byte) error {
	if err := e.guard.Output(); err != nil {
		return err
	}
	e.rt.Return(data)
	return nil
}

func (e *Env) Random(subject []byte) env.Hash {
	var h ids.ID
	copy(h[:], e.rt.Random(subject))
	return h
}

func (e *Env) Println(msg string) {
	e.rt.Println(msg)
}
