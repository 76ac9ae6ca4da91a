// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contracttest runs contracts on the off-chain environment.
package contracttest

import (
	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/contract"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/env/offchain"
)

// Executor is implemented by *offchain.Env.
type Executor interface {
	Execute(inv offchain.Invocation) ([]byte, error)
}

// Call executes message [name] of [callee] as [caller] with codec encoded
// arguments and decodes the result.
func Call[R, A any](e Executor, caller, callee env.AccountID, name string, args A) (R, error) {
	return CallWithValue[R](e, caller, callee, name, args, 0)
}

// CallWithValue is [Call] sending [value] along.
func CallWithValue[R, A any](e Executor, caller, callee env.AccountID, name string, args A, value env.Balance) (R, error) {
	var result R
	input, err := codec.Encode(args)
	if err != nil {
		return result, err
	}
	out, err := e.Execute(offchain.Invocation{
		Caller:   caller,
		Callee:   callee,
		Selector: contract.Selector(name),
		Input:    input,
		Value:    value,
	})
	if err != nil {
		return result, err
	}
	return codec.Decode[R](out)
}
