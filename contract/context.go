// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

// Context is what a message sees of its invocation.
type Context[S any] struct {
	// State is the state of the contract as built by its constructor.
	State S

	env    env.Env
	layout *storage.Layout
}

// Env returns the environment of the invocation. Storage writes made
// through it directly bypass the caches of State.
func (c *Context[S]) Env() env.Env { return c.env }

func (c *Context[S]) Caller() env.AccountID          { return c.env.Caller() }
func (c *Context[S]) Address() env.AccountID         { return c.env.Address() }
func (c *Context[S]) Balance() env.Balance           { return c.env.Balance() }
func (c *Context[S]) TransferredValue() env.Balance  { return c.env.TransferredValue() }
func (c *Context[S]) BlockNumber() env.BlockNumber   { return c.env.BlockNumber() }
func (c *Context[S]) Now() env.Moment                { return c.env.Now() }
func (c *Context[S]) Random(subject []byte) env.Hash { return c.env.Random(subject) }
func (c *Context[S]) Println(msg string)             { c.env.Println(msg) }
func (c *Context[S]) RentAllowance() env.Balance     { return c.env.RentAllowance() }

func (c *Context[S]) SetRentAllowance(allowance env.Balance) error {
	return c.env.SetRentAllowance(allowance)
}

// RuntimeStorage reads a value of the chain runtime storage.
func (c *Context[S]) RuntimeStorage(key []byte) ([]byte, error) {
	return c.env.GetRuntimeStorage(key)
}

// Invoke calls another contract. The state is flushed before the call and
// reloaded after it, so a callee that calls back sees every change made so
// far and changes it makes are not overwritten.
func (c *Context[S]) Invoke(params env.CallParams) ([]byte, error) {
	if err := c.layout.Flush(); err != nil {
		return nil, err
	}
	defer c.layout.Discard()
	return c.env.InvokeContract(params)
}

// Transfer sends [value] from the contract to [to]. Like [Context.Invoke]
// it flushes the state first.
func (c *Context[S]) Transfer(to env.AccountID, value env.Balance) error {
	if err := c.layout.Flush(); err != nil {
		return err
	}
	defer c.layout.Discard()
	return c.env.Transfer(to, value)
}

// CreateContract instantiates a contract. Like [Context.Invoke] it flushes
// the state first, since the constructor may call back.
func (c *Context[S]) CreateContract(params env.CreateParams) (env.AccountID, error) {
	if err := c.layout.Flush(); err != nil {
		return env.AccountID{}, err
	}
	defer c.layout.Discard()
	return c.env.CreateContract(params)
}

// Create instantiates [code] by running its constructor [name] with codec
// encoded arguments.
func Create[S, A any](ctx *Context[S], code env.Hash, name string, args A, value env.Balance, salt []byte) (env.AccountID, error) {
	input, err := codec.Encode(args)
	if err != nil {
		return env.AccountID{}, err
	}
	return ctx.CreateContract(env.CreateParams{
		CodeHash: code,
		Selector: Selector(name),
		Input:    input,
		Value:    value,
		Salt:     salt,
	})
}

// Call invokes message [name] of [callee] with codec encoded arguments and
// decodes its result.
func Call[R, S, A any](ctx *Context[S], callee env.AccountID, name string, args A, value env.Balance) (R, error) {
	var result R
	input, err := codec.Encode(args)
	if err != nil {
		return result, err
	}
	out, err := ctx.Invoke(env.CallParams{
		Callee:   callee,
		Selector: Selector(name),
		Input:    input,
		Value:    value,
	})
	if err != nil {
		return result, err
	}
	return codec.Decode[R](out)
}

// Topic returns the topic identifying events called [name].
func Topic(name string) env.Hash {
	return hashing.ComputeHash256Array([]byte(name))
}

// Emit emits [event] under [name]. The first topic is [Topic] of [name],
// followed by [topics].
func Emit[S, T any](ctx *Context[S], name string, event T, topics ...env.Hash) error {
	data, err := codec.Encode(event)
	if err != nil {
		return err
	}
	return ctx.env.EmitEvent(env.Event{
		Topics: append([]env.Hash{Topic(name)}, topics...),
		Data:   data,
	})
}
