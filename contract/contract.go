// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract turns a set of message handlers over a storage layout
// into the entry point of a contract.
//
// A contract is described by a constructor that declares its state in a
// [storage.Layout] and by named messages. Every invocation reads the input,
// picks a message by selector, rebuilds the state, runs the message and
// flushes the layout. A failing message flushes nothing.
package contract

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/collections"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

// Selector derives the selector of the message called [name].
func Selector(name string) env.Selector {
	var s env.Selector
	copy(s[:], hashing.ComputeHash256([]byte(name)))
	return s
}

// Func handles one message. [args] is the input without the selector and
// the returned bytes become the output of the invocation.
type Func[S any] func(ctx *Context[S], args []byte) ([]byte, error)

// Option configures a message.
type Option func(*message)

// Payable lets a message receive value.
func Payable() Option {
	return func(m *message) { m.payable = true }
}

type message struct {
	name        string
	constructor bool
	payable     bool
}

type handler[S any] struct {
	message
	fn Func[S]
}

// Contract dispatches invocations to its messages.
type Contract[S any] struct {
	name     string
	origin   storage.Key
	build    func(*storage.Layout) (S, error)
	handlers map[env.Selector]*handler[S]
}

// New returns a contract without messages. [build] declares the state of the
// contract and must declare the same structures in the same order on every
// call.
func New[S any](name string, build func(*storage.Layout) (S, error)) *Contract[S] {
	return &Contract[S]{
		name:     name,
		origin:   storage.KeyFromLabel([]byte(name)),
		build:    build,
		handlers: make(map[env.Selector]*handler[S]),
	}
}

func (c *Contract[S]) Name() string { return c.name }

// CodeHash identifies the code of the contract when it is registered for
// instantiation.
func (c *Contract[S]) CodeHash() env.Hash {
	return hashing.ComputeHash256Array([]byte("code:" + c.name))
}

// Origin is the first key of the storage layout of the contract.
func (c *Contract[S]) Origin() storage.Key { return c.origin }

// Message adds a message that runs on an initialized contract.
func (c *Contract[S]) Message(name string, fn Func[S], opts ...Option) *Contract[S] {
	return c.add(message{name: name}, fn, opts)
}

// Constructor adds a message that initializes the contract. A contract is
// initialized exactly once.
func (c *Contract[S]) Constructor(name string, fn Func[S], opts ...Option) *Contract[S] {
	return c.add(message{name: name, constructor: true}, fn, opts)
}

func (c *Contract[S]) add(m message, fn Func[S], opts []Option) *Contract[S] {
	for _, opt := range opts {
		opt(&m)
	}
	selector := Selector(m.name)
	if existing, ok := c.handlers[selector]; ok {
		panic(fmt.Sprintf("contract %s: message %q collides with %q", c.name, m.name, existing.name))
	}
	c.handlers[selector] = &handler[S]{message: m, fn: fn}
	return c
}

// Messages returns the names of all messages and constructors.
func (c *Contract[S]) Messages() []string {
	names := make([]string, 0, len(c.handlers))
	for _, h := range c.handlers {
		names = append(names, h.name)
	}
	return names
}

// Dispatch runs one invocation against [e].
func (c *Contract[S]) Dispatch(e env.Env) error {
	input, err := e.Input()
	if err != nil {
		return err
	}
	if len(input) < env.SelectorLen {
		return fmt.Errorf("%w: got %d bytes", ErrShortInput, len(input))
	}
	var selector env.Selector
	copy(selector[:], input)
	h, ok := c.handlers[selector]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSelector, selector)
	}
	if !h.payable && e.TransferredValue() != 0 {
		return fmt.Errorf("%w: %s", ErrNotPayable, h.name)
	}

	layout, err := storage.NewLayout(e, c.origin)
	if err != nil {
		return err
	}
	initialized, err := collections.NewValue[bool](layout)
	if err != nil {
		return err
	}
	state, err := c.build(layout)
	if err != nil {
		return err
	}
	done, err := initialized.GetOr(false)
	if err != nil {
		return err
	}
	switch {
	case h.constructor && done:
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, c.name)
	case !h.constructor && !done:
		return fmt.Errorf("%w: %s", ErrNotInitialized, c.name)
	}

	ctx := &Context[S]{State: state, env: e, layout: layout}
	out, err := h.fn(ctx, input[env.SelectorLen:])
	if err != nil {
		layout.Discard()
		log.Debug("message failed", "contract", c.name, "message", h.name, "err", err)
		return fmt.Errorf("%s.%s: %w", c.name, h.name, err)
	}
	if h.constructor {
		if err := initialized.Set(true); err != nil {
			return err
		}
	}
	if err := layout.Flush(); err != nil {
		return err
	}
	return e.Output(out)
}

// Handle adds a message with codec encoded arguments and result.
func Handle[S, A, R any](c *Contract[S], name string, fn func(ctx *Context[S], args A) (R, error), opts ...Option) *Contract[S] {
	return c.Message(name, typed(fn), opts...)
}

// Init adds a constructor with codec encoded arguments.
func Init[S, A any](c *Contract[S], name string, fn func(ctx *Context[S], args A) error, opts ...Option) *Contract[S] {
	return c.Constructor(name, typed(func(ctx *Context[S], args A) (struct{}, error) {
		return struct{}{}, fn(ctx, args)
	}), opts...)
}

// typed adapts [fn] to raw input. Empty input stands for the zero A.
func typed[S, A, R any](fn func(*Context[S], A) (R, error)) Func[S] {
	return func(ctx *Context[S], raw []byte) ([]byte, error) {
		var args A
		if len(raw) != 0 {
			var err error
			if args, err = codec.Decode[A](raw); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadArguments, err)
			}
		}
		result, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		return codec.Encode(result)
	}
}
