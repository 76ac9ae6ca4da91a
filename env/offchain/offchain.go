// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package offchain implements env.Env as an in-memory simulated host.
//
// The simulated persisted store lives in a memdb. Every invocation runs in
// its own versiondb frame stacked on the frame of its caller: when the
// invocation returns successfully its frame is committed into the parent,
// otherwise every write it made (storage, balances and events) is dropped.
// Calls, transfers and instantiations are recorded in a trace that is never
// rolled back.
//
// Contracts are either registered at a fixed account or registered as code
// that accounts and contracts instantiate. The code an instantiated account
// runs is part of the simulated store, so a failed constructor leaves no
// contract behind.
package offchain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	safemath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/google/uuid"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

var (
	errNoInvocation = errors.New("no invocation is running")

	_ env.Env = (*Env)(nil)
)

// Handler is the entry point of a simulated contract. It reads its input
// from and writes its output to [e].
type Handler func(e env.Env) error

// Config of the simulated chain.
type Config struct {
	MinimumBalance env.Balance
	// BlockTime is the time between two blocks.
	BlockTime time.Duration
	// GenesisTime is the timestamp of block 0.
	GenesisTime time.Time
}

var DefaultConfig = Config{
	BlockTime:   2 * time.Second,
	GenesisTime: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// Stats counts the host operations issued against the simulated host.
type Stats struct {
	Reads     int `json:"reads"`
	Writes    int `json:"writes"`
	Clears    int `json:"clears"`
	Events    int `json:"events"`
	Calls     int `json:"calls"`
	Transfers int `json:"transfers"`
	Creates   int `json:"creates"`
}

// Invocation is a top level call issued by an external account.
type Invocation struct {
	Caller   env.AccountID
	Callee   env.AccountID
	Selector env.Selector
	Input    []byte
	Value    env.Balance
}

type frame struct {
	db    *versiondb.Database
	state *state
	id    uuid.UUID

	caller  env.AccountID
	address env.AccountID
	value   env.Balance
	input   []byte
	output  []byte
	guard   env.Guard
}

// Env is the simulated host. It is not safe for concurrent use.
type Env struct {
	config Config

	base     database.Database
	root     *state
	frames   []*frame
	handlers map[env.AccountID]Handler
	codes    map[env.Hash]Handler
	trace    []Record
	clock    mockable.Clock
	stats    Stats

	// identity used outside of any invocation
	caller  env.AccountID
	address env.AccountID
}

func New(config Config) *Env {
	e := &Env{
		config:   config,
		handlers: make(map[env.AccountID]Handler),
		codes:    make(map[env.Hash]Handler),
	}
	e.Reset()
	return e
}

// Reset drops all simulated state. Registered handlers and code are kept,
// instantiated contracts are dropped.
func (e *Env) Reset() {
	e.base = memdb.New()
	e.root = newState(e.base)
	e.frames = nil
	e.trace = nil
	e.stats = Stats{}
	e.caller = ids.ShortEmpty
	e.address = ids.ShortEmpty
	e.clock.Set(e.config.GenesisTime)
}

func (e *Env) Config() Config { return e.config }

// Register installs [handler] as the code of [account].
func (e *Env) Register(account env.AccountID, handler Handler) {
	e.handlers[account] = handler
}

// RegisterCode makes [handler] available for instantiation as [code].
func (e *Env) RegisterCode(code env.Hash, handler Handler) {
	e.codes[code] = handler
}

// ContractAddress is the account a contract instantiated by [deployer] from
// [code] with [salt] is placed at.
func ContractAddress(deployer env.AccountID, code env.Hash, salt []byte) env.AccountID {
	seed := make([]byte, 0, accountLen+len(code)+len(salt))
	seed = append(seed, deployer[:]...)
	seed = append(seed, code[:]...)
	seed = append(seed, salt...)
	return hashing.ComputeHash160Array(seed)
}

// handlerOf returns the handler [account] runs: the one registered at it or
// the code it was instantiated from.
func (e *Env) handlerOf(account env.AccountID) (Handler, error) {
	if handler, ok := e.handlers[account]; ok {
		return handler, nil
	}
	code, found, err := e.state().codeOf(account)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, env.ErrNoSuchContract
	}
	handler, ok := e.codes[code]
	if !ok {
		return nil, fmt.Errorf("%w: code %s is not registered", env.ErrNoSuchContract, code)
	}
	return handler, nil
}

func (e *Env) top() *frame {
	if len(e.frames) == 0 {
		return nil
	}
	return e.frames[len(e.frames)-1]
}

func (e *Env) state() *state {
	if f := e.top(); f != nil {
		return f.state
	}
	return e.root
}

func (e *Env) db() database.Database {
	if f := e.top(); f != nil {
		return f.db
	}
	return e.base
}

func (e *Env) touch() error {
	if f := e.top(); f != nil {
		return f.guard.Touch()
	}
	return nil
}

// SetCaller sets the caller seen outside of invocations.
func (e *Env) SetCaller(account env.AccountID) { e.caller = account }

// SetAddress sets the executing account seen outside of invocations.
func (e *Env) SetAddress(account env.AccountID) { e.address = account }

// SeedStorage writes a storage value of [account] directly.
func (e *Env) SeedStorage(account env.AccountID, key storage.Key, value []byte) error {
	return e.state().putStorage(account, key, value)
}

// SeedBalance sets the balance of [account] directly.
func (e *Env) SeedBalance(account env.AccountID, balance env.Balance) error {
	return e.state().setBalance(account, balance)
}

// SeedRuntimeStorage writes a value of the chain runtime storage directly.
func (e *Env) SeedRuntimeStorage(key, value []byte) error {
	return e.state().putRuntimeStorage(key, value)
}

// CodeOf returns the code hash [account] was instantiated from.
func (e *Env) CodeOf(account env.AccountID) (env.Hash, bool, error) {
	return e.state().codeOf(account)
}

func (e *Env) BalanceOf(account env.AccountID) (env.Balance, error) {
	return e.state().balance(account)
}

// Storage reads a storage value of [account] without counting as a host
// read. It returns database.ErrNotFound if the key holds no value.
func (e *Env) Storage(account env.AccountID, key storage.Key) ([]byte, error) {
	return e.state().getStorage(account, key)
}

// StorageOf returns every storage entry of [account].
func (e *Env) StorageOf(account env.AccountID) ([]StorageEntry, error) {
	return e.state().storageOf(account)
}

func (e *Env) Events() ([]EventRecord, error) {
	return e.state().GetEvents()
}

// Trace returns every call and transfer attempted so far.
func (e *Env) Trace() []Record {
	return append([]Record(nil), e.trace...)
}

func (e *Env) Stats() Stats { return e.stats }

// SetBlock moves the chain to block [n] at [t].
func (e *Env) SetBlock(n env.BlockNumber, t time.Time) error {
	s := e.state()
	if err := s.SetBlockNumber(n); err != nil {
		return err
	}
	if err := s.SetTimestamp(env.Moment(t.UnixMilli())); err != nil {
		return err
	}
	e.clock.Set(t)
	return nil
}

// AdvanceBlock moves the chain [n] blocks ahead.
func (e *Env) AdvanceBlock(n uint64) error {
	current, err := e.state().BlockNumber()
	if err != nil {
		return err
	}
	next := e.clock.Time().Add(time.Duration(n) * e.config.BlockTime)
	return e.SetBlock(current+env.BlockNumber(n), next)
}

// Execute runs [inv] as an invocation issued by an external account.
func (e *Env) Execute(inv Invocation) ([]byte, error) {
	return e.call(inv.Caller, env.CallParams{
		Callee:   inv.Callee,
		Selector: inv.Selector,
		Input:    inv.Input,
		Value:    inv.Value,
	})
}

func (e *Env) call(from env.AccountID, params env.CallParams) ([]byte, error) {
	e.stats.Calls++
	i := len(e.trace)
	e.trace = append(e.trace, Record{
		Kind:       KindCall,
		Invocation: uuid.New(),
		Depth:      len(e.frames),
		From:       from,
		To:         params.Callee,
		Selector:   params.Selector,
		Input:      append([]byte(nil), params.Input...),
		Value:      params.Value,
	})

	handler, err := e.handlerOf(params.Callee)
	var out []byte
	if err == nil {
		out, err = e.run(e.trace[i].Invocation, from, params, handler, nil)
	}
	if err != nil {
		err = &env.CallError{Callee: params.Callee, Selector: params.Selector, Err: err}
		e.trace[i].Err = err.Error()
		return nil, err
	}
	return out, nil
}

// Instantiate creates a contract from registered code on behalf of
// [deployer], an external account.
func (e *Env) Instantiate(deployer env.AccountID, params env.CreateParams) (env.AccountID, error) {
	return e.create(deployer, params)
}

func (e *Env) create(from env.AccountID, params env.CreateParams) (env.AccountID, error) {
	e.stats.Creates++
	address := ContractAddress(from, params.CodeHash, params.Salt)
	i := len(e.trace)
	e.trace = append(e.trace, Record{
		Kind:       KindCreate,
		Invocation: uuid.New(),
		Depth:      len(e.frames),
		From:       from,
		To:         address,
		Selector:   params.Selector,
		Input:      append([]byte(nil), params.Input...),
		Value:      params.Value,
	})

	if err := e.instantiate(e.trace[i].Invocation, from, address, params); err != nil {
		err = &env.CreateError{CodeHash: params.CodeHash, Err: err}
		e.trace[i].Err = err.Error()
		return ids.ShortEmpty, err
	}
	log.Debug("contract instantiated", "code", params.CodeHash, "address", address, "deployer", from)
	return address, nil
}

func (e *Env) instantiate(id uuid.UUID, from, address env.AccountID, params env.CreateParams) error {
	handler, ok := e.codes[params.CodeHash]
	if !ok {
		return env.ErrCodeNotFound
	}
	if _, ok := e.handlers[address]; ok {
		return env.ErrContractExists
	}
	_, found, err := e.state().codeOf(address)
	if err != nil {
		return err
	}
	if found {
		return env.ErrContractExists
	}
	if params.Value < e.config.MinimumBalance {
		return env.ErrNotFunded
	}

	// the constructor runs as a call into the new account
	_, err = e.run(id, from, env.CallParams{
		Callee:   address,
		Selector: params.Selector,
		Input:    params.Input,
		Value:    params.Value,
	}, handler, func(s *state) error {
		return s.setCode(address, params.CodeHash)
	})
	return err
}

// run executes [handler] in a new frame. [prepare], if set, writes to the
// frame before the value moves, so its writes are dropped with the frame.
func (e *Env) run(id uuid.UUID, from env.AccountID, params env.CallParams, handler Handler, prepare func(*state) error) ([]byte, error) {
	db := versiondb.New(e.db())
	f := &frame{
		db:      db,
		state:   newState(db),
		id:      id,
		caller:  from,
		address: params.Callee,
		value:   params.Value,
		input:   append(params.Selector[:], params.Input...),
	}
	if prepare != nil {
		if err := prepare(f.state); err != nil {
			db.Abort()
			return nil, err
		}
	}
	if err := e.move(f.state, from, params.Callee, params.Value); err != nil {
		db.Abort()
		return nil, err
	}

	e.frames = append(e.frames, f)
	err := e.invoke(handler)
	e.frames = e.frames[:len(e.frames)-1]
	if err != nil {
		db.Abort()
		log.Debug("invocation aborted", "invocation", id, "callee", params.Callee, "err", err)
		return nil, fmt.Errorf("%w: %w", env.ErrCalleeTrapped, err)
	}
	if err := db.Commit(); err != nil {
		return nil, err
	}
	log.Debug("invocation committed", "invocation", id, "callee", params.Callee, "output", len(f.output))
	return f.output, nil
}

func (e *Env) invoke(handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(e)
}

// move transfers [value] from [from] to [to] within [s].
func (e *Env) move(s *state, from, to env.AccountID, value env.Balance) error {
	if value == 0 {
		return nil
	}
	fromBalance, err := s.balance(from)
	if err != nil {
		return err
	}
	if fromBalance < value {
		return env.ErrInsufficientBalance
	}
	if fromBalance-value < e.config.MinimumBalance {
		return env.ErrBelowMinimumBalance
	}
	if from == to {
		return nil
	}

	toBalance, err := s.balance(to)
	if err != nil {
		return err
	}
	total, err := safemath.Add64(uint64(toBalance), uint64(value))
	if err != nil {
		return fmt.Errorf("%w: %v", env.ErrHostRefused, err)
	}
	if env.Balance(total) < e.config.MinimumBalance {
		return env.ErrBelowMinimumBalance
	}

	// both sides are checked before either write
	if err := s.setBalance(from, fromBalance-value); err != nil {
		return err
	}
	return s.setBalance(to, env.Balance(total))
}

func (e *Env) GetStorage(key storage.Key) ([]byte, error) {
	if err := e.touch(); err != nil {
		return nil, err
	}
	e.stats.Reads++
	return e.state().getStorage(e.Address(), key)
}

func (e *Env) SetStorage(key storage.Key, value []byte) error {
	if err := e.touch(); err != nil {
		return err
	}
	e.stats.Writes++
	return e.state().putStorage(e.Address(), key, value)
}

func (e *Env) ClearStorage(key storage.Key) error {
	if err := e.touch(); err != nil {
		return err
	}
	e.stats.Clears++
	return e.state().deleteStorage(e.Address(), key)
}

func (e *Env) Caller() env.AccountID {
	if f := e.top(); f != nil {
		return f.caller
	}
	return e.caller
}

func (e *Env) Address() env.AccountID {
	if f := e.top(); f != nil {
		return f.address
	}
	return e.address
}

func (e *Env) Balance() env.Balance {
	balance, err := e.state().balance(e.Address())
	if err != nil {
		log.Error("failed to read balance", "account", e.Address(), "err", err)
	}
	return balance
}

func (e *Env) TransferredValue() env.Balance {
	if f := e.top(); f != nil {
		return f.value
	}
	return 0
}

func (e *Env) BlockNumber() env.BlockNumber {
	n, err := e.state().BlockNumber()
	if err != nil {
		log.Error("failed to read block number", "err", err)
	}
	return n
}

func (e *Env) Now() env.Moment { return env.Moment(e.clock.Time().UnixMilli()) }

func (e *Env) MinimumBalance() env.Balance { return e.config.MinimumBalance }

func (e *Env) EmitEvent(event env.Event) error {
	if err := e.touch(); err != nil {
		return err
	}
	e.stats.Events++
	return e.state().PutEvent(EventRecord{
		Emitter: e.Address(),
		Block:   e.BlockNumber(),
		Event:   event,
	})
}

func (e *Env) InvokeContract(params env.CallParams) ([]byte, error) {
	if err := e.touch(); err != nil {
		return nil, err
	}
	return e.call(e.Address(), params)
}

func (e *Env) Transfer(to env.AccountID, value env.Balance) error {
	if err := e.touch(); err != nil {
		return err
	}
	return e.TransferFrom(e.Address(), to, value)
}

// TransferFrom moves [value] between two accounts and records it in the
// trace.
func (e *Env) TransferFrom(from, to env.AccountID, value env.Balance) error {
	e.stats.Transfers++
	record := Record{
		Kind:  KindTransfer,
		Depth: len(e.frames),
		From:  from,
		To:    to,
		Value: value,
	}
	if f := e.top(); f != nil {
		record.Invocation = f.id
	}

	var err error
	if moveErr := e.move(e.state(), from, to, value); moveErr != nil {
		err = &env.TransferError{To: to, Value: value, Err: moveErr}
	}
	record.Err = errString(err)
	e.trace = append(e.trace, record)
	return err
}

func (e *Env) CreateContract(params env.CreateParams) (env.AccountID, error) {
	if err := e.touch(); err != nil {
		return ids.ShortEmpty, err
	}
	return e.create(e.Address(), params)
}

func (e *Env) RentAllowance() env.Balance {
	allowance, err := e.state().rentAllowance(e.Address())
	if err != nil {
		log.Error("failed to read rent allowance", "account", e.Address(), "err", err)
	}
	return allowance
}

// SetRentAllowance records the allowance of the executing account. The
// simulated chain charges no rent.
func (e *Env) SetRentAllowance(allowance env.Balance) error {
	if err := e.touch(); err != nil {
		return err
	}
	return e.state().setRentAllowance(e.Address(), allowance)
}

func (e *Env) GetRuntimeStorage(key []byte) ([]byte, error) {
	if err := e.touch(); err != nil {
		return nil, err
	}
	e.stats.Reads++
	return e.state().getRuntimeStorage(key)
}

func (e *Env) Input() ([]byte, error) {
	f := e.top()
	if f == nil {
		return nil, errNoInvocation
	}
	if err := f.guard.Input(); err != nil {
		return nil, err
	}
	return append([]byte(nil), f.input...), nil
}

func (e *Env) Output(data []byte) error {
	f := e.top()
	if f == nil {
		return errNoInvocation
	}
	if err := f.guard.Output(); err != nil {
		return err
	}
	f.output = append([]byte(nil), data...)
	return nil
}

// Random derives a value from [subject] and the current block number.
func (e *Env) Random(subject []byte) env.Hash {
	seed := make([]byte, len(subject), len(subject)+8)
	copy(seed, subject)
	seed = binary.BigEndian.AppendUint64(seed, uint64(e.BlockNumber()))
	return hashing.ComputeHash256Array(seed)
}

func (e *Env) Println(msg string) {
	log.Info("contract output", "address", e.Address(), "msg", msg)
}
