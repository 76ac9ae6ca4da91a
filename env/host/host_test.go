// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

type call struct {
	callee, value, input []byte
}

type instantiation struct {
	codeHash, value, input, salt []byte
}

// fakeRuntime records what the Env forwards.
type fakeRuntime struct {
	storage        map[string][]byte
	runtimeStorage map[string][]byte
	caller         []byte
	value          []byte
	input          []byte
	returned       []byte
	calls          []call
	instantiations []instantiation
	rentAllowance  []byte
	topics         []byte
	printed        []string

	callCode        ReturnCode
	transferCode    ReturnCode
	instantiateCode ReturnCode
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		storage:        make(map[string][]byte),
		runtimeStorage: make(map[string][]byte),
		caller:         []byte{1, 2, 3},
		value:          encodeUint64(7),
		rentAllowance:  encodeUint64(500),
	}
}

func (r *fakeRuntime) GetStorage(key []byte) ([]byte, ReturnCode) {
	v, ok := r.storage[string(key)]
	if !ok {
		return nil, KeyNotFound
	}
	return v, Success
}

func (r *fakeRuntime) SetStorage(key, value []byte) { r.storage[string(key)] = value }
func (r *fakeRuntime) ClearStorage(key []byte)      { delete(r.storage, string(key)) }

func (r *fakeRuntime) Caller() []byte           { return r.caller }
func (*fakeRuntime) Address() []byte            { return make([]byte, 20) }
func (*fakeRuntime) Balance() []byte            { return encodeUint64(1000) }
func (r *fakeRuntime) ValueTransferred() []byte { return r.value }
func (*fakeRuntime) BlockNumber() []byte        { return encodeUint64(42) }
func (*fakeRuntime) Now() []byte                { return encodeUint64(1_700_000_000_000) }
func (*fakeRuntime) MinimumBalance() []byte     { return encodeUint64(1) }

func (r *fakeRuntime) DepositEvent(topics, _ []byte) { r.topics = topics }

func (r *fakeRuntime) Call(callee, value, input []byte) ([]byte, ReturnCode) {
	r.calls = append(r.calls, call{callee, value, input})
	if r.callCode != Success {
		return nil, r.callCode
	}
	return []byte("out"), Success
}

func (r *fakeRuntime) Transfer(_, _ []byte) ReturnCode { return r.transferCode }

func (r *fakeRuntime) Instantiate(codeHash, value, input, salt []byte) ([]byte, ReturnCode) {
	r.instantiations = append(r.instantiations, instantiation{codeHash, value, input, salt})
	if r.instantiateCode != Success {
		return nil, r.instantiateCode
	}
	return []byte{0xcc, 0xdd}, Success
}

func (r *fakeRuntime) RentAllowance() []byte         { return r.rentAllowance }
func (r *fakeRuntime) SetRentAllowance(value []byte) { r.rentAllowance = value }

func (r *fakeRuntime) GetRuntimeStorage(key []byte) ([]byte, ReturnCode) {
	v, ok := r.runtimeStorage[string(key)]
	if !ok {
		return nil, KeyNotFound
	}
	return v, Success
}

func (r *fakeRuntime) Input() []byte              { return r.input }
func (r *fakeRuntime) Return(data []byte)         { r.returned = data }
func (*fakeRuntime) Random(subject []byte) []byte { return subject }
func (r *fakeRuntime) Println(msg string)         { r.printed = append(r.printed, msg) }

func TestStoragePassThrough(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	e := New(rt)

	key := storage.KeyFromUint64(5)
	_, err := e.GetStorage(key)
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(e.SetStorage(key, nil))
	value, err := e.GetStorage(key)
	require.NoError(err)
	require.NotNil(value)
	require.Empty(value)

	require.NoError(e.ClearStorage(key))
	require.Empty(rt.storage)
}

func TestProperties(t *testing.T) {
	require := require.New(t)
	e := New(newFakeRuntime())

	require.Equal(ids.ShortID{1, 2, 3}, e.Caller())
	require.Equal(ids.ShortEmpty, e.Address())
	require.Equal(env.Balance(1000), e.Balance())
	require.Equal(env.Balance(7), e.TransferredValue())
	require.Equal(env.BlockNumber(42), e.BlockNumber())
	require.Equal(env.Moment(1_700_000_000_000), e.Now())
	require.Equal(env.Balance(1), e.MinimumBalance())
	require.Equal(ids.ID{9}, e.Random([]byte{9}))
}

func TestInputOutputOrder(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	rt.input = []byte("call data")
	e := New(rt)

	input, err := e.Input()
	require.NoError(err)
	require.Equal([]byte("call data"), input)
	_, err = e.Input()
	require.ErrorIs(err, env.ErrInputAlreadyRead)

	require.NoError(e.Output([]byte("result")))
	require.Equal([]byte("result"), rt.returned)
	require.ErrorIs(e.SetStorage(storage.KeyFromUint64(1), nil), env.ErrOutputAlreadySet)
	require.ErrorIs(e.Output(nil), env.ErrOutputAlreadySet)
}

func TestPropertiesLeaveInputReadable(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	rt.input = []byte("call data")
	e := New(rt)

	e.Caller()
	e.Address()
	e.Balance()
	e.TransferredValue()
	e.BlockNumber()
	e.Now()
	e.MinimumBalance()
	e.Random([]byte{1})

	input, err := e.Input()
	require.NoError(err)
	require.Equal([]byte("call data"), input)

	// properties stay readable once the output is set
	require.NoError(e.Output(nil))
	require.Equal(ids.ShortID{1, 2, 3}, e.Caller())
	require.Equal(env.BlockNumber(42), e.BlockNumber())
}

func TestInvokeContract(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	e := New(rt)

	callee := ids.ShortID{0xaa}
	params := env.CallParams{
		Callee:   callee,
		Selector: env.Selector{1, 2, 3, 4},
		Input:    []byte{5},
		Value:    3,
	}
	out, err := e.InvokeContract(params)
	require.NoError(err)
	require.Equal([]byte("out"), out)
	require.Len(rt.calls, 1)
	require.Equal([]byte{1, 2, 3, 4, 5}, rt.calls[0].input)
	require.Equal(encodeUint64(3), rt.calls[0].value)
	require.Equal(callee[:], rt.calls[0].callee)

	tests := []struct {
		code ReturnCode
		want error
	}{
		{CalleeTrapped, env.ErrCalleeTrapped},
		{CalleeReverted, env.ErrCalleeReverted},
		{NotCallable, env.ErrNoSuchContract},
		{CodeNotFound, env.ErrNoSuchContract},
		{TransferFailed, env.ErrInsufficientBalance},
		{ReturnCode(99), env.ErrHostRefused},
	}
	for _, test := range tests {
		rt.callCode = test.code
		_, err := e.InvokeContract(params)
		require.ErrorIs(err, test.want, test.code.String())

		var callErr *env.CallError
		require.ErrorAs(err, &callErr)
		require.Equal(params.Selector, callErr.Selector)
	}
}

func TestTransferErrors(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	e := New(rt)
	to := ids.ShortID{0xbb}

	require.NoError(e.Transfer(to, 10))

	rt.transferCode = BelowSubsistenceThreshold
	err := e.Transfer(to, 10)
	require.ErrorIs(err, env.ErrBelowMinimumBalance)
	var transferErr *env.TransferError
	require.ErrorAs(err, &transferErr)
	require.Equal(env.Balance(10), transferErr.Value)

	rt.transferCode = TransferFailed
	require.ErrorIs(e.Transfer(to, 10), env.ErrInsufficientBalance)
}

func TestEmitEventConcatenatesTopics(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	e := New(rt)

	require.NoError(e.EmitEvent(env.Event{Topics: []env.Hash{{1}, {2}}, Data: []byte("d")}))
	require.Len(rt.topics, 64)
	require.Equal(byte(1), rt.topics[0])
	require.Equal(byte(2), rt.topics[32])

	e.Println("hello")
	require.Equal([]string{"hello"}, rt.printed)
}

func TestCreateContract(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	e := New(rt)

	params := env.CreateParams{
		CodeHash: ids.ID{0xc0},
		Selector: env.Selector{9, 8, 7, 6},
		Input:    []byte{5},
		Value:    100,
		Salt:     []byte("salt"),
	}
	address, err := e.CreateContract(params)
	require.NoError(err)
	require.Equal(ids.ShortID{0xcc, 0xdd}, address)
	require.Len(rt.instantiations, 1)
	require.Equal(params.CodeHash[:], rt.instantiations[0].codeHash)
	require.Equal([]byte{9, 8, 7, 6, 5}, rt.instantiations[0].input)
	require.Equal(encodeUint64(100), rt.instantiations[0].value)
	require.Equal([]byte("salt"), rt.instantiations[0].salt)

	tests := []struct {
		code ReturnCode
		want error
	}{
		{CodeNotFound, env.ErrCodeNotFound},
		{NewContractNotFunded, env.ErrNotFunded},
		{NotCallable, env.ErrContractExists},
		{CalleeTrapped, env.ErrCalleeTrapped},
		{CalleeReverted, env.ErrCalleeReverted},
		{TransferFailed, env.ErrInsufficientBalance},
		{BelowSubsistenceThreshold, env.ErrBelowMinimumBalance},
		{ReturnCode(99), env.ErrHostRefused},
	}
	for _, test := range tests {
		rt.instantiateCode = test.code
		address, err := e.CreateContract(params)
		require.ErrorIs(err, test.want, test.code.String())
		require.Equal(ids.ShortEmpty, address)

		var createErr *env.CreateError
		require.ErrorAs(err, &createErr)
		require.Equal(params.CodeHash, createErr.CodeHash)
	}
}

func TestRentAllowanceAndRuntimeStorage(t *testing.T) {
	require := require.New(t)
	rt := newFakeRuntime()
	rt.input = []byte("x")
	e := New(rt)

	// reading the allowance is not an interaction
	require.Equal(env.Balance(500), e.RentAllowance())
	_, err := e.Input()
	require.NoError(err)

	require.NoError(e.SetRentAllowance(20))
	require.Equal(env.Balance(20), e.RentAllowance())

	_, err = e.GetRuntimeStorage([]byte("timestamp"))
	require.ErrorIs(err, database.ErrNotFound)
	rt.runtimeStorage["timestamp"] = nil
	value, err := e.GetRuntimeStorage([]byte("timestamp"))
	require.NoError(err)
	require.NotNil(value)
	require.Empty(value)

	require.NoError(e.Output(nil))
	require.ErrorIs(e.SetRentAllowance(1), env.ErrOutputAlreadySet)
	_, err = e.GetRuntimeStorage([]byte("timestamp"))
	require.ErrorIs(err, env.ErrOutputAlreadySet)
}
