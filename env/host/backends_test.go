// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/contract"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/env/offchain"
	"github.com/ava-labs/contractstore/examples/token"
)

type tokenStep struct {
	caller  ids.ShortID
	message string
	input   []byte
	fails   error
}

func encode[T any](t *testing.T, v T) []byte {
	t.Helper()
	b, err := codec.Encode(v)
	require.NoError(t, err)
	return b
}

// runOnHost runs one invocation on a fresh host Env, as the host would for
// every call into the contract.
func runOnHost(rt *fakeRuntime, caller ids.ShortID, input []byte, dispatch offchain.Handler) ([]byte, error) {
	rt.caller = caller[:]
	rt.value = encodeUint64(0)
	rt.input = input
	rt.returned = nil
	if err := dispatch(New(rt)); err != nil {
		return nil, err
	}
	return rt.returned, nil
}

func TestTokenRunsAlikeOnBothBackends(t *testing.T) {
	require := require.New(t)
	var (
		alice        = ids.ShortID{'a', 'l', 'i', 'c', 'e'}
		bob          = ids.ShortID{'b', 'o', 'b'}
		tokenAddress = ids.ShortID{'t', 'o', 'k', 'e', 'n'}
	)
	c := token.Contract()

	chain := offchain.New(offchain.DefaultConfig)
	chain.Register(tokenAddress, c.Dispatch)
	rt := newFakeRuntime()

	steps := []tokenStep{
		{caller: alice, message: token.New, input: encode(t, uint64(1000))},
		{caller: alice, message: token.Transfer, input: encode(t, token.TransferArgs{To: bob, Value: 250})},
		{caller: bob, message: token.BalanceOf, input: encode(t, bob)},
		{caller: bob, message: token.Transfer, input: encode(t, token.TransferArgs{To: alice, Value: 251}), fails: token.ErrInsufficientBalance},
		{caller: bob, message: token.Transfer, input: encode(t, token.TransferArgs{To: alice, Value: 50})},
		{caller: alice, message: token.BalanceOf, input: encode(t, alice)},
		{caller: alice, message: token.New, input: encode(t, uint64(1)), fails: contract.ErrAlreadyInitialized},
	}
	for _, step := range steps {
		selector := contract.Selector(step.message)
		want, err := chain.Execute(offchain.Invocation{
			Caller:   step.caller,
			Callee:   tokenAddress,
			Selector: selector,
			Input:    step.input,
		})
		if step.fails != nil {
			require.ErrorIs(err, step.fails, step.message)
		} else {
			require.NoError(err, step.message)
		}

		got, err := runOnHost(rt, step.caller, append(selector[:], step.input...), c.Dispatch)
		if step.fails != nil {
			require.ErrorIs(err, step.fails, step.message)
			continue
		}
		require.NoError(err, step.message)
		require.Equal(want, got, step.message)
	}

	balance, err := codec.Decode[uint64](rt.returned)
	require.NoError(err)
	require.Equal(uint64(800), balance)

	// both backends persisted the same storage
	entries, err := chain.StorageOf(tokenAddress)
	require.NoError(err)
	require.NotEmpty(entries)
	offchainStorage := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		offchainStorage[string(entry.Key[:])] = entry.Value
	}
	require.Equal(offchainStorage, rt.storage)

	// and emitted the same last event
	events, err := chain.Events()
	require.NoError(err)
	require.Len(events, 3)
	var topics []byte
	for _, topic := range events[len(events)-1].Topics {
		topics = append(topics, topic[:]...)
	}
	require.Equal(topics, rt.topics)
	require.Equal(contract.Topic(token.TransferEvent), env.Hash(rt.topics[:32]))
}
