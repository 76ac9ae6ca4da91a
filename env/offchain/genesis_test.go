// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

func TestGenesisApply(t *testing.T) {
	require := require.New(t)

	data := fmt.Sprintf(`{
		"block": 10,
		"timestamp": "2024-06-01T00:00:00Z",
		// comments and trailing commas are accepted
		"balances": {
			%q: 1000,
			%q: 5,
		},
		"storage": [
			{"account": %q, "key": "0x01", "value": "0xbeef"},
			{"account": %q, "key": "ff", "value": ""},
		],
	}`, alice, bob, alice, bob)
	g, err := ParseGenesis([]byte(data))
	require.NoError(err)

	e := New(DefaultConfig)
	require.NoError(g.Apply(e))

	require.Equal(env.BlockNumber(10), e.BlockNumber())
	require.Equal(env.Moment(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).UnixMilli()), e.Now())

	balance, err := e.BalanceOf(alice)
	require.NoError(err)
	require.Equal(env.Balance(1000), balance)
	balance, err = e.BalanceOf(bob)
	require.NoError(err)
	require.Equal(env.Balance(5), balance)

	value, err := e.Storage(alice, storage.KeyFromUint64(1))
	require.NoError(err)
	require.Equal([]byte{0xbe, 0xef}, value)
	value, err = e.Storage(bob, storage.KeyFromUint64(0xff))
	require.NoError(err)
	require.Empty(value)
}

func TestGenesisDefaultsToConfiguredTime(t *testing.T) {
	require := require.New(t)

	g, err := ParseGenesis([]byte(`{}`))
	require.NoError(err)
	e := New(DefaultConfig)
	require.NoError(g.Apply(e))
	require.Zero(e.BlockNumber())
	require.Equal(env.Moment(DefaultConfig.GenesisTime.UnixMilli()), e.Now())
}

func TestGenesisErrors(t *testing.T) {
	tests := []struct {
		name    string
		genesis string
	}{
		{
			name:    "malformed",
			genesis: `{"block": }`,
		},
		{
			name:    "bad account",
			genesis: `{"balances": {"not an id": 1}}`,
		},
		{
			name:    "long key",
			genesis: fmt.Sprintf(`{"storage": [{"account": %q, "key": "0x%066x", "value": ""}]}`, alice, 1),
		},
		{
			name:    "bad value",
			genesis: fmt.Sprintf(`{"storage": [{"account": %q, "key": "0x01", "value": "0xzz"}]}`, alice),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, err := ParseGenesis([]byte(test.genesis))
			if err == nil {
				err = g.Apply(New(DefaultConfig))
			}
			require.Error(t, err)
		})
	}
}

func TestLoadGenesis(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(os.WriteFile(path, []byte(`{"block": 3}`), 0o600))
	g, err := LoadGenesis(path)
	require.NoError(err)
	require.Equal(env.BlockNumber(3), g.Block)

	_, err = LoadGenesis(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(err, os.ErrNotExist)
}
