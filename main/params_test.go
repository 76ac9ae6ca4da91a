// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"testing"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/env/offchain"
)

func TestParseConfigDefaults(t *testing.T) {
	require := require.New(t)

	c, err := parseConfig(nil)
	require.NoError(err)
	require.False(c.Version)
	require.False(c.Console)
	require.Equal(log.LvlInfo, c.LogLevel)
	require.Equal("127.0.0.1:9650", c.address())
	require.Equal(offchain.DefaultConfig, c.Chain)
}

func TestParseConfigFlags(t *testing.T) {
	require := require.New(t)

	c, err := parseConfig([]string{
		"--http-port=9000",
		"--log-level=debug",
		"--block-time=5s",
		"--minimum-balance=10",
		"--console",
		"--snapshot-file=state.snapshot",
	})
	require.NoError(err)
	require.Equal(uint16(9000), c.HTTPPort)
	require.Equal(log.LvlDebug, c.LogLevel)
	require.Equal(5*time.Second, c.Chain.BlockTime)
	require.EqualValues(10, c.Chain.MinimumBalance)
	require.Equal(offchain.DefaultConfig.GenesisTime, c.Chain.GenesisTime)
	require.True(c.Console)
	require.Equal("state.snapshot", c.SnapshotFile)
}

func TestParseConfigFromEnvironment(t *testing.T) {
	require := require.New(t)

	t.Setenv("CONTRACTSTORE_HTTP_HOST", "0.0.0.0")
	t.Setenv("CONTRACTSTORE_LOG_LEVEL", "warn")

	c, err := parseConfig(nil)
	require.NoError(err)
	require.Equal("0.0.0.0", c.HTTPHost)
	require.Equal(log.LvlWarn, c.LogLevel)

	// flags win over the environment
	c, err = parseConfig([]string{"--log-level=error"})
	require.NoError(err)
	require.Equal(log.LvlError, c.LogLevel)
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string][]string{
		"log level":  {"--log-level=loud"},
		"port":       {"--http-port=70000"},
		"block time": {"--block-time=0s"},
		"flag":       {"--missing"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseConfig(args)
			require.Error(t, err)
		})
	}
}
