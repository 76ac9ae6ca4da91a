// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/env/offchain"
)

const (
	versionKey        = "version"
	httpHostKey       = "http-host"
	httpPortKey       = "http-port"
	logLevelKey       = "log-level"
	genesisFileKey    = "genesis-file"
	snapshotFileKey   = "snapshot-file"
	consoleKey        = "console"
	blockTimeKey      = "block-time"
	minimumBalanceKey = "minimum-balance"

	envPrefix = "CONTRACTSTORE"
)

// config is the parsed configuration of the devnet binary.
type config struct {
	Version      bool
	HTTPHost     string
	HTTPPort     uint16
	LogLevel     log.Lvl
	GenesisFile  string
	SnapshotFile string
	Console      bool
	Chain        offchain.Config
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(offchain.Name, flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(httpHostKey, "127.0.0.1", "Address the JSON-RPC server listens on")
	fs.Uint(httpPortKey, 9650, "Port the JSON-RPC server listens on")
	fs.String(logLevelKey, "info", "Log level (debug, info, warn, error, crit)")
	fs.String(genesisFileKey, "", "Genesis file applied on start. JSON with comments")
	fs.String(snapshotFileKey, "", "Snapshot file restored on start if it exists and written by the snapshot call")
	fs.Bool(consoleKey, false, "If true, opens an interactive console instead of serving JSON-RPC")
	fs.Duration(blockTimeKey, offchain.DefaultConfig.BlockTime, "Time between two simulated blocks")
	fs.Uint64(minimumBalanceKey, 0, "Balance below which no account may fall after a transfer")

	return fs
}

// getViper returns the viper environment for the devnet binary. Every flag
// may also be set through a CONTRACTSTORE_ prefixed environment variable.
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()

	fs := pflag.NewFlagSet(offchain.Name, pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v, nil
}

func parseConfig(args []string) (config, error) {
	v, err := getViper(args)
	if err != nil {
		return config{}, err
	}

	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		return config{}, fmt.Errorf("invalid %s: %w", logLevelKey, err)
	}
	port := v.GetUint(httpPortKey)
	if port > 65535 {
		return config{}, fmt.Errorf("invalid %s: %d", httpPortKey, port)
	}
	blockTime := v.GetDuration(blockTimeKey)
	if blockTime <= 0 {
		return config{}, fmt.Errorf("invalid %s: %s", blockTimeKey, blockTime)
	}

	chain := offchain.DefaultConfig
	chain.BlockTime = blockTime
	chain.MinimumBalance = env.Balance(v.GetUint64(minimumBalanceKey))
	return config{
		Version:      v.GetBool(versionKey),
		HTTPHost:     v.GetString(httpHostKey),
		HTTPPort:     uint16(port),
		LogLevel:     lvl,
		GenesisFile:  v.GetString(genesisFileKey),
		SnapshotFile: v.GetString(snapshotFileKey),
		Console:      v.GetBool(consoleKey),
		Chain:        chain,
	}, nil
}

func (c config) address() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
