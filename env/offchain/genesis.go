// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/tailscale/hujson"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

var errInvalidGenesis = errors.New("invalid genesis")

// Genesis is the initial state of a simulated chain. Genesis files are JSON
// and may contain comments and trailing commas.
//
//	{
//	  "block": 1,
//	  "timestamp": "2024-01-01T00:00:00Z",
//	  // account ids are cb58 encoded
//	  "balances": {"111111111111111111116DBWJs": 1000},
//	  "storage": [
//	    {"account": "111111111111111111116DBWJs", "key": "0x01", "value": "0xbeef"},
//	  ],
//	}
type Genesis struct {
	Block     env.BlockNumber      `json:"block"`
	Timestamp *time.Time           `json:"timestamp,omitempty"`
	Balances  map[string]uint64    `json:"balances"`
	Storage   []GenesisStorageItem `json:"storage"`
}

// GenesisStorageItem is one storage value. Key and value are hex encoded,
// keys are left padded to 32 bytes.
type GenesisStorageItem struct {
	Account string `json:"account"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// ParseGenesis parses a genesis file.
func ParseGenesis(data []byte) (*Genesis, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidGenesis, err)
	}
	g := &Genesis{}
	if err := json.Unmarshal(standardized, g); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidGenesis, err)
	}
	return g, nil
}

// LoadGenesis reads and parses the genesis file at [path].
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGenesis(data)
}

func decodeGenesisHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseGenesisKey(s string) (storage.Key, error) {
	b, err := decodeGenesisHex(s)
	if err != nil {
		return storage.Key{}, err
	}
	if len(b) > storage.KeyLen {
		return storage.Key{}, fmt.Errorf("key %q is longer than %d bytes", s, storage.KeyLen)
	}
	padded := make([]byte, storage.KeyLen)
	copy(padded[storage.KeyLen-len(b):], b)
	return storage.KeyFromBytes(padded)
}

// Apply writes [g] into the simulated chain.
func (g *Genesis) Apply(e *Env) error {
	timestamp := e.config.GenesisTime
	if g.Timestamp != nil {
		timestamp = *g.Timestamp
	}
	if err := e.SetBlock(g.Block, timestamp); err != nil {
		return err
	}

	// apply balances in a stable order
	accounts := make([]string, 0, len(g.Balances))
	for account := range g.Balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		id, err := ids.ShortFromString(account)
		if err != nil {
			return fmt.Errorf("%w: balance of %q: %w", errInvalidGenesis, account, err)
		}
		if err := e.SeedBalance(id, env.Balance(g.Balances[account])); err != nil {
			return err
		}
	}

	for i, item := range g.Storage {
		id, err := ids.ShortFromString(item.Account)
		if err != nil {
			return fmt.Errorf("%w: storage item %d: %w", errInvalidGenesis, i, err)
		}
		key, err := parseGenesisKey(item.Key)
		if err != nil {
			return fmt.Errorf("%w: storage item %d: %w", errInvalidGenesis, i, err)
		}
		value, err := decodeGenesisHex(item.Value)
		if err != nil {
			return fmt.Errorf("%w: storage item %d: %w", errInvalidGenesis, i, err)
		}
		if err := e.SeedStorage(id, key, value); err != nil {
			return err
		}
	}
	log.Info("applied genesis", "block", g.Block, "accounts", len(g.Balances), "storage", len(g.Storage))
	return nil
}
