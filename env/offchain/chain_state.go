// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/env"
)

const (
	BlockNumberKey byte = iota
	TimestampKey
	EventCountKey
)

var (
	blockNumberKey = []byte{BlockNumberKey}
	timestampKey   = []byte{TimestampKey}
	eventCountKey  = []byte{EventCountKey}

	_ ChainState = (*chainState)(nil)
)

// ChainState is a thin wrapper around a database to provide serialization
// and de-serialization of the simulated chain position.
type ChainState interface {
	BlockNumber() (env.BlockNumber, error)
	SetBlockNumber(env.BlockNumber) error
	// Timestamp is the time of the current block in milliseconds.
	Timestamp() (env.Moment, error)
	SetTimestamp(env.Moment) error
}

type chainState struct {
	chainDB database.Database
}

func NewChainState(db database.Database) ChainState {
	return &chainState{
		chainDB: db,
	}
}

func getUint64[T ~uint64](db database.Database, key []byte) (T, error) {
	b, err := db.Get(key)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return codec.Decode[T](b)
}

func putUint64[T ~uint64](db database.Database, key []byte, v T) error {
	b, err := codec.Encode(v)
	if err != nil {
		return err
	}
	return db.Put(key, b)
}

func (s *chainState) BlockNumber() (env.BlockNumber, error) {
	return getUint64[env.BlockNumber](s.chainDB, blockNumberKey)
}

func (s *chainState) SetBlockNumber(n env.BlockNumber) error {
	return putUint64(s.chainDB, blockNumberKey, n)
}

func (s *chainState) Timestamp() (env.Moment, error) {
	return getUint64[env.Moment](s.chainDB, timestampKey)
}

func (s *chainState) SetTimestamp(t env.Moment) error {
	return putUint64(s.chainDB, timestampKey, t)
}
