// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"errors"
	"math"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/storage"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	storagePrefix = []byte("storage")
	balancePrefix = []byte("balance")
	chainPrefix   = []byte("chain")
	eventPrefix   = []byte("event")
	codePrefix    = []byte("code")
	rentPrefix    = []byte("rent")
	runtimePrefix = []byte("runtime")
)

const accountLen = len(ids.ShortEmpty)

// state is a view of the simulated persisted store through one database.
// The database is either the base store or the frame of a running
// invocation.
type state struct {
	ChainState
	EventState

	db       database.Database
	storage  database.Database
	balances database.Database
	codes    database.Database
	rents    database.Database
	runtime  database.Database
}

func newState(db database.Database) *state {
	chainDB := prefixdb.New(chainPrefix, db)
	return &state{
		ChainState: NewChainState(chainDB),
		EventState: NewEventState(prefixdb.New(eventPrefix, db), chainDB),
		db:         db,
		storage:    prefixdb.New(storagePrefix, db),
		balances:   prefixdb.New(balancePrefix, db),
		codes:      prefixdb.New(codePrefix, db),
		rents:      prefixdb.New(rentPrefix, db),
		runtime:    prefixdb.New(runtimePrefix, db),
	}
}

func storageKey(account env.AccountID, key storage.Key) []byte {
	k := make([]byte, 0, accountLen+storage.KeyLen)
	k = append(k, account[:]...)
	return append(k, key[:]...)
}

func (s *state) getStorage(account env.AccountID, key storage.Key) ([]byte, error) {
	return s.storage.Get(storageKey(account, key))
}

func (s *state) putStorage(account env.AccountID, key storage.Key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return s.storage.Put(storageKey(account, key), value)
}

func (s *state) deleteStorage(account env.AccountID, key storage.Key) error {
	return s.storage.Delete(storageKey(account, key))
}

// balance returns the balance of [account]. Unknown accounts hold nothing.
func (s *state) balance(account env.AccountID) (env.Balance, error) {
	b, err := s.balances.Get(account[:])
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return codec.Decode[env.Balance](b)
}

func (s *state) setBalance(account env.AccountID, balance env.Balance) error {
	b, err := codec.Encode(balance)
	if err != nil {
		return err
	}
	return s.balances.Put(account[:], b)
}

// codeOf returns the code hash [account] was instantiated from.
func (s *state) codeOf(account env.AccountID) (env.Hash, bool, error) {
	b, err := s.codes.Get(account[:])
	if isNotFound(err) {
		return ids.Empty, false, nil
	}
	if err != nil {
		return ids.Empty, false, err
	}
	code, err := ids.ToID(b)
	return code, err == nil, err
}

func (s *state) setCode(account env.AccountID, code env.Hash) error {
	return s.codes.Put(account[:], code[:])
}

// rentAllowance returns the rent allowance of [account]. Accounts that never
// set one allow any rent.
func (s *state) rentAllowance(account env.AccountID) (env.Balance, error) {
	b, err := s.rents.Get(account[:])
	if isNotFound(err) {
		return math.MaxUint64, nil
	}
	if err != nil {
		return 0, err
	}
	return codec.Decode[env.Balance](b)
}

func (s *state) setRentAllowance(account env.AccountID, allowance env.Balance) error {
	b, err := codec.Encode(allowance)
	if err != nil {
		return err
	}
	return s.rents.Put(account[:], b)
}

func (s *state) getRuntimeStorage(key []byte) ([]byte, error) {
	return s.runtime.Get(key)
}

func (s *state) putRuntimeStorage(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return s.runtime.Put(key, value)
}

// StorageEntry is one persisted storage value of one account.
type StorageEntry struct {
	Account env.AccountID
	Key     storage.Key
	Value   []byte
}

// storageOf returns every storage entry of [account] in key order.
func (s *state) storageOf(account env.AccountID) ([]StorageEntry, error) {
	it := s.storage.NewIteratorWithPrefix(account[:])
	defer it.Release()

	var entries []StorageEntry
	for it.Next() {
		key, err := storage.KeyFromBytes(it.Key()[accountLen:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, StorageEntry{
			Account: account,
			Key:     key,
			Value:   append([]byte{}, it.Value()...),
		})
	}
	return entries, it.Error()
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
