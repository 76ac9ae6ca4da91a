// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/env"
)

var _ EventState = (*eventState)(nil)

// EventRecord is an event together with where it was emitted.
type EventRecord struct {
	Emitter   env.AccountID   `serialize:"true" json:"emitter"`
	Block     env.BlockNumber `serialize:"true" json:"block"`
	env.Event `serialize:"true"`
}

// EventState is the append-only log of emitted events.
type EventState interface {
	PutEvent(EventRecord) error
	GetEvents() ([]EventRecord, error)
}

type eventState struct {
	eventDB database.Database
	chainDB database.Database
}

func NewEventState(db, chainDB database.Database) EventState {
	return &eventState{
		eventDB: db,
		chainDB: chainDB,
	}
}

func (s *eventState) PutEvent(event EventRecord) error {
	n, err := getUint64[uint64](s.chainDB, eventCountKey)
	if err != nil {
		return err
	}
	bytes, err := codec.Encode(event)
	if err != nil {
		return err
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], n)
	if err := s.eventDB.Put(key[:], bytes); err != nil {
		return err
	}
	return putUint64(s.chainDB, eventCountKey, n+1)
}

// GetEvents returns every event in emission order.
func (s *eventState) GetEvents() ([]EventRecord, error) {
	it := s.eventDB.NewIterator()
	defer it.Release()

	var events []EventRecord
	for it.Next() {
		event, err := codec.Decode[EventRecord](it.Value())
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, it.Error()
}
