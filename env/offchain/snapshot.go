// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/fxamacker/cbor/v2"
	log "github.com/inconshreveable/log15"
	"github.com/natefinch/atomic"
)

const snapshotVersion = 1

var (
	errSnapshotDuringInvocation = errors.New("cannot snapshot while an invocation is running")
	errSnapshotVersion          = errors.New("unsupported snapshot version")

	snapshotEncMode cbor.EncMode
)

func init() {
	var err error
	snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

type snapshotEntry struct {
	Key   []byte `cbor:"1,keyasint"`
	Value []byte `cbor:"2,keyasint"`
}

// snapshot is the full state of a simulated chain. It is encoded as
// deterministic CBOR, so equal states produce equal bytes.
type snapshot struct {
	Version uint64          `cbor:"1,keyasint"`
	Time    int64           `cbor:"2,keyasint"`
	Entries []snapshotEntry `cbor:"3,keyasint"`
	Trace   []Record        `cbor:"4,keyasint"`
}

// Snapshot encodes the whole simulated store and the trace.
func (e *Env) Snapshot() ([]byte, error) {
	if len(e.frames) != 0 {
		return nil, errSnapshotDuringInvocation
	}

	s := snapshot{
		Version: snapshotVersion,
		Time:    e.clock.Time().UnixNano(),
		Trace:   e.trace,
	}
	it := e.base.NewIterator()
	defer it.Release()
	for it.Next() {
		s.Entries = append(s.Entries, snapshotEntry{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return snapshotEncMode.Marshal(s)
}

// Restore replaces all simulated state with a snapshot. Registered handlers
// are kept.
func (e *Env) Restore(b []byte) error {
	if len(e.frames) != 0 {
		return errSnapshotDuringInvocation
	}

	var s snapshot
	if err := cbor.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", errSnapshotVersion, s.Version)
	}

	db := memdb.New()
	for _, entry := range s.Entries {
		if err := db.Put(entry.Key, entry.Value); err != nil {
			return err
		}
	}
	e.Reset()
	e.base = db
	e.root = newState(db)
	e.trace = s.Trace
	e.clock.Set(time.Unix(0, s.Time).UTC())
	return nil
}

// SaveSnapshot atomically writes a snapshot to [path].
func (e *Env) SaveSnapshot(path string) error {
	b, err := e.Snapshot()
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return err
	}
	log.Info("saved snapshot", "path", path, "size", len(b))
	return nil
}

// LoadSnapshot restores the snapshot stored at [path].
func (e *Env) LoadSnapshot(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := e.Restore(b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Info("loaded snapshot", "path", path, "trace", len(e.trace))
	return nil
}
