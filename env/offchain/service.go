// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/version"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractstore/env"
)

const (
	// Name is the name of the devnet API service.
	Name = "contractstore"

	// Endpoint is the http path the devnet API is served at.
	Endpoint = "/ext/" + Name
)

var (
	Version = version.NewDefaultVersion(0, 1, 0)

	errNoSnapshotPath  = errors.New("no snapshot path configured")
	errSnapshotName    = errors.New("snapshot name must be a plain file name")
	errInvalidSelector = errors.New("selector must be 4 hex encoded bytes")
)

// Service is the JSON-RPC API of a simulated chain. Requests are serialized.
type Service struct {
	lock         sync.Mutex
	env          *Env
	snapshotPath string
}

func NewService(e *Env, snapshotPath string) *Service {
	return &Service{env: e, snapshotPath: snapshotPath}
}

// NewHandler returns an http handler serving [s].
func NewHandler(s *Service) (http.Handler, error) {
	server := rpc.NewServer()
	codec := json.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(s, Name)
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	return formatting.Decode(formatting.Hex, s)
}

func parseSelector(s string) (env.Selector, error) {
	var selector env.Selector
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != env.SelectorLen {
		return selector, fmt.Errorf("%w: %q", errInvalidSelector, s)
	}
	copy(selector[:], b)
	return selector, nil
}

// ExecuteArgs are the arguments to Execute. Input is hex encoded with a
// checksum.
type ExecuteArgs struct {
	Caller   ids.ShortID `json:"caller"`
	Callee   ids.ShortID `json:"callee"`
	Selector string      `json:"selector"`
	Input    string      `json:"input"`
	Value    json.Uint64 `json:"value"`
}

type ExecuteReply struct {
	Output string `json:"output"`
}

// Execute runs a top level invocation.
func (s *Service) Execute(_ *http.Request, args *ExecuteArgs, reply *ExecuteReply) error {
	selector, err := parseSelector(args.Selector)
	if err != nil {
		return err
	}
	input, err := decodeHex(args.Input)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	log.Info("executing", "caller", args.Caller, "callee", args.Callee, "selector", selector)
	out, err := s.env.Execute(Invocation{
		Caller:   args.Caller,
		Callee:   args.Callee,
		Selector: selector,
		Input:    input,
		Value:    env.Balance(args.Value),
	})
	if err != nil {
		return err
	}
	reply.Output, err = formatting.EncodeWithChecksum(formatting.Hex, out)
	return err
}

// InstantiateArgs are the arguments to Instantiate. Input and Salt are hex
// encoded with a checksum.
type InstantiateArgs struct {
	Deployer ids.ShortID `json:"deployer"`
	CodeHash ids.ID      `json:"codeHash"`
	Selector string      `json:"selector"`
	Input    string      `json:"input"`
	Value    json.Uint64 `json:"value"`
	Salt     string      `json:"salt"`
}

type InstantiateReply struct {
	Address ids.ShortID `json:"address"`
}

// Instantiate creates a contract from registered code and runs its
// constructor.
func (s *Service) Instantiate(_ *http.Request, args *InstantiateArgs, reply *InstantiateReply) error {
	selector, err := parseSelector(args.Selector)
	if err != nil {
		return err
	}
	input, err := decodeHex(args.Input)
	if err != nil {
		return err
	}
	salt, err := decodeHex(args.Salt)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	log.Info("instantiating", "deployer", args.Deployer, "code", args.CodeHash, "selector", selector)
	reply.Address, err = s.env.Instantiate(args.Deployer, env.CreateParams{
		CodeHash: args.CodeHash,
		Selector: selector,
		Input:    input,
		Value:    env.Balance(args.Value),
		Salt:     salt,
	})
	return err
}

type TransferArgs struct {
	From  ids.ShortID `json:"from"`
	To    ids.ShortID `json:"to"`
	Value json.Uint64 `json:"value"`
}

// Transfer moves value between two accounts.
func (s *Service) Transfer(_ *http.Request, args *TransferArgs, reply *api.SuccessResponse) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.env.TransferFrom(args.From, args.To, env.Balance(args.Value)); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

type BalanceArgs struct {
	Account ids.ShortID `json:"account"`
	Balance json.Uint64 `json:"balance"`
}

type BalanceReply struct {
	Balance json.Uint64 `json:"balance"`
}

// SeedBalance sets the balance of an account.
func (s *Service) SeedBalance(_ *http.Request, args *BalanceArgs, reply *api.SuccessResponse) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.env.SeedBalance(args.Account, env.Balance(args.Balance)); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// GetBalance returns the balance of an account.
func (s *Service) GetBalance(_ *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	balance, err := s.env.BalanceOf(args.Account)
	reply.Balance = json.Uint64(balance)
	return err
}

// GetStorageArgs identify one storage value. Key is plain hex and left
// padded to 32 bytes.
type GetStorageArgs struct {
	Account ids.ShortID `json:"account"`
	Key     string      `json:"key"`
}

type GetStorageReply struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// GetStorage reads a storage value of an account.
func (s *Service) GetStorage(_ *http.Request, args *GetStorageArgs, reply *GetStorageReply) error {
	key, err := parseGenesisKey(args.Key)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	value, err := s.env.Storage(args.Account, key)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	reply.Found = true
	reply.Value, err = formatting.EncodeWithChecksum(formatting.Hex, value)
	return err
}

type EventsReply struct {
	Events []EventRecord `json:"events"`
}

// Events returns every emitted event.
func (s *Service) Events(_ *http.Request, _ *struct{}, reply *EventsReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	events, err := s.env.Events()
	reply.Events = events
	return err
}

type TraceReply struct {
	Records []Record `json:"records"`
}

// Trace returns every attempted call and transfer.
func (s *Service) Trace(_ *http.Request, _ *struct{}, reply *TraceReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Records = s.env.Trace()
	return nil
}

type AdvanceBlockArgs struct {
	Blocks json.Uint64 `json:"blocks"`
}

type BlockReply struct {
	Block     json.Uint64 `json:"block"`
	Timestamp json.Uint64 `json:"timestamp"`
}

// AdvanceBlock moves the chain ahead and returns the new head.
func (s *Service) AdvanceBlock(_ *http.Request, args *AdvanceBlockArgs, reply *BlockReply) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.env.AdvanceBlock(uint64(args.Blocks)); err != nil {
		return err
	}
	reply.Block = json.Uint64(s.env.BlockNumber())
	reply.Timestamp = json.Uint64(s.env.Now())
	return nil
}

// Stats returns the host operation counters.
func (s *Service) Stats(_ *http.Request, _ *struct{}, reply *Stats) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	*reply = s.env.Stats()
	return nil
}

// Reset drops all state.
func (s *Service) Reset(_ *http.Request, _ *struct{}, reply *api.SuccessResponse) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.env.Reset()
	log.Info("reset devnet state")
	reply.Success = true
	return nil
}

type SnapshotArgs struct {
	// Name, if set, replaces the file name of the configured snapshot path.
	// The snapshot is always written to the configured directory.
	Name string `json:"name"`
}

// Snapshot saves the state to disk.
func (s *Service) Snapshot(_ *http.Request, args *SnapshotArgs, reply *api.SuccessResponse) error {
	path, err := s.snapshotFile(args.Name)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.env.SaveSnapshot(path); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

func (s *Service) snapshotFile(name string) (string, error) {
	if s.snapshotPath == "" {
		return "", errNoSnapshotPath
	}
	if name == "" {
		return s.snapshotPath, nil
	}
	if !filepath.IsLocal(name) || filepath.Base(name) != name || name == "." {
		return "", fmt.Errorf("%w: %q", errSnapshotName, name)
	}
	return filepath.Join(filepath.Dir(s.snapshotPath), name), nil
}
