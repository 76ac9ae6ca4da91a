// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/env/offchain"
)

// Client defines devnet client operations.
type Client interface {
	// Execute runs an invocation and returns its output
	Execute(ctx context.Context, caller, callee ids.ShortID, selector env.Selector, input []byte, value uint64) ([]byte, error)

	// Instantiate creates a contract from registered code and returns its
	// account
	Instantiate(ctx context.Context, deployer ids.ShortID, code ids.ID, selector env.Selector, input []byte, value uint64, salt []byte) (ids.ShortID, error)

	// Transfer moves value between two accounts
	Transfer(ctx context.Context, from, to ids.ShortID, value uint64) error

	SeedBalance(ctx context.Context, account ids.ShortID, balance uint64) error
	GetBalance(ctx context.Context, account ids.ShortID) (uint64, error)

	// GetStorage reads one storage value. [key] is hex and is left padded
	// to a full key.
	GetStorage(ctx context.Context, account ids.ShortID, key string) ([]byte, bool, error)

	Events(ctx context.Context) ([]offchain.EventRecord, error)
	Trace(ctx context.Context) ([]offchain.Record, error)

	// AdvanceBlock returns the new block number and timestamp
	AdvanceBlock(ctx context.Context, blocks uint64) (uint64, uint64, error)

	Stats(ctx context.Context) (offchain.Stats, error)
	Reset(ctx context.Context) error

	// Snapshot saves the devnet state next to the snapshot file the devnet
	// was started with. A non-empty [name] replaces that file's name.
	Snapshot(ctx context.Context, name string) error
}

// New creates a new client object. [uri] is the devnet's base url, the
// API is reached at [offchain.Endpoint] below it.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, offchain.Endpoint, offchain.Name)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Execute(ctx context.Context, caller, callee ids.ShortID, selector env.Selector, input []byte, value uint64) ([]byte, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, input)
	if err != nil {
		return nil, err
	}
	resp := new(offchain.ExecuteReply)
	err = cli.req.SendRequest(ctx, "execute", &offchain.ExecuteArgs{
		Caller:   caller,
		Callee:   callee,
		Selector: selector.String(),
		Input:    encoded,
		Value:    json.Uint64(value),
	}, resp)
	if err != nil {
		return nil, err
	}
	return formatting.Decode(formatting.Hex, resp.Output)
}

func (cli *client) Instantiate(ctx context.Context, deployer ids.ShortID, code ids.ID, selector env.Selector, input []byte, value uint64, salt []byte) (ids.ShortID, error) {
	encodedInput, err := formatting.EncodeWithChecksum(formatting.Hex, input)
	if err != nil {
		return ids.ShortEmpty, err
	}
	encodedSalt, err := formatting.EncodeWithChecksum(formatting.Hex, salt)
	if err != nil {
		return ids.ShortEmpty, err
	}
	resp := new(offchain.InstantiateReply)
	err = cli.req.SendRequest(ctx, "instantiate", &offchain.InstantiateArgs{
		Deployer: deployer,
		CodeHash: code,
		Selector: selector.String(),
		Input:    encodedInput,
		Value:    json.Uint64(value),
		Salt:     encodedSalt,
	}, resp)
	return resp.Address, err
}

func (cli *client) Transfer(ctx context.Context, from, to ids.ShortID, value uint64) error {
	return cli.req.SendRequest(ctx, "transfer", &offchain.TransferArgs{
		From:  from,
		To:    to,
		Value: json.Uint64(value),
	}, &api.SuccessResponse{})
}

func (cli *client) SeedBalance(ctx context.Context, account ids.ShortID, balance uint64) error {
	return cli.req.SendRequest(ctx, "seedBalance", &offchain.BalanceArgs{
		Account: account,
		Balance: json.Uint64(balance),
	}, &api.SuccessResponse{})
}

func (cli *client) GetBalance(ctx context.Context, account ids.ShortID) (uint64, error) {
	resp := new(offchain.BalanceReply)
	err := cli.req.SendRequest(ctx, "getBalance", &offchain.BalanceArgs{Account: account}, resp)
	return uint64(resp.Balance), err
}

func (cli *client) GetStorage(ctx context.Context, account ids.ShortID, key string) ([]byte, bool, error) {
	resp := new(offchain.GetStorageReply)
	err := cli.req.SendRequest(ctx, "getStorage", &offchain.GetStorageArgs{Account: account, Key: key}, resp)
	if err != nil || !resp.Found {
		return nil, false, err
	}
	value, err := formatting.Decode(formatting.Hex, resp.Value)
	return value, err == nil, err
}

func (cli *client) Events(ctx context.Context) ([]offchain.EventRecord, error) {
	resp := new(offchain.EventsReply)
	err := cli.req.SendRequest(ctx, "events", struct{}{}, resp)
	return resp.Events, err
}

func (cli *client) Trace(ctx context.Context) ([]offchain.Record, error) {
	resp := new(offchain.TraceReply)
	err := cli.req.SendRequest(ctx, "trace", struct{}{}, resp)
	return resp.Records, err
}

func (cli *client) AdvanceBlock(ctx context.Context, blocks uint64) (uint64, uint64, error) {
	resp := new(offchain.BlockReply)
	err := cli.req.SendRequest(ctx, "advanceBlock", &offchain.AdvanceBlockArgs{Blocks: json.Uint64(blocks)}, resp)
	return uint64(resp.Block), uint64(resp.Timestamp), err
}

func (cli *client) Stats(ctx context.Context) (offchain.Stats, error) {
	resp := offchain.Stats{}
	err := cli.req.SendRequest(ctx, "stats", struct{}{}, &resp)
	return resp, err
}

func (cli *client) Reset(ctx context.Context) error {
	return cli.req.SendRequest(ctx, "reset", struct{}{}, &api.SuccessResponse{})
}

func (cli *client) Snapshot(ctx context.Context, name string) error {
	return cli.req.SendRequest(ctx, "snapshot", &offchain.SnapshotArgs{Name: name}, &api.SuccessResponse{})
}
