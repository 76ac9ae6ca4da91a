// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/contractstore/contract"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/env/offchain"
	"github.com/ava-labs/contractstore/examples/jobs"
	"github.com/ava-labs/contractstore/examples/token"
)

const (
	rpcEndpoint     = offchain.Endpoint
	metricsEndpoint = "/metrics"
)

var (
	errUnknownAccount = errors.New("unknown account")
	errUnknownCode    = errors.New("unknown contract code")
)

type deployment struct {
	name     string
	address  ids.ShortID
	code     env.Hash
	messages []string
}

// devnet is a simulated chain with the example contracts registered.
type devnet struct {
	env          *offchain.Env
	metered      *env.Metered
	registry     *prometheus.Registry
	snapshotPath string
	contracts    []deployment
}

// addressOf derives the devnet address of the contract called [name].
func addressOf(name string) ids.ShortID {
	return ids.ShortID(hashing.ComputeHash160Array([]byte(name)))
}

func newDevnet(c config) (*devnet, error) {
	e := offchain.New(c.Chain)
	registry := prometheus.NewRegistry()
	metered, err := env.NewMetered(e, offchain.Name, registry)
	if err != nil {
		return nil, err
	}
	d := &devnet{
		env:          e,
		metered:      metered,
		registry:     registry,
		snapshotPath: c.SnapshotFile,
	}
	register(d, token.Contract())
	register(d, jobs.Contract())

	if c.GenesisFile != "" {
		g, err := offchain.LoadGenesis(c.GenesisFile)
		if err != nil {
			return nil, err
		}
		if err := g.Apply(e); err != nil {
			return nil, err
		}
	}
	if c.SnapshotFile != "" {
		_, err := os.Stat(c.SnapshotFile)
		switch {
		case err == nil:
			if err := e.LoadSnapshot(c.SnapshotFile); err != nil {
				return nil, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	return d, nil
}

// register makes [c] callable at its devnet address and instantiable from
// its code hash. Contracts reach the simulated host through the metered
// environment.
func register[S any](d *devnet, c *contract.Contract[S]) {
	address := addressOf(c.Name())
	handler := func(env.Env) error {
		return c.Dispatch(d.metered)
	}
	d.env.Register(address, handler)
	d.env.RegisterCode(c.CodeHash(), handler)
	messages := c.Messages()
	sort.Strings(messages)
	d.contracts = append(d.contracts, deployment{
		name:     c.Name(),
		address:  address,
		code:     c.CodeHash(),
		messages: messages,
	})
	log.Info("registered contract", "name", c.Name(), "address", address, "code", c.CodeHash())
}

// resolveCode returns the code hash of the contract called [name].
func (d *devnet) resolveCode(name string) (env.Hash, error) {
	for _, c := range d.contracts {
		if c.name == name {
			return c.code, nil
		}
	}
	return env.Hash{}, fmt.Errorf("%w %q", errUnknownCode, name)
}

// resolveAccount accepts a contract name or a cb58 encoded account id.
func (d *devnet) resolveAccount(s string) (ids.ShortID, error) {
	for _, c := range d.contracts {
		if c.name == s {
			return c.address, nil
		}
	}
	id, err := ids.ShortFromString(s)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w %q: %v", errUnknownAccount, s, err)
	}
	return id, nil
}

func (d *devnet) handler() (http.Handler, error) {
	rpc, err := offchain.NewHandler(offchain.NewService(d.env, d.snapshotPath))
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(rpcEndpoint, rpc)
	mux.Handle(metricsEndpoint, promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	return mux, nil
}
