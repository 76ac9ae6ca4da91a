// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/pflag"

	"github.com/ava-labs/contractstore/env/offchain"
)

const shutdownTimeout = 5 * time.Second

func main() {
	c, err := parseConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if c.Version {
		fmt.Printf("%s@%s\n", offchain.Name, offchain.Version)
		os.Exit(0)
	}

	log.Root().SetHandler(log.LvlFilterHandler(c.LogLevel, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	d, err := newDevnet(c)
	if err != nil {
		fmt.Printf("couldn't start devnet: %s\n", err)
		os.Exit(1)
	}

	if c.Console {
		err = newConsole(d, os.Stdout).Run()
	} else {
		err = serve(d, c.address())
	}
	if err != nil {
		fmt.Printf("devnet returned an error: %s\n", err)
		os.Exit(1)
	}
}

// serve runs the JSON-RPC and metrics endpoints until interrupted.
func serve(d *devnet, address string) error {
	handler, err := d.handler()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		log.Info("serving devnet", "address", address, "rpc", rpcEndpoint, "metrics", metricsEndpoint)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
