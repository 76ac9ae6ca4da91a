// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/ava-labs/contractstore/codec"
	"github.com/ava-labs/contractstore/contract"
	"github.com/ava-labs/contractstore/env"
	"github.com/ava-labs/contractstore/env/offchain"
)

var (
	errUsage   = errors.New("usage")
	errBadArgs = errors.New("arguments must be 0x<hex>, u64:<n> or id:<account>")

	commands = []string{
		"contracts", "balance", "seed", "transfer", "call",
		"create", "storage", "events", "trace", "advance",
		"stats", "snapshot", "load", "reset", "help", "exit",
	}
)

const help = `commands:
  contracts                                         list the registered contracts
  balance <account>                                 show a balance
  seed <account> <balance>                          set a balance
  transfer <from> <to> <value>                      move value between accounts
  call <caller> <contract> <message> [args] [value] run a message
  create <deployer> <contract> <constructor> [args] [value] [salt]
                                                    instantiate the code of a contract
  storage <account>                                 list the storage of an account
  events                                            list emitted events
  trace                                             list attempted calls, transfers and creates
  advance [blocks]                                  move the chain ahead
  stats                                             show host operation counters
  snapshot [path]                                   save the state
  load <path>                                       restore a saved state
  reset                                             drop all state
  exit                                              leave the console
accounts are contract names or cb58 ids. args are 0x<hex>, u64:<n> or id:<account>.
`

type console struct {
	devnet *devnet
	out    io.Writer
}

func newConsole(d *devnet, out io.Writer) *console {
	return &console{devnet: d, out: out}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+offchain.Name+"_history")
}

// Run reads commands from the terminal until exit.
func (c *console) Run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)
	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile()); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(c.out, "%s@%s console. Type 'help' for commands.\n", offchain.Name, offchain.Version)
	for {
		input, err := line.Prompt(offchain.Name + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := c.exec(input)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func complete(line string) []string {
	var completions []string
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

// exec runs one console command.
func (c *console) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	e := c.devnet.env
	switch cmd {
	case "exit", "quit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(c.out, help)
	case "contracts":
		for _, d := range c.devnet.contracts {
			fmt.Fprintf(c.out, "%s %s %s\n", d.name, d.address, strings.Join(d.messages, ","))
		}
	case "balance":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: balance <account>", errUsage)
		}
		account, err := c.devnet.resolveAccount(args[0])
		if err != nil {
			return false, err
		}
		balance, err := e.BalanceOf(account)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, balance)
	case "seed":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: seed <account> <balance>", errUsage)
		}
		account, err := c.devnet.resolveAccount(args[0])
		if err != nil {
			return false, err
		}
		balance, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return false, err
		}
		return false, e.SeedBalance(account, env.Balance(balance))
	case "transfer":
		if len(args) != 3 {
			return false, fmt.Errorf("%w: transfer <from> <to> <value>", errUsage)
		}
		from, err := c.devnet.resolveAccount(args[0])
		if err != nil {
			return false, err
		}
		to, err := c.devnet.resolveAccount(args[1])
		if err != nil {
			return false, err
		}
		value, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return false, err
		}
		return false, e.TransferFrom(from, to, env.Balance(value))
	case "call":
		return false, c.call(args)
	case "create":
		return false, c.create(args)
	case "storage":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: storage <account>", errUsage)
		}
		account, err := c.devnet.resolveAccount(args[0])
		if err != nil {
			return false, err
		}
		entries, err := e.StorageOf(account)
		if err != nil {
			return false, err
		}
		for _, entry := range entries {
			fmt.Fprintf(c.out, "%s %s\n", entry.Key, hex.EncodeToString(entry.Value))
		}
	case "events":
		events, err := e.Events()
		if err != nil {
			return false, err
		}
		for _, event := range events {
			fmt.Fprintf(c.out, "#%d %s topics=%d data=%s\n", event.Block, event.Emitter, len(event.Topics), hex.EncodeToString(event.Data))
		}
	case "trace":
		for _, r := range e.Trace() {
			fmt.Fprintf(c.out, "%s%s %s -> %s %s value=%d", strings.Repeat("  ", r.Depth), r.Kind, r.From, r.To, r.Selector, r.Value)
			if r.Failed() {
				fmt.Fprintf(c.out, " error=%q", r.Err)
			}
			fmt.Fprintln(c.out)
		}
	case "advance":
		blocks := uint64(1)
		if len(args) > 0 {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return false, err
			}
			blocks = n
		}
		if err := e.AdvanceBlock(blocks); err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "block %d at %d\n", e.BlockNumber(), e.Now())
	case "stats":
		fmt.Fprintf(c.out, "%+v\n", e.Stats())
	case "snapshot":
		path := c.devnet.snapshotPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return false, fmt.Errorf("%w: snapshot <path>", errUsage)
		}
		return false, e.SaveSnapshot(path)
	case "load":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: load <path>", errUsage)
		}
		return false, e.LoadSnapshot(args[0])
	case "reset":
		e.Reset()
	default:
		return false, fmt.Errorf("unknown command %q, type 'help' for commands", cmd)
	}
	return false, nil
}

func (c *console) call(args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return fmt.Errorf("%w: call <caller> <contract> <message> [args] [value]", errUsage)
	}
	caller, err := c.devnet.resolveAccount(args[0])
	if err != nil {
		return err
	}
	callee, err := c.devnet.resolveAccount(args[1])
	if err != nil {
		return err
	}
	var input []byte
	if len(args) > 3 {
		if input, err = c.parseArgs(args[3]); err != nil {
			return err
		}
	}
	var value uint64
	if len(args) > 4 {
		if value, err = strconv.ParseUint(args[4], 10, 64); err != nil {
			return err
		}
	}

	out, err := c.devnet.env.Execute(offchain.Invocation{
		Caller:   caller,
		Callee:   callee,
		Selector: contract.Selector(args[2]),
		Input:    input,
		Value:    env.Balance(value),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "0x%s\n", hex.EncodeToString(out))
	return nil
}

func (c *console) create(args []string) error {
	if len(args) < 3 || len(args) > 6 {
		return fmt.Errorf("%w: create <deployer> <contract> <constructor> [args] [value] [salt]", errUsage)
	}
	deployer, err := c.devnet.resolveAccount(args[0])
	if err != nil {
		return err
	}
	code, err := c.devnet.resolveCode(args[1])
	if err != nil {
		return err
	}
	var input []byte
	if len(args) > 3 {
		if input, err = c.parseArgs(args[3]); err != nil {
			return err
		}
	}
	var value uint64
	if len(args) > 4 {
		if value, err = strconv.ParseUint(args[4], 10, 64); err != nil {
			return err
		}
	}
	var salt []byte
	if len(args) > 5 {
		salt = []byte(args[5])
	}

	address, err := c.devnet.env.Instantiate(deployer, env.CreateParams{
		CodeHash: code,
		Selector: contract.Selector(args[2]),
		Input:    input,
		Value:    env.Balance(value),
		Salt:     salt,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, address)
	return nil
}

// parseArgs encodes one console argument as message input.
func (c *console) parseArgs(s string) ([]byte, error) {
	switch {
	case strings.HasPrefix(s, "0x"):
		return hex.DecodeString(s[2:])
	case strings.HasPrefix(s, "u64:"):
		n, err := strconv.ParseUint(s[4:], 10, 64)
		if err != nil {
			return nil, err
		}
		return codec.Encode(n)
	case strings.HasPrefix(s, "id:"):
		account, err := c.devnet.resolveAccount(s[3:])
		if err != nil {
			return nil, err
		}
		return codec.Encode(account)
	default:
		return nil, fmt.Errorf("%w: %q", errBadArgs, s)
	}
}
