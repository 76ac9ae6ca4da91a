// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offchain

import (
	"github.com/google/uuid"

	"github.com/ava-labs/contractstore/env"
)

// Kind tells calls, transfers and instantiations apart in the trace.
type Kind string

const (
	KindCall     Kind = "call"
	KindTransfer Kind = "transfer"
	KindCreate   Kind = "create"
)

// Record is one attempted call, transfer or instantiation. Failed attempts
// are recorded too, with [Record.Err] set. Invocation identifies the
// invocation a call or instantiation started, or the invocation a transfer
// was issued from. The To account of an instantiation is the account the
// new contract is placed at.
type Record struct {
	Kind       Kind          `json:"kind"`
	Invocation uuid.UUID     `json:"invocation"`
	Depth      int           `json:"depth"`
	From       env.AccountID `json:"from"`
	To         env.AccountID `json:"to"`
	Selector   env.Selector  `json:"selector"`
	Input      []byte        `json:"input"`
	Value      env.Balance   `json:"value"`
	Err        string        `json:"error,omitempty"`
}

// Failed reports whether the attempt failed.
func (r Record) Failed() bool { return r.Err != "" }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
