// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

// ReturnCode is the status a host function reports.
type ReturnCode uint32

const (
	Success ReturnCode = iota
	CalleeTrapped
	CalleeReverted
	KeyNotFound
	BelowSubsistenceThreshold
	TransferFailed
	NewContractNotFunded
	CodeNotFound
	NotCallable
)

func (c ReturnCode) String() string {
	switch c {
	case Success:
		return "Success"
	case CalleeTrapped:
		return "CalleeTrapped"
	case CalleeReverted:
		return "CalleeReverted"
	case KeyNotFound:
		return "KeyNotFound"
	case BelowSubsistenceThreshold:
		return "BelowSubsistenceThreshold"
	case TransferFailed:
		return "TransferFailed"
	case NewContractNotFunded:
		return "NewContractNotFunded"
	case CodeNotFound:
		return "CodeNotFound"
	case NotCallable:
		return "NotCallable"
	default:
		return "Unknown"
	}
}

// Runtime is the raw function interface of the execution host. Account ids
// are 20 bytes, hashes 32 bytes and balances, block numbers and moments are
// 8 byte little endian integers.
type Runtime interface {
	GetStorage(key []byte) ([]byte, ReturnCode)
	SetStorage(key, value []byte)
	ClearStorage(key []byte)

	Caller() []byte
	Address() []byte
	Balance() []byte
	ValueTransferred() []byte
	BlockNumber() []byte
	Now() []byte
	MinimumBalance() []byte

	// DepositEvent takes the concatenated 32 byte topics.
	DepositEvent(topics, data []byte)
	// Call takes the selector followed by the call arguments as [input].
	Call(callee, value, input []byte) ([]byte, ReturnCode)
	Transfer(to, value []byte) ReturnCode
	// Instantiate takes the constructor selector followed by its arguments
	// as [input] and returns the account of the new contract.
	Instantiate(codeHash, value, input, salt []byte) ([]byte, ReturnCode)

	RentAllowance() []byte
	SetRentAllowance(value []byte)
	GetRuntimeStorage(key []byte) ([]byte, ReturnCode)

	Input() []byte
	Return(data []byte)
	Random(subject []byte) []byte
	Println(msg string)
}
