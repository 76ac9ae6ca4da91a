// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build wasip1

package host

import "unsafe"

const scratchLen = 16 << 10

// scratch receives every value the host writes back. Contracts are single
// threaded, so one buffer is enough.
var scratch [scratchLen]byte

//go:wasmimport seal0 seal_get_storage
func sealGetStorage(keyPtr, outPtr, outLenPtr unsafe.Pointer) uint32

//go:wasmimport seal0 seal_set_storage
func sealSetStorage(keyPtr, valuePtr unsafe.Pointer, valueLen uint32)

//go:wasmimport seal0 seal_clear_storage
func sealClearStorage(keyPtr unsafe.Pointer)

//go:wasmimport seal0 seal_caller
func sealCaller(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_address
func sealAddress(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_balance
func sealBalance(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_value_transferred
func sealValueTransferred(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_block_number
func sealBlockNumber(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_now
func sealNow(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_minimum_balance
func sealMinimumBalance(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_deposit_event
func sealDepositEvent(topicsPtr unsafe.Pointer, topicsLen uint32, dataPtr unsafe.Pointer, dataLen uint32)

//go:wasmimport seal0 seal_call
func sealCall(
	calleePtr unsafe.Pointer, calleeLen uint32,
	gas uint64,
	valuePtr unsafe.Pointer, valueLen uint32,
	inputPtr unsafe.Pointer, inputLen uint32,
	outPtr, outLenPtr unsafe.Pointer,
) uint32

//go:wasmimport seal0 seal_transfer
func sealTransfer(toPtr unsafe.Pointer, toLen uint32, valuePtr unsafe.Pointer, valueLen uint32) uint32

//go:wasmimport seal0 seal_instantiate
func sealInstantiate(
	codeHashPtr unsafe.Pointer, codeHashLen uint32,
	gas uint64,
	valuePtr unsafe.Pointer, valueLen uint32,
	inputPtr unsafe.Pointer, inputLen uint32,
	addressPtr, addressLenPtr unsafe.Pointer,
	outPtr, outLenPtr unsafe.Pointer,
	saltPtr unsafe.Pointer, saltLen uint32,
) uint32

//go:wasmimport seal0 seal_rent_allowance
func sealRentAllowance(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_set_rent_allowance
func sealSetRentAllowance(valuePtr unsafe.Pointer, valueLen uint32)

//go:wasmimport seal0 seal_get_runtime_storage
func sealGetRuntimeStorage(keyPtr unsafe.Pointer, keyLen uint32, outPtr, outLenPtr unsafe.Pointer) uint32

//go:wasmimport seal0 seal_input
func sealInput(outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_return
func sealReturn(flags uint32, dataPtr unsafe.Pointer, dataLen uint32)

//go:wasmimport seal0 seal_random
func sealRandom(subjectPtr unsafe.Pointer, subjectLen uint32, outPtr, outLenPtr unsafe.Pointer)

//go:wasmimport seal0 seal_println
func sealPrintln(msgPtr unsafe.Pointer, msgLen uint32)

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// intoScratch runs [f] with the scratch buffer as output and copies out
// what the host wrote.
func intoScratch(f func(outPtr, outLenPtr unsafe.Pointer)) []byte {
	n := uint32(scratchLen)
	f(unsafe.Pointer(&scratch[0]), unsafe.Pointer(&n))
	out := make([]byte, n)
	copy(out, scratch[:n])
	return out
}

type seal struct{}

// Seal returns the Runtime bound to the host's seal0 imports.
func Seal() Runtime { return seal{} }

func (seal) GetStorage(key []byte) ([]byte, ReturnCode) {
	var code uint32
	out := intoScratch(func(outPtr, outLenPtr unsafe.Pointer) {
		code = sealGetStorage(ptr(key), outPtr, outLenPtr)
	})
	return out, ReturnCode(code)
}

func (seal) SetStorage(key, value []byte) {
	sealSetStorage(ptr(key), ptr(value), uint32(len(value)))
}

func (seal) ClearStorage(key []byte) { sealClearStorage(ptr(key)) }

func (seal) Caller() []byte           { return intoScratch(sealCaller) }
func (seal) Address() []byte          { return intoScratch(sealAddress) }
func (seal) Balance() []byte          { return intoScratch(sealBalance) }
func (seal) ValueTransferred() []byte { return intoScratch(sealValueTransferred) }
func (seal) BlockNumber() []byte      { return intoScratch(sealBlockNumber) }
func (seal) Now() []byte              { return intoScratch(sealNow) }
func (seal) MinimumBalance() []byte   { return intoScratch(sealMinimumBalance) }
func (seal) Input() []byte            { return intoScratch(sealInput) }

func (seal) DepositEvent(topics, data []byte) {
	sealDepositEvent(ptr(topics), uint32(len(topics)), ptr(data), uint32(len(data)))
}

func (seal) Call(callee, value, input []byte) ([]byte, ReturnCode) {
	var code uint32
	out := intoScratch(func(outPtr, outLenPtr unsafe.Pointer) {
		// zero gas forwards everything that is left
		code = sealCall(
			ptr(callee), uint32(len(callee)),
			0,
			ptr(value), uint32(len(value)),
			ptr(input), uint32(len(input)),
			outPtr, outLenPtr,
		)
	})
	return out, ReturnCode(code)
}

func (seal) Transfer(to, value []byte) ReturnCode {
	return ReturnCode(sealTransfer(ptr(to), uint32(len(to)), ptr(value), uint32(len(value))))
}

func (seal) Instantiate(codeHash, value, input, salt []byte) ([]byte, ReturnCode) {
	var address [32]byte
	addressLen := uint32(len(address))
	var code uint32
	// the constructor output lands in scratch and is dropped
	intoScratch(func(outPtr, outLenPtr unsafe.Pointer) {
		code = sealInstantiate(
			ptr(codeHash), uint32(len(codeHash)),
			0,
			ptr(value), uint32(len(value)),
			ptr(input), uint32(len(input)),
			unsafe.Pointer(&address[0]), unsafe.Pointer(&addressLen),
			outPtr, outLenPtr,
			ptr(salt), uint32(len(salt)),
		)
	})
	return address[:min(addressLen, uint32(len(address)))], ReturnCode(code)
}

func (seal) RentAllowance() []byte { return intoScratch(sealRentAllowance) }

func (seal) SetRentAllowance(value []byte) {
	sealSetRentAllowance(ptr(value), uint32(len(value)))
}

func (seal) GetRuntimeStorage(key []byte) ([]byte, ReturnCode) {
	var code uint32
	out := intoScratch(func(outPtr, outLenPtr unsafe.Pointer) {
		code = sealGetRuntimeStorage(ptr(key), uint32(len(key)), outPtr, outLenPtr)
	})
	return out, ReturnCode(code)
}

func (seal) Return(data []byte) { sealReturn(0, ptr(data), uint32(len(data))) }

func (seal) Random(subject []byte) []byte {
	return intoScratch(func(outPtr, outLenPtr unsafe.Pointer) {
		sealRandom(ptr(subject), uint32(len(subject)), outPtr, outLenPtr)
	})
}

func (seal) Println(msg string) {
	b := []byte(msg)
	sealPrintln(ptr(b), uint32(len(b)))
}
