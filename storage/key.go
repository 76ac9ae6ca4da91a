// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"
)

// KeyLen is the width of a storage address in bytes.
const KeyLen = 32

var (
	ErrAddressSpaceExhausted = errors.New("storage key space exhausted")
	errInvalidKeyLen         = errors.New("invalid key length")
)

// Key is a fixed-width address into the flat contract store.
// Keys are big-endian 256 bit integers so that [Key.Add] can compute
// element addresses inside a contiguous range.
type Key [KeyLen]byte

// KeyFromUint64 returns the key whose numeric value is [v].
func KeyFromUint64(v uint64) Key {
	var k Key
	binary.BigEndian.PutUint64(k[KeyLen-8:], v)
	return k
}

// KeyFromBytes copies a 32 byte slice into a Key.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeyLen {
		return k, fmt.Errorf("%w: expected %d bytes but got %d", errInvalidKeyLen, KeyLen, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// KeyFromLabel derives a key from an arbitrary label. Contracts use it to
// pick the origin of their storage layout.
func KeyFromLabel(label []byte) Key {
	return Key(hashing.ComputeHash256Array(label))
}

// Add returns k + offset. Running off the end of the key space is not a
// recoverable condition and panics with [ErrAddressSpaceExhausted].
func (k Key) Add(offset uint64) Key {
	sum, ok := k.add(offset)
	if !ok {
		panic(fmt.Errorf("%w: %s + %d", ErrAddressSpaceExhausted, k, offset))
	}
	return sum
}

func (k Key) add(offset uint64) (Key, bool) {
	low := binary.BigEndian.Uint64(k[KeyLen-8:])
	sum := low + offset
	binary.BigEndian.PutUint64(k[KeyLen-8:], sum)
	if sum >= low {
		return k, true
	}
	// propagate the carry through the upper 24 bytes
	for i := KeyLen - 9; i >= 0; i-- {
		k[i]++
		if k[i] != 0 {
			return k, true
		}
	}
	return k, false
}

// Distance returns other - k if it fits in a uint64.
func (k Key) Distance(other Key) (uint64, bool) {
	if other.Compare(k) < 0 {
		return 0, false
	}
	var (
		diff   Key
		borrow int
	)
	for i := KeyLen - 1; i >= 0; i-- {
		d := int(other[i]) - int(k[i]) - borrow
		borrow = 0
		if d < 0 {
			d += 256
			borrow = 1
		}
		diff[i] = byte(d)
	}
	for _, b := range diff[:KeyLen-8] {
		if b != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(diff[KeyLen-8:]), true
}

// Compare returns -1, 0 or 1 as k is less than, equal to or greater than
// other.
func (k Key) Compare(other Key) int {
	return bytes.Compare(k[:], other[:])
}

func (k Key) Bytes() []byte { return k[:] }

func (k Key) String() string { return hex.EncodeToString(k[:]) }
