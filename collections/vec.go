// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"fmt"

	"github.com/ava-labs/contractstore/storage"
)

// MaxLen is the number of element slots reserved for a growable
// collection. Elements never move, so a collection cannot outgrow it.
const MaxLen uint64 = 1 << 32

var _ storage.Flusher = (*Vec[uint64])(nil)

type vecHeader struct {
	Len uint64 `serialize:"true"`
}

// Vec is a growable sequence. Element i lives at a fixed key for as long
// as it exists.
type Vec[T any] struct {
	header *Value[vecHeader]
	elems  *storage.Chunk

	length uint64
	loaded bool
}

// NewVec declares a Vec in [l].
func NewVec[T any](l *storage.Layout) (*Vec[T], error) {
	headerKey, err := l.Declare(1)
	if err != nil {
		return nil, err
	}
	base, err := l.Declare(MaxLen)
	if err != nil {
		return nil, err
	}
	v := &Vec[T]{
		header: newValueAt[vecHeader](l.Backend(), headerKey),
		elems:  storage.NewChunk(l.Backend(), base, MaxLen),
	}
	l.Register(v)
	return v, nil
}

func (v *Vec[T]) load() error {
	if v.loaded {
		return nil
	}
	hdr, err := v.header.GetOr(vecHeader{})
	if err != nil {
		return err
	}
	v.length, v.loaded = hdr.Len, true
	return nil
}

func (v *Vec[T]) setLen(n uint64) error {
	v.length = n
	return v.header.Set(vecHeader{Len: n})
}

func (v *Vec[T]) Len() (uint64, error) {
	if err := v.load(); err != nil {
		return 0, err
	}
	return v.length, nil
}

func (v *Vec[T]) IsEmpty() (bool, error) {
	n, err := v.Len()
	return n == 0, err
}

func (v *Vec[T]) checkIndex(i uint64) error {
	if err := v.load(); err != nil {
		return err
	}
	if i >= v.length {
		return fmt.Errorf("%w: index %d with length %d", ErrOutOfBounds, i, v.length)
	}
	return nil
}

func (v *Vec[T]) Get(i uint64) (T, error) {
	if err := v.checkIndex(i); err != nil {
		var zero T
		return zero, err
	}
	return mustLoadElem[T](v.elems, i)
}

// Set replaces element [i] and returns the previous element.
func (v *Vec[T]) Set(i uint64, value T) (T, error) {
	old, err := v.Get(i)
	if err != nil {
		return old, err
	}
	return old, storeElem(v.elems, i, value)
}

func (v *Vec[T]) Push(value T) error {
	if err := v.load(); err != nil {
		return err
	}
	if v.length == MaxLen {
		return fmt.Errorf("%w: vec holds %d elements", ErrCapacityExceeded, MaxLen)
	}
	if err := storeElem(v.elems, v.length, value); err != nil {
		return err
	}
	return v.setLen(v.length + 1)
}

// Pop removes and returns the last element.
func (v *Vec[T]) Pop() (T, error) {
	var zero T
	if err := v.load(); err != nil {
		return zero, err
	}
	if v.length == 0 {
		return zero, ErrEmpty
	}
	last := v.length - 1
	value, err := mustLoadElem[T](v.elems, last)
	if err != nil {
		return zero, err
	}
	if err := v.elems.Clear(last); err != nil {
		return zero, err
	}
	return value, v.setLen(last)
}

func (v *Vec[T]) First() (T, error) {
	if err := v.load(); err != nil {
		var zero T
		return zero, err
	}
	if v.length == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return v.Get(0)
}

func (v *Vec[T]) Last() (T, error) {
	if err := v.load(); err != nil {
		var zero T
		return zero, err
	}
	if v.length == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return v.Get(v.length - 1)
}

// Swap exchanges elements [i] and [j].
func (v *Vec[T]) Swap(i, j uint64) error {
	a, err := v.Get(i)
	if err != nil {
		return err
	}
	b, err := v.Get(j)
	if err != nil {
		return err
	}
	if err := storeElem(v.elems, i, b); err != nil {
		return err
	}
	return storeElem(v.elems, j, a)
}

// SwapRemove removes element [i] by moving the last element into its slot.
func (v *Vec[T]) SwapRemove(i uint64) (T, error) {
	removed, err := v.Get(i)
	if err != nil {
		return removed, err
	}
	last, err := v.Pop()
	if err != nil {
		return removed, err
	}
	if i == v.length {
		return removed, nil
	}
	return removed, storeElem(v.elems, i, last)
}

// Clear removes every element. Each element slot is cleared, so the cost is
// linear in the length.
func (v *Vec[T]) Clear() error {
	if err := v.load(); err != nil {
		return err
	}
	for i := uint64(0); i < v.length; i++ {
		if err := v.elems.Clear(i); err != nil {
			return err
		}
	}
	return v.setLen(0)
}

// Iterate calls [fn] on every element in index order until it returns
// false.
func (v *Vec[T]) Iterate(fn func(i uint64, value T) bool) error {
	if err := v.load(); err != nil {
		return err
	}
	for i := uint64(0); i < v.length; i++ {
		value, err := mustLoadElem[T](v.elems, i)
		if err != nil {
			return err
		}
		if !fn(i, value) {
			return nil
		}
	}
	return nil
}

func (v *Vec[T]) Flush() error {
	if err := v.elems.Flush(); err != nil {
		return err
	}
	return v.header.Flush()
}

func (v *Vec[T]) Discard() {
	v.elems.Discard()
	v.header.Discard()
	v.loaded = false
	v.length = 0
}
