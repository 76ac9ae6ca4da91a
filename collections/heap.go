// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"cmp"

	"github.com/ava-labs/contractstore/storage"
)

// Heap is a binary min-heap stored in a [Vec]. Each operation touches
// O(log n) slots.
type Heap[T any] struct {
	elems *Vec[T]
	less  func(a, b T) bool
}

// NewHeap declares a Heap in [l] ordered by [less].
func NewHeap[T any](l *storage.Layout, less func(a, b T) bool) (*Heap[T], error) {
	elems, err := NewVec[T](l)
	if err != nil {
		return nil, err
	}
	return &Heap[T]{elems: elems, less: less}, nil
}

// NewOrderedHeap declares a Heap in [l] that pops its smallest element first.
func NewOrderedHeap[T cmp.Ordered](l *storage.Layout) (*Heap[T], error) {
	return NewHeap[T](l, cmp.Less[T])
}

func (h *Heap[T]) Len() (uint64, error) { return h.elems.Len() }

// Peek returns the smallest element.
func (h *Heap[T]) Peek() (T, error) { return h.elems.First() }

func (h *Heap[T]) Push(value T) error {
	if err := h.elems.Push(value); err != nil {
		return err
	}
	n, err := h.elems.Len()
	if err != nil {
		return err
	}
	return h.up(n - 1)
}

// Pop removes and returns the smallest element.
func (h *Heap[T]) Pop() (T, error) {
	root, err := h.elems.First()
	if err != nil {
		return root, err
	}
	last, err := h.elems.Pop()
	if err != nil {
		return root, err
	}
	n, err := h.elems.Len()
	if err != nil || n == 0 {
		return root, err
	}
	if _, err := h.elems.Set(0, last); err != nil {
		return root, err
	}
	return root, h.down(0, n)
}

func (h *Heap[T]) up(i uint64) error {
	value, err := h.elems.Get(i)
	if err != nil {
		return err
	}
	for i > 0 {
		parent := (i - 1) / 2
		pv, err := h.elems.Get(parent)
		if err != nil {
			return err
		}
		if !h.less(value, pv) {
			break
		}
		if _, err := h.elems.Set(i, pv); err != nil {
			return err
		}
		i = parent
	}
	_, err = h.elems.Set(i, value)
	return err
}

func (h *Heap[T]) down(i, n uint64) error {
	value, err := h.elems.Get(i)
	if err != nil {
		return err
	}
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		cv, err := h.elems.Get(child)
		if err != nil {
			return err
		}
		if right := child + 1; right < n {
			rv, err := h.elems.Get(right)
			if err != nil {
				return err
			}
			if h.less(rv, cv) {
				child, cv = right, rv
			}
		}
		if !h.less(cv, value) {
			break
		}
		if _, err := h.elems.Set(i, cv); err != nil {
			return err
		}
		i = child
	}
	_, err = h.elems.Set(i, value)
	return err
}
