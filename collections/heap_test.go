// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/storage"
	"github.com/ava-labs/contractstore/storage/storagetest"
)

func buildHeap(l *storage.Layout) (*Heap[uint64], error) { return NewOrderedHeap[uint64](l) }

func TestHeapPopsInOrder(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	_, err := func() (uint64, error) {
		_, h := invocation(t, backend, buildHeap)
		return h.Pop()
	}()
	require.ErrorIs(err, ErrEmpty)

	rng := rand.New(rand.NewSource(1)) // #nosec G404
	values := make([]uint64, 64)
	for i := range values {
		values[i] = uint64(rng.Intn(1000))
	}

	// spread the pushes over several invocations
	for start := 0; start < len(values); start += 16 {
		l, h := invocation(t, backend, buildHeap)
		for _, v := range values[start : start+16] {
			require.NoError(h.Push(v))
		}
		require.NoError(l.Flush())
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	_, h := invocation(t, backend, buildHeap)
	peek, err := h.Peek()
	require.NoError(err)
	require.Equal(values[0], peek)

	got := make([]uint64, 0, len(values))
	for {
		v, err := h.Pop()
		if err != nil {
			require.ErrorIs(err, ErrEmpty)
			break
		}
		got = append(got, v)
	}
	require.Equal(values, got)
}

func TestHeapCustomOrder(t *testing.T) {
	require := require.New(t)

	type job struct {
		Due  uint64 `serialize:"true"`
		Name string `serialize:"true"`
	}
	_, h := invocation(t, storagetest.NewBackend(), func(l *storage.Layout) (*Heap[job], error) {
		return NewHeap[job](l, func(a, b job) bool { return a.Due > b.Due })
	})

	for _, j := range []job{{3, "c"}, {9, "i"}, {1, "a"}} {
		require.NoError(h.Push(j))
	}
	n, err := h.Len()
	require.NoError(err)
	require.Equal(uint64(3), n)

	first, err := h.Pop()
	require.NoError(err)
	require.Equal("i", first.Name)
	second, err := h.Pop()
	require.NoError(err)
	require.Equal("c", second.Name)
}
