// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/storage"
	"github.com/ava-labs/contractstore/storage/storagetest"
)

func buildBits(l *storage.Layout) (*BitVec, error) { return NewBitVec(l) }

func TestBitVecPacksBlocks(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	l, b := invocation(t, backend, buildBits)
	for i := 0; i < 300; i++ {
		require.NoError(b.Push(i%3 == 0))
	}
	require.NoError(l.Flush())
	// header and two blocks, the allocator never moved
	require.Equal(3, backend.Len())

	backend.ResetCounts()
	_, b = invocation(t, backend, buildBits)
	n, err := b.Len()
	require.NoError(err)
	require.Equal(uint64(300), n)
	for _, i := range []uint64{0, 1, 255, 258, 299} {
		got, err := b.Get(i)
		require.NoError(err)
		require.Equal(i%3 == 0, got, "bit %d", i)
	}
	// header and both blocks
	require.Equal(3, backend.Reads)

	ones, err := b.CountOnes()
	require.NoError(err)
	require.Equal(uint64(100), ones)

	_, err = b.Get(300)
	require.ErrorIs(err, ErrOutOfBounds)
}

func TestBitVecSetFlipPop(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	l, b := invocation(t, backend, buildBits)
	_, err := b.Pop()
	require.ErrorIs(err, ErrEmpty)
	for i := 0; i < BitsPerBlock+1; i++ {
		require.NoError(b.Push(false))
	}
	require.NoError(b.Set(3, true))
	flipped, err := b.Flip(BitsPerBlock)
	require.NoError(err)
	require.True(flipped)
	require.NoError(l.Flush())
	require.True(backend.Has(b.blocks.KeyAt(1)))

	last, err := b.Pop()
	require.NoError(err)
	require.True(last)
	require.NoError(l.Flush())
	// the second block held only the popped bit
	require.False(backend.Has(b.blocks.KeyAt(1)))

	got, err := b.Get(3)
	require.NoError(err)
	require.True(got)
	ones, err := b.CountOnes()
	require.NoError(err)
	require.Equal(uint64(1), ones)
}

func TestBitVecPopClearsBit(t *testing.T) {
	require := require.New(t)
	_, b := invocation(t, storagetest.NewBackend(), buildBits)

	require.NoError(b.Push(false))
	require.NoError(b.Push(true))
	_, err := b.Pop()
	require.NoError(err)
	require.NoError(b.Push(false))
	got, err := b.Get(1)
	require.NoError(err)
	require.False(got)
}
