// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/storage"
	"github.com/ava-labs/contractstore/storage/storagetest"
)

func buildStash(l *storage.Layout) (*Stash[string], error) { return NewStash[string](l) }

func TestStashIndicesAreStable(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	l, s := invocation(t, backend, buildStash)
	for i, name := range []string{"a", "b", "c", "d"} {
		idx, err := s.Put(name)
		require.NoError(err)
		require.Equal(uint64(i), idx)
	}
	require.NoError(l.Flush())

	l, s = invocation(t, backend, buildStash)
	taken, err := s.Take(1)
	require.NoError(err)
	require.Equal("b", taken)
	_, err = s.Get(1)
	require.ErrorIs(err, ErrNotFound)
	_, err = s.Take(1)
	require.ErrorIs(err, ErrNotFound)
	_, err = s.Get(4)
	require.ErrorIs(err, ErrOutOfBounds)

	got, err := s.Get(2)
	require.NoError(err)
	require.Equal("c", got)
	require.NoError(l.Flush())

	_, s = invocation(t, backend, buildStash)
	n, err := s.Len()
	require.NoError(err)
	require.Equal(uint64(3), n)
	entries, err := s.Entries()
	require.NoError(err)
	require.Equal(uint64(4), entries)
}

func TestStashReusesLowestVacantIndex(t *testing.T) {
	require := require.New(t)
	_, s := invocation(t, storagetest.NewBackend(), buildStash)

	for i := 0; i < 6; i++ {
		_, err := s.Put("x")
		require.NoError(err)
	}
	for _, i := range []uint64{4, 1, 3} {
		_, err := s.Take(i)
		require.NoError(err)
	}

	for _, want := range []uint64{1, 3, 4, 6} {
		idx, err := s.Put("y")
		require.NoError(err)
		require.Equal(want, idx)
	}
}

func TestStashSetContainsIterate(t *testing.T) {
	require := require.New(t)
	_, s := invocation(t, storagetest.NewBackend(), buildStash)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Put(name)
		require.NoError(err)
	}
	old, err := s.Set(2, "z")
	require.NoError(err)
	require.Equal("c", old)
	_, err = s.Take(0)
	require.NoError(err)
	_, err = s.Set(0, "q")
	require.ErrorIs(err, ErrNotFound)

	ok, err := s.Contains(0)
	require.NoError(err)
	require.False(ok)
	ok, err = s.Contains(1)
	require.NoError(err)
	require.True(ok)
	ok, err = s.Contains(99)
	require.NoError(err)
	require.False(ok)

	got := make(map[uint64]string)
	require.NoError(s.Iterate(func(i uint64, v string) bool {
		got[i] = v
		return true
	}))
	require.Equal(map[uint64]string{1: "b", 2: "z"}, got)
}
