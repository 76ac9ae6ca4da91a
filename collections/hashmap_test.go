// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/storage"
	"github.com/ava-labs/contractstore/storage/storagetest"
)

func buildMap(l *storage.Layout) (*HashMap[string, uint64], error) {
	return NewHashMap[string, uint64](l)
}

func collect(t *testing.T, m *HashMap[string, uint64]) map[string]uint64 {
	t.Helper()
	got := make(map[string]uint64)
	require.NoError(t, m.Iterate(func(k string, v uint64) bool {
		got[k] = v
		return true
	}))
	return got
}

func TestHashMapInsertGetRemove(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	l, m := invocation(t, backend, buildMap)
	_, err := m.Get("alice")
	require.ErrorIs(err, ErrNotFound)

	_, existed, err := m.Insert("alice", 100)
	require.NoError(err)
	require.False(existed)
	old, existed, err := m.Insert("alice", 70)
	require.NoError(err)
	require.True(existed)
	require.Equal(uint64(100), old)
	_, _, err = m.Insert("bob", 30)
	require.NoError(err)
	require.NoError(l.Flush())

	l, m = invocation(t, backend, buildMap)
	n, err := m.Len()
	require.NoError(err)
	require.Equal(uint64(2), n)
	got, err := m.Get("alice")
	require.NoError(err)
	require.Equal(uint64(70), got)

	removed, err := m.Remove("alice")
	require.NoError(err)
	require.Equal(uint64(70), removed)
	_, err = m.Remove("alice")
	require.ErrorIs(err, ErrNotFound)
	ok, err := m.Contains("alice")
	require.NoError(err)
	require.False(ok)
	ok, err = m.Contains("bob")
	require.NoError(err)
	require.True(ok)
	require.NoError(l.Flush())
}

func TestHashMapGrowsAndRehashes(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	l, m := invocation(t, backend, buildMap)
	declared := m.declared
	want := make(map[string]uint64)
	for i := uint64(0); i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		want[key] = i
		_, _, err := m.Insert(key, i)
		require.NoError(err)
	}
	capacity, err := m.Capacity()
	require.NoError(err)
	require.Equal(uint64(256), capacity)
	require.NoError(l.Flush())

	// the declared table has been vacated
	for slot := uint64(0); slot < InitialMapCapacity; slot++ {
		require.False(backend.Has(declared.Add(slot)))
	}

	_, m = invocation(t, backend, buildMap)
	if diff := cmp.Diff(want, collect(t, m)); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
	for key, value := range want {
		got, err := m.Get(key)
		require.NoError(err)
		require.Equal(value, got)
	}
}

func TestHashMapRemoveKeepsProbeChains(t *testing.T) {
	require := require.New(t)
	_, m := invocation(t, storagetest.NewBackend(), buildMap)

	want := make(map[string]uint64)
	for i := uint64(0); i < 40; i++ {
		key := fmt.Sprintf("k%d", i)
		want[key] = i
		_, _, err := m.Insert(key, i)
		require.NoError(err)
	}
	for i := uint64(0); i < 40; i += 3 {
		key := fmt.Sprintf("k%d", i)
		delete(want, key)
		_, err := m.Remove(key)
		require.NoError(err)
	}

	n, err := m.Len()
	require.NoError(err)
	require.Equal(uint64(len(want)), n)
	for key, value := range want {
		got, err := m.Get(key)
		require.NoError(err, key)
		require.Equal(value, got)
	}
	require.Equal(want, collect(t, m))
}

func TestHashMapResizeAllocatesFreshRange(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	type maps struct {
		a, b *HashMap[string, uint64]
	}
	build := func(l *storage.Layout) (maps, error) {
		a, err := buildMap(l)
		if err != nil {
			return maps{}, err
		}
		b, err := buildMap(l)
		return maps{a, b}, err
	}

	for round := 0; round < 2; round++ {
		l, s := invocation(t, backend, build)
		for i := 0; i < 20; i++ {
			_, _, err := s.a.Insert(fmt.Sprintf("a-%d-%d", round, i), 1)
			require.NoError(err)
			_, _, err = s.b.Insert(fmt.Sprintf("b-%d-%d", round, i), 2)
			require.NoError(err)
		}
		require.NoError(l.Flush())
	}

	_, s := invocation(t, backend, build)
	a, b := collect(t, s.a), collect(t, s.b)
	require.Len(a, 40)
	require.Len(b, 40)
	for _, v := range a {
		require.Equal(uint64(1), v)
	}
	for _, v := range b {
		require.Equal(uint64(2), v)
	}
}

func TestHashMapStructKeys(t *testing.T) {
	require := require.New(t)

	type pair struct {
		A uint64 `serialize:"true"`
		B string `serialize:"true"`
	}
	_, m := invocation(t, storagetest.NewBackend(), func(l *storage.Layout) (*HashMap[pair, []byte], error) {
		return NewHashMap[pair, []byte](l)
	})

	_, _, err := m.Insert(pair{1, "x"}, []byte("one"))
	require.NoError(err)
	_, _, err = m.Insert(pair{1, "y"}, []byte("two"))
	require.NoError(err)

	got, err := m.Get(pair{1, "y"})
	require.NoError(err)
	require.Equal([]byte("two"), got)
	_, err = m.Get(pair{2, "x"})
	require.ErrorIs(err, ErrNotFound)
}
