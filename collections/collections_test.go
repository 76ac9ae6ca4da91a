// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collections

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractstore/storage"
	"github.com/ava-labs/contractstore/storage/storagetest"
)

var testOrigin = storage.KeyFromLabel([]byte("collections-test"))

// invocation builds the same layout against a backend on every call, like
// consecutive invocations of one contract.
func invocation[S any](t *testing.T, backend *storagetest.Backend, build func(*storage.Layout) (S, error)) (*storage.Layout, S) {
	t.Helper()
	l, err := storage.NewLayout(backend, testOrigin)
	require.NoError(t, err)
	s, err := build(l)
	require.NoError(t, err)
	return l, s
}

func TestValue(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()
	build := func(l *storage.Layout) (*Value[string], error) { return NewValue[string](l) }

	l, v := invocation(t, backend, build)
	_, err := v.Get()
	require.ErrorIs(err, ErrNotFound)
	got, err := v.GetOr("default")
	require.NoError(err)
	require.Equal("default", got)

	require.NoError(v.Set("hello"))
	require.NoError(l.Flush())

	l, v = invocation(t, backend, build)
	got, err = v.Get()
	require.NoError(err)
	require.Equal("hello", got)

	v.Clear()
	require.NoError(l.Flush())
	require.False(backend.Has(v.Key()))
}

func TestValueDiscardedChangesAreLost(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()
	build := func(l *storage.Layout) (*Value[uint64], error) { return NewValue[uint64](l) }

	l, v := invocation(t, backend, build)
	require.NoError(v.Set(5))
	require.NoError(l.Flush())

	require.NoError(v.Set(6))
	l.Discard()
	require.NoError(l.Flush())

	_, v = invocation(t, backend, build)
	got, err := v.Get()
	require.NoError(err)
	require.Equal(uint64(5), got)
}

func TestLayoutKeysAreStable(t *testing.T) {
	require := require.New(t)
	backend := storagetest.NewBackend()

	type layout struct {
		a *Value[uint64]
		b *Vec[uint64]
		c *Value[uint64]
	}
	build := func(l *storage.Layout) (layout, error) {
		var (
			s   layout
			err error
		)
		if s.a, err = NewValue[uint64](l); err != nil {
			return s, err
		}
		if s.b, err = NewVec[uint64](l); err != nil {
			return s, err
		}
		s.c, err = NewValue[uint64](l)
		return s, err
	}

	_, first := invocation(t, backend, build)
	_, second := invocation(t, backend, build)
	require.Equal(first.a.Key(), second.a.Key())
	require.Equal(first.c.Key(), second.c.Key())
	require.Equal(testOrigin.Add(1), first.a.Key())
	// header plus the reserved element span
	require.Equal(testOrigin.Add(3+MaxLen), first.c.Key())
}
