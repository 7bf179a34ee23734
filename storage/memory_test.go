package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBasicOps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var missing string
	assert.ErrorIs(t, s.Get(ctx, "nope", &missing), ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "greeting", "hello"))
	var got string
	require.NoError(t, s.Get(ctx, "greeting", &got))
	assert.Equal(t, "hello", got)

	require.NoError(t, s.Delete(ctx, "greeting"))
	assert.ErrorIs(t, s.Get(ctx, "greeting", &got), ErrKeyNotFound)
}

func TestMemoryStoreListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "profile:a", 1))
	require.NoError(t, s.Set(ctx, "profile:b", 2))
	require.NoError(t, s.Set(ctx, "match:x", 3))

	got, err := s.ListByPrefix(ctx, "profile:")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "profile:a")
	assert.Contains(t, got, "profile:b")
}

func TestMemoryStoreUpdateCommitsAtomically(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "counter", 1))

	err := s.Update(ctx, []string{"counter", "other"}, func(tx Tx) error {
		var n int
		require.NoError(t, tx.Get("counter", &n))
		require.NoError(t, tx.Set("counter", n+1))
		return tx.Set("other", "written")
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, s.Get(ctx, "counter", &n))
	assert.Equal(t, 2, n)
	var other string
	require.NoError(t, s.Get(ctx, "other", &other))
	assert.Equal(t, "written", other)
}

func TestMemoryStoreUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "k", "before"))

	boom := assert.AnError
	err := s.Update(ctx, []string{"k"}, func(tx Tx) error {
		require.NoError(t, tx.Set("k", "after"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var v string
	require.NoError(t, s.Get(ctx, "k", &v))
	assert.Equal(t, "before", v)
}

func TestMemoryStoreTxReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Update(ctx, []string{"k"}, func(tx Tx) error {
		require.NoError(t, tx.Set("k", "draft"))

		var v string
		require.NoError(t, tx.Get("k", &v))
		assert.Equal(t, "draft", v)

		tx.Delete("k")
		assert.ErrorIs(t, tx.Get("k", &v), ErrKeyNotFound)
		return nil
	})
	require.NoError(t, err)

	var v string
	assert.ErrorIs(t, s.Get(ctx, "k", &v), ErrKeyNotFound)
}
