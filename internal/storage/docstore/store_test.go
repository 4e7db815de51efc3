// internal/storage/docstore/store_test.go
package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fractalizend/screener/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "pairs", "NOPE")
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})

	t.Run("put and get", func(t *testing.T) {
		s := newStore(t)
		v, err := s.Put(ctx, "pairs", "AUDJPY", []byte(`{"id":"AUDJPY"}`), AnyVersion)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		doc, err := s.Get(ctx, "pairs", "AUDJPY")
		require.NoError(t, err)
		assert.Equal(t, "AUDJPY", doc.ID)
		assert.Equal(t, int64(1), doc.Version)
		assert.JSONEq(t, `{"id":"AUDJPY"}`, string(doc.Data))
		assert.False(t, doc.UpdatedAt.IsZero())
	})

	t.Run("versions increment", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, "pairs", "X", []byte(`{}`), AnyVersion)
		v, err := s.Put(ctx, "pairs", "X", []byte(`{"a":1}`), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, "pairs", "X", []byte(`{"a":1}`), AnyVersion)
		s.Put(ctx, "pairs", "X", []byte(`{"a":2}`), AnyVersion)

		_, err := s.Put(ctx, "pairs", "X", []byte(`{"a":3}`), 1)
		assert.True(t, errors.Is(err, core.ErrVersionConflict))

		doc, _ := s.Get(ctx, "pairs", "X")
		assert.JSONEq(t, `{"a":2}`, string(doc.Data), "conflicting write must not land")
	})

	t.Run("create only", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "pairs", "X", []byte(`{}`), 0)
		require.NoError(t, err)
		_, err = s.Put(ctx, "pairs", "X", []byte(`{}`), 0)
		assert.True(t, errors.Is(err, core.ErrVersionConflict))
	})

	t.Run("list ordered and scoped", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, "pairs", "EURUSD", []byte(`{}`), AnyVersion)
		s.Put(ctx, "pairs", "AUDJPY", []byte(`{}`), AnyVersion)
		s.Put(ctx, "preferences", "user-1", []byte(`{}`), AnyVersion)

		docs, err := s.List(ctx, "pairs")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "AUDJPY", docs[0].ID)
		assert.Equal(t, "EURUSD", docs[1].ID)

		empty, err := s.List(ctx, "calendar")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, "pairs", "X", []byte(`{}`), AnyVersion)
		require.NoError(t, s.Delete(ctx, "pairs", "X"))

		err := s.Delete(ctx, "pairs", "X")
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})

	t.Run("delete all", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, "pairs", "A", []byte(`{}`), AnyVersion)
		s.Put(ctx, "pairs", "B", []byte(`{}`), AnyVersion)
		s.Put(ctx, "calendar", "c1", []byte(`{}`), AnyVersion)

		n, err := s.DeleteAll(ctx, "pairs")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		docs, _ := s.List(ctx, "pairs")
		assert.Empty(t, docs)
		other, _ := s.List(ctx, "calendar")
		assert.Len(t, other, 1, "other collections untouched")
	})

	t.Run("concurrent conditional writes", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, "pairs", "X", []byte(`{}`), AnyVersion)

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Put(ctx, "pairs", "X", []byte(`{}`), 1); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins, "exactly one writer holding version 1 may win")
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestBuntStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := OpenBunt(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestBuntStore_PersistsToFile(t *testing.T) {
	path := t.TempDir() + "/screener.db"
	ctx := context.Background()

	s, err := OpenBunt(path)
	require.NoError(t, err)
	_, err = s.Put(ctx, "pairs", "XAUUSD", []byte(`{"id":"XAUUSD"}`), AnyVersion)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenBunt(path)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.Get(ctx, "pairs", "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
}
