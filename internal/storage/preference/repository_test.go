// internal/storage/preference/repository_test.go
package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetEmpty(t *testing.T) {
	repo := NewRepository(docstore.NewMemoryStore())

	set, err := repo.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", set.UserID)
	assert.Empty(t, set.Bookmarks)
	assert.Equal(t, int64(0), set.Version)
}

func TestRepository_GetRequiresUser(t *testing.T) {
	repo := NewRepository(docstore.NewMemoryStore())
	_, err := repo.Get(context.Background(), " ")
	assert.True(t, errors.Is(err, core.ErrMissingField))
}

func TestRepository_Toggle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(docstore.NewMemoryStore())

	set, err := repo.Toggle(ctx, "alice", "XAUUSD", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"XAUUSD"}, set.Bookmarks)
	assert.Equal(t, int64(1), set.Version)

	set, err = repo.Toggle(ctx, "alice", "AUDJPY", set.Version)
	require.NoError(t, err)
	assert.Equal(t, []string{"AUDJPY", "XAUUSD"}, set.Bookmarks)

	set, err = repo.Toggle(ctx, "alice", "XAUUSD", set.Version)
	require.NoError(t, err)
	assert.Equal(t, []string{"AUDJPY"}, set.Bookmarks)
	assert.Equal(t, int64(3), set.Version)

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.Has("AUDJPY"))
	assert.False(t, got.Has("XAUUSD"))
}

func TestRepository_ToggleStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(docstore.NewMemoryStore())

	_, err := repo.Toggle(ctx, "alice", "XAUUSD", 0)
	require.NoError(t, err)

	// A second tab still holding version 0 must not overwrite.
	current, err := repo.Toggle(ctx, "alice", "AUDJPY", 0)
	assert.True(t, errors.Is(err, core.ErrVersionConflict))
	require.NotNil(t, current)
	assert.Equal(t, int64(1), current.Version)
	assert.Equal(t, []string{"XAUUSD"}, current.Bookmarks)
}

func TestRepository_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(docstore.NewMemoryStore())

	repo.Toggle(ctx, "alice", "XAUUSD", 0)
	repo.Toggle(ctx, "bob", "AUDJPY", 0)

	alice, _ := repo.Get(ctx, "alice")
	bob, _ := repo.Get(ctx, "bob")
	assert.Equal(t, []string{"XAUUSD"}, alice.Bookmarks)
	assert.Equal(t, []string{"AUDJPY"}, bob.Bookmarks)
}

func TestBookmarkSet_Lookup(t *testing.T) {
	set := &BookmarkSet{Bookmarks: []string{"A", "B"}}
	m := set.Lookup()
	assert.True(t, m["A"])
	assert.False(t, m["C"])
}

func TestRepository_ToggleRequiresPair(t *testing.T) {
	repo := NewRepository(docstore.NewMemoryStore())
	_, err := repo.Toggle(context.Background(), "alice", "", 0)
	assert.True(t, errors.Is(err, core.ErrMissingField))
}
