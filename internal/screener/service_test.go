package screener

import (
	"context"
	"errors"
	"testing"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/docstore"
	"github.com/fractalizend/screener/internal/storage/pair"
	"github.com/fractalizend/screener/internal/storage/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenPairs struct{}

func (brokenPairs) List(context.Context) ([]core.PairState, error) {
	return nil, errors.New("connection reset")
}

type brokenBookmarks struct{}

func (brokenBookmarks) Get(context.Context, string) (*preference.BookmarkSet, error) {
	return nil, errors.New("connection reset")
}

func seedPairs(t *testing.T, store docstore.Store, ids ...string) *pair.Repository {
	t.Helper()
	repo := pair.NewRepository(store)
	for _, id := range ids {
		require.NoError(t, repo.Save(context.Background(), core.NewPairState(id), docstore.AnyVersion))
	}
	return repo
}

func TestService_Grid(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	pairs := seedPairs(t, store, "ETHUSDT", "BTCUSDT", "AUDJPY")
	prefs := preference.NewRepository(store)
	_, err := prefs.Toggle(ctx, "u1", "ETHUSDT", 0)
	require.NoError(t, err)

	svc := NewService(pairs, prefs, nil)

	views, err := svc.Grid(ctx, Query{User: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT", "AUDJPY", "BTCUSDT"}, ids(views))

	anon, err := svc.Grid(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"AUDJPY", "BTCUSDT", "ETHUSDT"}, ids(anon))
}

func TestService_GridPairReadFailure(t *testing.T) {
	svc := NewService(brokenPairs{}, nil, nil)

	_, err := svc.Grid(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUpstreamRead))

	var cerr *core.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Error fetching pairs", cerr.Message)
}

func TestService_GridBookmarkFailureDegrades(t *testing.T) {
	pairs := seedPairs(t, docstore.NewMemoryStore(), "BTCUSDT")
	svc := NewService(pairs, brokenBookmarks{}, nil)

	views, err := svc.Grid(context.Background(), Query{User: "u1"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Bookmarked)
}
