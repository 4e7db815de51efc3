// internal/storage/docstore/feed_test.go
package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedTime = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func receive(t *testing.T, ch <-chan []Document) []Document {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestFeed_InitialSnapshot(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), zap.NewNop())
	feed.Put(ctx, "pairs", "A", []byte(`{}`), AnyVersion)

	ch, cancel, err := feed.Subscribe(ctx, "pairs")
	require.NoError(t, err)
	defer cancel()

	snap := receive(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, "A", snap[0].ID)
}

func TestFeed_PublishesOnWrite(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), nil)

	ch, cancel, err := feed.Subscribe(ctx, "pairs")
	require.NoError(t, err)
	defer cancel()
	assert.Empty(t, receive(t, ch))

	_, err = feed.Put(ctx, "pairs", "A", []byte(`{}`), AnyVersion)
	require.NoError(t, err)
	assert.Len(t, receive(t, ch), 1)

	_, err = feed.DeleteAll(ctx, "pairs")
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))
}

func TestFeed_IgnoresOtherCollections(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), nil)

	ch, cancel, _ := feed.Subscribe(ctx, "pairs")
	defer cancel()
	receive(t, ch)

	feed.Put(ctx, "calendar", "c1", []byte(`{}`), AnyVersion)

	select {
	case <-ch:
		t.Fatal("unexpected snapshot for unrelated collection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeed_SlowSubscriberGetsLatest(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), nil)

	ch, cancel, _ := feed.Subscribe(ctx, "pairs")
	defer cancel()

	// Initial snapshot is never read; three more writes pile up.
	feed.Put(ctx, "pairs", "A", []byte(`{}`), AnyVersion)
	feed.Put(ctx, "pairs", "B", []byte(`{}`), AnyVersion)
	feed.Put(ctx, "pairs", "C", []byte(`{}`), AnyVersion)

	assert.Len(t, receive(t, ch), 3)
}

func TestFeed_FailedWriteDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), nil)

	ch, cancel, _ := feed.Subscribe(ctx, "pairs")
	defer cancel()
	receive(t, ch)

	_, err := feed.Put(ctx, "pairs", "A", []byte(`{}`), 5)
	require.Error(t, err)

	select {
	case <-ch:
		t.Fatal("failed write must not publish")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeed_CancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(NewMemoryStore(), nil)

	ch, cancel, _ := feed.Subscribe(ctx, "pairs")
	receive(t, ch)
	assert.Equal(t, 1, feed.Subscribers("pairs"))

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, feed.Subscribers("pairs"))
}
