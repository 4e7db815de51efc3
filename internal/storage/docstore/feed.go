// internal/storage/docstore/feed.go
package docstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Feed wraps a Store and pushes a full collection snapshot to every
// subscriber of that collection after each successful write.
//
// Each subscriber holds at most one pending snapshot: a slow reader skips
// intermediate snapshots and only sees the latest.
type Feed struct {
	Store

	logger *zap.Logger
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
}

type subscription struct {
	ch chan []Document
}

// NewFeed wraps store with change notification.
func NewFeed(store Store, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		Store:  store,
		logger: logger,
		subs:   make(map[string]map[*subscription]struct{}),
	}
}

// Subscribe registers for snapshots of a collection. The current snapshot is
// delivered immediately. Call the returned cancel func to unsubscribe; it
// closes the channel.
func (f *Feed) Subscribe(ctx context.Context, collection string) (<-chan []Document, func(), error) {
	snapshot, err := f.Store.List(ctx, collection)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscription{ch: make(chan []Document, 1)}
	sub.ch <- snapshot

	f.mu.Lock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[*subscription]struct{})
	}
	f.subs[collection][sub] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[collection], sub)
			close(sub.ch)
			f.mu.Unlock()
		})
	}
	return sub.ch, cancel, nil
}

// Subscribers returns the number of live subscriptions for a collection.
func (f *Feed) Subscribers(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[collection])
}

// Put writes through and publishes.
func (f *Feed) Put(ctx context.Context, collection, id string, data []byte, expectedVersion int64) (int64, error) {
	v, err := f.Store.Put(ctx, collection, id, data, expectedVersion)
	if err == nil {
		f.publish(ctx, collection)
	}
	return v, err
}

// Delete writes through and publishes.
func (f *Feed) Delete(ctx context.Context, collection, id string) error {
	err := f.Store.Delete(ctx, collection, id)
	if err == nil {
		f.publish(ctx, collection)
	}
	return err
}

// DeleteAll writes through and publishes.
func (f *Feed) DeleteAll(ctx context.Context, collection string) (int, error) {
	n, err := f.Store.DeleteAll(ctx, collection)
	if err == nil {
		f.publish(ctx, collection)
	}
	return n, err
}

func (f *Feed) publish(ctx context.Context, collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.subs[collection]) == 0 {
		return
	}

	snapshot, err := f.Store.List(context.WithoutCancel(ctx), collection)
	if err != nil {
		f.logger.Warn("failed to build snapshot",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return
	}

	for sub := range f.subs[collection] {
		select {
		case sub.ch <- snapshot:
		default:
			// Drop the stale pending snapshot and replace it.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snapshot:
			default:
			}
		}
	}
}
