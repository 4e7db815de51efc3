// internal/storage/docstore/redis.go
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fractalizend/screener/internal/core"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore implements Store on Redis. Documents are string keys
// "<prefix>:<collection>:<id>"; a set "<prefix>:<collection>" indexes IDs.
// Conditional writes use WATCH/MULTI.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisStore(client, cfg.Prefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "screener"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) docKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, collection, id)
}

func (r *RedisStore) indexKey(collection string) string {
	return fmt.Sprintf("%s:%s", r.prefix, collection)
}

// Get retrieves a document by ID.
func (r *RedisStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	raw, err := r.client.Get(ctx, r.docKey(collection, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("%s/%s", collection, id))
	}
	if err != nil {
		return nil, err
	}
	doc, err := decodeRecord(id, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &doc, nil
}

// Put writes a document. The version read and the write happen under WATCH,
// so a concurrent writer aborts the transaction. Only a conditional Put
// reports that as VERSION_CONFLICT; an AnyVersion Put retries.
func (r *RedisStore) Put(ctx context.Context, collection, id string, data []byte, expectedVersion int64) (int64, error) {
	key := r.docKey(collection, id)
	var next int64

	txf := func(tx *redis.Tx) error {
		var current int64
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case err == nil:
			doc, err := decodeRecord(id, raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			current = doc.Version
		case errors.Is(err, redis.Nil):
		default:
			return err
		}

		if !versionMatches(expectedVersion, current) {
			next = current
			return core.WrapError(core.ErrVersionConflict,
				fmt.Errorf("%s: expected version %d, have %d", key, expectedVersion, current))
		}

		next = current + 1
		content, err := encodeRecord(next, r.now(), data)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, content, 0)
			pipe.SAdd(ctx, r.indexKey(collection), id)
			return nil
		})
		return err
	}

	for {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return next, err
		}
		// An unconditional write retries until its transaction commits;
		// a conditional one lost to a concurrent writer.
		if expectedVersion != AnyVersion {
			return next, core.WrapError(core.ErrVersionConflict, err)
		}
		if err := ctx.Err(); err != nil {
			return next, err
		}
	}
}

// List returns all documents of a collection ordered by ID.
func (r *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(collection, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		doc, err := decodeRecord(ids[i], raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document.
func (r *RedisStore) Delete(ctx context.Context, collection, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.docKey(collection, id))
		pipe.SRem(ctx, r.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return core.WrapError(core.ErrNotFound, fmt.Errorf("%s/%s", collection, id))
	}
	return nil
}

// DeleteAll removes every document of a collection.
func (r *RedisStore) DeleteAll(ctx context.Context, collection string) (int, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(collection)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(collection, id)
	}

	var del *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		pipe.Del(ctx, r.indexKey(collection))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(del.Val()), nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
