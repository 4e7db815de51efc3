// internal/storage/docstore/buntdb.go
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fractalizend/screener/internal/core"
	"github.com/tidwall/buntdb"
)

// BuntStore implements Store on top of an embedded BuntDB database.
// Each document is one key "<collection>:<id>" holding a JSON envelope.
type BuntStore struct {
	db  *buntdb.DB
	now func() time.Time
}

// OpenBunt opens (or creates) a BuntDB file. Use ":memory:" for a
// non-persistent database.
func OpenBunt(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}
	return &BuntStore{db: db, now: time.Now}, nil
}

func buntKey(collection, id string) string {
	return collection + ":" + id
}

// Get retrieves a document by ID.
func (b *BuntStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc Document
	err := b.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(buntKey(collection, id))
		if err != nil {
			return err
		}
		doc, err = decodeRecord(id, raw)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("%s/%s", collection, id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	return &doc, nil
}

// Put writes a document inside a single BuntDB transaction so the version
// check and the write are atomic.
func (b *BuntStore) Put(ctx context.Context, collection, id string, data []byte, expectedVersion int64) (int64, error) {
	var next int64
	err := b.db.Update(func(tx *buntdb.Tx) error {
		key := buntKey(collection, id)

		var current int64
		raw, err := tx.Get(key)
		switch {
		case err == nil:
			doc, err := decodeRecord(id, raw)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", key, err)
			}
			current = doc.Version
		case errors.Is(err, buntdb.ErrNotFound):
		default:
			return err
		}

		if !versionMatches(expectedVersion, current) {
			next = current
			return core.WrapError(core.ErrVersionConflict,
				fmt.Errorf("%s: expected version %d, have %d", key, expectedVersion, current))
		}

		next = current + 1
		content, err := encodeRecord(next, b.now(), data)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		if _, _, err := tx.Set(key, content, nil); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
		return nil
	})
	return next, err
}

// List returns all documents of a collection ordered by ID.
func (b *BuntStore) List(ctx context.Context, collection string) ([]Document, error) {
	docs := make([]Document, 0)
	prefix := collection + ":"

	err := b.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(prefix+"*", func(key, value string) bool {
			doc, err := decodeRecord(strings.TrimPrefix(key, prefix), value)
			if err != nil {
				decodeErr = fmt.Errorf("failed to decode %s: %w", key, err)
				return false
			}
			docs = append(docs, doc)
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over %s: %w", collection, err)
	}
	return docs, nil
}

// Delete removes a document.
func (b *BuntStore) Delete(ctx context.Context, collection, id string) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(buntKey(collection, id))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return core.WrapError(core.ErrNotFound, fmt.Errorf("%s/%s", collection, id))
	}
	return err
}

// DeleteAll removes every key of a collection in one transaction.
func (b *BuntStore) DeleteAll(ctx context.Context, collection string) (int, error) {
	var deleted int
	err := b.db.Update(func(tx *buntdb.Tx) error {
		var keys []string
		if err := tx.AscendKeys(collection+":*", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		}); err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := tx.Delete(k); err != nil {
				return fmt.Errorf("failed to delete %s: %w", k, err)
			}
		}
		deleted = len(keys)
		return nil
	})
	return deleted, err
}

// Close closes the database
func (b *BuntStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
