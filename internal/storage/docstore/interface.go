// internal/storage/docstore/interface.go
package docstore

import (
	"context"
	"encoding/json"
	"time"
)

// AnyVersion disables the version check on Put (last writer wins).
const AnyVersion int64 = -1

// Document is a versioned JSON document inside a collection.
type Document struct {
	ID        string
	Version   int64
	Data      []byte
	UpdatedAt time.Time
}

// Store defines the document persistence contract.
//
// Versions start at 1 on first write. A missing document has version 0, so
// Put with expectedVersion 0 means "create only".
type Store interface {
	// Get retrieves one document. Returns core.ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Put writes a document and returns its new version. When expectedVersion
	// is not AnyVersion and differs from the stored version, it returns
	// core.ErrVersionConflict without writing.
	Put(ctx context.Context, collection, id string, data []byte, expectedVersion int64) (int64, error)

	// List returns every document in a collection ordered by ID.
	List(ctx context.Context, collection string) ([]Document, error)

	// Delete removes one document. Returns core.ErrNotFound if absent.
	Delete(ctx context.Context, collection, id string) error

	// DeleteAll removes every document in a collection and returns the count.
	DeleteAll(ctx context.Context, collection string) (int, error)

	// Close releases backend resources.
	Close() error
}

// record is the on-disk envelope used by the BuntDB and Redis backends.
type record struct {
	Version   int64           `json:"v"`
	UpdatedAt time.Time       `json:"u"`
	Data      json.RawMessage `json:"d"`
}

func encodeRecord(version int64, updatedAt time.Time, data []byte) (string, error) {
	b, err := json.Marshal(record{Version: version, UpdatedAt: updatedAt, Data: data})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRecord(id, raw string) (Document, error) {
	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Document{}, err
	}
	return Document{ID: id, Version: r.Version, Data: []byte(r.Data), UpdatedAt: r.UpdatedAt}, nil
}

func versionMatches(expected, current int64) bool {
	return expected == AnyVersion || expected == current
}
