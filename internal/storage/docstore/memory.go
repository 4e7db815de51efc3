// internal/storage/docstore/memory.go
package docstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fractalizend/screener/internal/core"
)

// MemoryStore is an in-memory document store.
type MemoryStore struct {
	collections map[string]map[string]Document
	mu          sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		now:         time.Now,
	}
}

// Get retrieves a document by ID.
func (m *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("%s/%s", collection, id))
	}
	doc.Data = slices.Clone(doc.Data)
	return &doc, nil
}

// Put writes a document with an optional version check.
func (m *MemoryStore) Put(ctx context.Context, collection, id string, data []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]Document)
		m.collections[collection] = docs
	}

	current := docs[id].Version
	if !versionMatches(expectedVersion, current) {
		return current, core.WrapError(core.ErrVersionConflict,
			fmt.Errorf("%s/%s: expected version %d, have %d", collection, id, expectedVersion, current))
	}

	next := current + 1
	docs[id] = Document{
		ID:        id,
		Version:   next,
		Data:      slices.Clone(data),
		UpdatedAt: m.now(),
	}
	return next, nil
}

// List returns all documents of a collection ordered by ID.
func (m *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.collections[collection]
	result := make([]Document, 0, len(docs))
	for _, doc := range docs {
		doc.Data = slices.Clone(doc.Data)
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Delete removes a document.
func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return core.WrapError(core.ErrNotFound, fmt.Errorf("%s/%s", collection, id))
	}
	delete(m.collections[collection], id)
	return nil
}

// DeleteAll clears a collection.
func (m *MemoryStore) DeleteAll(ctx context.Context, collection string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.collections[collection])
	delete(m.collections, collection)
	return n, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }
