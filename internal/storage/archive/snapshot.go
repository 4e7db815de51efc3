// internal/storage/archive/snapshot.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/docstore"
)

const snapshotRoot = "snapshots"

// Snapshot is the archived content of one collection at a point in time.
type Snapshot struct {
	Collection string          `json:"collection"`
	TakenAt    time.Time       `json:"takenAt"`
	Documents  []SnapshotEntry `json:"documents"`
}

// SnapshotEntry is one archived document.
type SnapshotEntry struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Archiver writes and restores collection snapshots.
type Archiver struct {
	storage Storage
	now     func() time.Time
}

// NewArchiver creates an archiver over storage.
func NewArchiver(storage Storage) *Archiver {
	return &Archiver{storage: storage, now: time.Now}
}

// SnapshotKey returns the storage key of a snapshot. Keys sort chronologically.
func SnapshotKey(collection string, at time.Time) string {
	at = at.UTC()
	return path.Join(snapshotRoot, collection, at.Format("2006/01/02"), at.Format("150405.000000000")+".json")
}

// Save archives docs and returns the key written. Empty collections are not archived.
func (a *Archiver) Save(ctx context.Context, collection string, docs []docstore.Document) (string, error) {
	if len(docs) == 0 {
		return "", nil
	}

	snap := Snapshot{
		Collection: collection,
		TakenAt:    a.now().UTC(),
		Documents:  make([]SnapshotEntry, len(docs)),
	}
	for i, d := range docs {
		snap.Documents[i] = SnapshotEntry{ID: d.ID, Data: json.RawMessage(d.Data)}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := SnapshotKey(collection, snap.TakenAt)
	if err := a.storage.Write(ctx, key, data); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return key, nil
}

// Keys lists the snapshots of a collection, oldest first.
func (a *Archiver) Keys(ctx context.Context, collection string) ([]string, error) {
	return a.storage.List(ctx, path.Join(snapshotRoot, collection))
}

// Load reads one snapshot.
func (a *Archiver) Load(ctx context.Context, key string) (*Snapshot, error) {
	data, err := a.storage.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// Latest loads the newest snapshot of a collection.
func (a *Archiver) Latest(ctx context.Context, collection string) (*Snapshot, error) {
	keys, err := a.Keys(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("no snapshot for %s", collection))
	}
	return a.Load(ctx, keys[len(keys)-1])
}

// Restore writes every document of snap back into store, overwriting
// current versions. It returns the number of documents written.
func Restore(ctx context.Context, store docstore.Store, snap *Snapshot) (int, error) {
	for i, entry := range snap.Documents {
		if _, err := store.Put(ctx, snap.Collection, entry.ID, entry.Data, docstore.AnyVersion); err != nil {
			return i, fmt.Errorf("restore %s/%s: %w", snap.Collection, entry.ID, err)
		}
	}
	return len(snap.Documents), nil
}
