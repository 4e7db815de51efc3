// internal/storage/calendar/repository.go
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/docstore"
	"github.com/fractalizend/screener/internal/validate"
	"github.com/google/uuid"
)

// Collection holds calendar entries keyed by uuid.
const Collection = "calendar"

// Repository stores calendar entries.
type Repository struct {
	store docstore.Store
	newID func() string
}

// NewRepository creates a repository over store.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, newID: uuid.NewString}
}

// List returns all entries sorted by start date-time, then name.
func (r *Repository) List(ctx context.Context) ([]core.CalendarEntry, error) {
	docs, err := r.store.List(ctx, Collection)
	if err != nil {
		return nil, err
	}

	entries := make([]core.CalendarEntry, 0, len(docs))
	for _, doc := range docs {
		var e core.CalendarEntry
		if err := json.Unmarshal(doc.Data, &e); err != nil {
			return nil, fmt.Errorf("decode calendar %s: %w", doc.ID, err)
		}
		e.ID = doc.ID
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		fi, _ := entries[i].From(time.UTC)
		fj, _ := entries[j].From(time.UTC)
		if !fi.Equal(fj) {
			return fi.Before(fj)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Create validates and stores a new entry with a generated id.
func (r *Repository) Create(ctx context.Context, e core.CalendarEntry) (*core.CalendarEntry, error) {
	e.ID = r.newID()
	if err := r.write(ctx, &e, 0); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces an existing entry. Returns core.ErrNotFound for unknown ids.
func (r *Repository) Update(ctx context.Context, id string, e core.CalendarEntry) (*core.CalendarEntry, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	e.ID = id
	if err := r.write(ctx, &e, doc.Version); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

func (r *Repository) write(ctx context.Context, e *core.CalendarEntry, expectedVersion int64) error {
	if err := validate.Struct(ctx, e); err != nil {
		return err
	}
	if err := e.CheckRange(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, Collection, e.ID, data, expectedVersion)
	return err
}
