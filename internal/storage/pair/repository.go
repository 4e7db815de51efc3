// internal/storage/pair/repository.go
package pair

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/docstore"
)

// Collection holds one PairState document per pair symbol.
const Collection = "pairs"

// tagAttempts bounds the re-read loop of tag edits racing an ingest write.
const tagAttempts = 3

// Repository gives typed access to PairState documents.
type Repository struct {
	store docstore.Store
}

// NewRepository creates a repository over store.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Decode converts a stored document into a PairState. Documents written
// before tags existed get the default tag.
func Decode(doc docstore.Document) (*core.PairState, error) {
	var state core.PairState
	if err := json.Unmarshal(doc.Data, &state); err != nil {
		return nil, fmt.Errorf("decode pair %s: %w", doc.ID, err)
	}
	if state.ID == "" {
		state.ID = doc.ID
	}
	if state.DirectionTimeframe == nil {
		state.DirectionTimeframe = map[string]core.Direction{}
	}
	if state.ConfirmationTimeframe == nil {
		state.ConfirmationTimeframe = map[string]core.ConfirmationStatus{}
	}
	if state.History == nil {
		state.History = []core.HistoryEntry{}
	}
	if state.Tags == nil {
		state.Tags = []string{core.DefaultTag}
	}
	state.Version = doc.Version
	return &state, nil
}

// DecodeAll converts a collection snapshot.
func DecodeAll(docs []docstore.Document) ([]core.PairState, error) {
	states := make([]core.PairState, 0, len(docs))
	for _, doc := range docs {
		s, err := Decode(doc)
		if err != nil {
			return nil, err
		}
		states = append(states, *s)
	}
	return states, nil
}

// Get loads one pair. Returns core.ErrNotFound for unseen pairs.
func (r *Repository) Get(ctx context.Context, id string) (*core.PairState, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	return Decode(*doc)
}

// Save writes state. expectedVersion is docstore.AnyVersion for an
// unconditional write, 0 to create, or the version the state was read at.
// On success state.Version holds the new version.
func (r *Repository) Save(ctx context.Context, state *core.PairState, expectedVersion int64) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode pair %s: %w", state.ID, err)
	}
	v, err := r.store.Put(ctx, Collection, state.ID, data, expectedVersion)
	if err != nil {
		return err
	}
	state.Version = v
	return nil
}

// List returns every pair ordered by id.
func (r *Repository) List(ctx context.Context) ([]core.PairState, error) {
	docs, err := r.store.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	return DecodeAll(docs)
}

// Documents returns the raw pair documents, for archiving.
func (r *Repository) Documents(ctx context.Context) ([]docstore.Document, error) {
	return r.store.List(ctx, Collection)
}

// DeleteAll removes every pair and returns the count.
func (r *Repository) DeleteAll(ctx context.Context) (int, error) {
	return r.store.DeleteAll(ctx, Collection)
}

// AddTag tags a pair. The tag is trimmed; an empty tag is invalid.
func (r *Repository) AddTag(ctx context.Context, id, tag string) (*core.PairState, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, core.WrapError(core.ErrInvalidField, errors.New("tag is empty"))
	}
	return r.updateTags(ctx, id, func(s *core.PairState) error {
		return s.AddTag(tag)
	})
}

// RemoveTag untags a pair. Removing an absent tag is not an error.
func (r *Repository) RemoveTag(ctx context.Context, id, tag string) (*core.PairState, error) {
	return r.updateTags(ctx, id, func(s *core.PairState) error {
		s.RemoveTag(tag)
		return nil
	})
}

// updateTags applies edit under the version read, re-reading when an
// ingest write lands in between so that history is never overwritten.
func (r *Repository) updateTags(ctx context.Context, id string, edit func(*core.PairState) error) (*core.PairState, error) {
	var err error
	for attempt := 0; attempt < tagAttempts; attempt++ {
		var state *core.PairState
		state, err = r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err = edit(state); err != nil {
			return nil, err
		}
		err = r.Save(ctx, state, state.Version)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, core.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, err
}
