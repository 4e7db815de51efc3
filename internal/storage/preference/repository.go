// internal/storage/preference/repository.go
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/docstore"
)

// Collection holds one BookmarkSet per user.
const Collection = "preferences"

// BookmarkSet is the set of pairs a user starred.
type BookmarkSet struct {
	UserID    string   `json:"userId"`
	Bookmarks []string `json:"bookmarks"`

	// Version is the token a client must echo back when writing.
	// A user without a stored set is at version 0.
	Version int64 `json:"version"`
}

// Has reports whether pair is bookmarked.
func (b *BookmarkSet) Has(pair string) bool {
	return slices.Contains(b.Bookmarks, pair)
}

// Lookup returns the set as a membership map.
func (b *BookmarkSet) Lookup() map[string]bool {
	m := make(map[string]bool, len(b.Bookmarks))
	for _, p := range b.Bookmarks {
		m[p] = true
	}
	return m
}

// Repository stores bookmark sets keyed by user id.
type Repository struct {
	store docstore.Store
}

// NewRepository creates a repository over store.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get returns the user's set, or an empty set at version 0.
func (r *Repository) Get(ctx context.Context, userID string) (*BookmarkSet, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}

	doc, err := r.store.Get(ctx, Collection, userID)
	if errors.Is(err, core.ErrNotFound) {
		return &BookmarkSet{UserID: userID, Bookmarks: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	set := &BookmarkSet{}
	if err := json.Unmarshal(doc.Data, set); err != nil {
		return nil, fmt.Errorf("decode bookmarks %s: %w", userID, err)
	}
	set.UserID = userID
	set.Version = doc.Version
	if set.Bookmarks == nil {
		set.Bookmarks = []string{}
	}
	return set, nil
}

// Toggle flips pair membership and writes the whole set conditioned on
// version. On a stale version it returns the current set together with
// core.ErrVersionConflict.
func (r *Repository) Toggle(ctx context.Context, userID, pair string, version int64) (*BookmarkSet, error) {
	pair = strings.TrimSpace(pair)
	if pair == "" {
		return nil, core.WrapError(core.ErrMissingField, errors.New("pair is required"))
	}

	current, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.Version != version {
		return current, core.WrapError(core.ErrVersionConflict,
			fmt.Errorf("bookmarks of %s at version %d, got %d", userID, current.Version, version))
	}

	next := &BookmarkSet{UserID: userID, Bookmarks: slices.Clone(current.Bookmarks)}
	if idx := slices.Index(next.Bookmarks, pair); idx >= 0 {
		next.Bookmarks = slices.Delete(next.Bookmarks, idx, idx+1)
	} else {
		next.Bookmarks = append(next.Bookmarks, pair)
		slices.Sort(next.Bookmarks)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	v, err := r.store.Put(ctx, Collection, userID, data, version)
	if errors.Is(err, core.ErrVersionConflict) {
		latest, gerr := r.Get(ctx, userID)
		if gerr != nil {
			return nil, gerr
		}
		return latest, err
	}
	if err != nil {
		return nil, err
	}
	next.Version = v
	return next, nil
}

func validUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.WrapError(core.ErrMissingField, errors.New("user id is required"))
	}
	return nil
}
