package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/preference"
)

// BookmarkStore defines the bookmark operations the handler needs.
type BookmarkStore interface {
	Get(ctx context.Context, userID string) (*preference.BookmarkSet, error)
	Toggle(ctx context.Context, userID, pair string, version int64) (*preference.BookmarkSet, error)
}

// BookmarkHandler handles per-user bookmark requests.
type BookmarkHandler struct {
	bookmarks BookmarkStore
}

// NewBookmarkHandler creates a new bookmark handler.
func NewBookmarkHandler(bookmarks BookmarkStore) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

// ToggleRequest is the request body for a bookmark toggle. Version may be
// sent in the If-Match header instead.
type ToggleRequest struct {
	Pair    string `json:"pair"`
	Version *int64 `json:"version,omitempty"`
}

// Get returns the user's bookmark set.
func (h *BookmarkHandler) Get(w http.ResponseWriter, r *http.Request) {
	set, err := h.bookmarks.Get(r.Context(), r.PathValue("user"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	w.Header().Set("ETag", etag(set.Version))
	response.JSON(w, http.StatusOK, set)
}

// Toggle flips one pair. A stale version answers 409 with the current set.
func (h *BookmarkHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	version, err := requestVersion(r, req.Version)
	if err != nil {
		response.Fail(w, err)
		return
	}

	set, err := h.bookmarks.Toggle(r.Context(), r.PathValue("user"), req.Pair, version)
	if errors.Is(err, core.ErrVersionConflict) && set != nil {
		w.Header().Set("ETag", etag(set.Version))
		response.Conflict(w, err, set)
		return
	}
	if err != nil {
		response.Fail(w, err)
		return
	}

	w.Header().Set("ETag", etag(set.Version))
	response.JSON(w, http.StatusOK, set)
}

// requestVersion prefers the If-Match header over the body field.
func requestVersion(r *http.Request, body *int64) (int64, error) {
	if h := r.Header.Get("If-Match"); h != "" {
		raw := strings.Trim(strings.TrimPrefix(h, "W/"), `"`)
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return 0, core.WrapError(core.ErrInvalidField, fmt.Errorf("If-Match %q is not a version", h))
		}
		return v, nil
	}
	if body == nil {
		return 0, core.WrapError(core.ErrMissingField, errors.New("version is required (If-Match header or version field)"))
	}
	if *body < 0 {
		return 0, core.WrapError(core.ErrInvalidField, fmt.Errorf("version %d is negative", *body))
	}
	return *body, nil
}

func etag(version int64) string {
	return strconv.Quote(strconv.FormatInt(version, 10))
}
