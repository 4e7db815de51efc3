package api

import (
	"context"
	"net/http"

	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/core"
)

// PairStore defines the pair operations the handler needs.
type PairStore interface {
	List(ctx context.Context) ([]core.PairState, error)
	Get(ctx context.Context, id string) (*core.PairState, error)
	AddTag(ctx context.Context, id, tag string) (*core.PairState, error)
	RemoveTag(ctx context.Context, id, tag string) (*core.PairState, error)
}

// PairsHandler handles pair and tag requests.
type PairsHandler struct {
	pairs PairStore
}

// NewPairsHandler creates a new pairs handler.
func NewPairsHandler(pairs PairStore) *PairsHandler {
	return &PairsHandler{pairs: pairs}
}

// TagRequest is the request body for adding a tag.
type TagRequest struct {
	Tag string `json:"tag"`
}

// List returns every tracked pair.
func (h *PairsHandler) List(w http.ResponseWriter, r *http.Request) {
	states, err := h.pairs.List(r.Context())
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrUpstreamRead, err))
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"pairs": states,
		"count": len(states),
	})
}

// Get returns one pair.
func (h *PairsHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.pairs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, state)
}

// AddTag adds a tag to a pair.
func (h *PairsHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	state, err := h.pairs.AddTag(r.Context(), r.PathValue("id"), req.Tag)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, state)
}

// RemoveTag removes a tag from a pair.
func (h *PairsHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	state, err := h.pairs.RemoveTag(r.Context(), r.PathValue("id"), r.PathValue("tag"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, state)
}
