package api

import (
	"context"
	"net/http"

	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/screener"
)

// Grid builds the screener rows for a query.
type Grid interface {
	Grid(ctx context.Context, q screener.Query) ([]screener.PairView, error)
}

// ScreenerHandler serves the screener grid.
type ScreenerHandler struct {
	grid Grid
}

// NewScreenerHandler creates a new screener handler.
func NewScreenerHandler(grid Grid) *ScreenerHandler {
	return &ScreenerHandler{grid: grid}
}

// Get returns the grid for the query parameters.
func (h *ScreenerHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := screener.ParseQuery(r.URL.Query())

	views, err := h.grid.Grid(r.Context(), q)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"query": q,
		"pairs": views,
		"count": len(views),
	})
}
