package api

import (
	"context"
	"net/http"

	"github.com/fractalizend/screener/internal/admin"
	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/ingest"
)

// Clearer deletes all pair state.
type Clearer interface {
	Clear(ctx context.Context) (admin.ClearResult, error)
}

// Seeder inserts the demo pairs.
type Seeder interface {
	Seed(ctx context.Context) ([]ingest.Result, error)
}

// AdminHandler handles maintenance requests.
type AdminHandler struct {
	clearer Clearer
	seeder  Seeder
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(clearer Clearer, seeder Seeder) *AdminHandler {
	return &AdminHandler{clearer: clearer, seeder: seeder}
}

// DeleteAlerts archives and deletes every pair.
func (h *AdminHandler) DeleteAlerts(w http.ResponseWriter, r *http.Request) {
	res, err := h.clearer.Clear(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}

	body := map[string]any{
		"success":      true,
		"message":      "All alerts deleted successfully",
		"deletedCount": res.Deleted,
	}
	if res.Snapshot != "" {
		body["snapshot"] = res.Snapshot
	}
	response.JSON(w, http.StatusOK, body)
}

// MockData seeds the demo pairs through the ingestion path.
func (h *AdminHandler) MockData(w http.ResponseWriter, r *http.Request) {
	results, err := h.seeder.Seed(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mock data added successfully",
		"count":   len(results),
		"results": results,
	})
}
