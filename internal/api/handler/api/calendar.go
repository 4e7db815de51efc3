package api

import (
	"context"
	"net/http"

	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/calendar"
	"github.com/fractalizend/screener/internal/core"
)

// CalendarStore defines the calendar operations the handler needs.
type CalendarStore interface {
	List(ctx context.Context) ([]core.CalendarEntry, error)
	Create(ctx context.Context, e core.CalendarEntry) (*core.CalendarEntry, error)
	Update(ctx context.Context, id string, e core.CalendarEntry) (*core.CalendarEntry, error)
	Delete(ctx context.Context, id string) error
}

// PanelSource evaluates the news and season panels.
type PanelSource interface {
	Panels(ctx context.Context) (calendar.Panels, error)
}

// CalendarHandler handles calendar requests.
type CalendarHandler struct {
	entries CalendarStore
	panels  PanelSource
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(entries CalendarStore, panels PanelSource) *CalendarHandler {
	return &CalendarHandler{entries: entries, panels: panels}
}

// List returns all entries in chronological order.
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.List(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// Create adds an entry.
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e core.CalendarEntry
	if err := decodeJSON(w, r, &e); err != nil {
		response.Fail(w, err)
		return
	}

	created, err := h.entries.Create(r.Context(), e)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

// Update replaces an entry.
func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var e core.CalendarEntry
	if err := decodeJSON(w, r, &e); err != nil {
		response.Fail(w, err)
		return
	}

	updated, err := h.entries.Update(r.Context(), r.PathValue("id"), e)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

// Delete removes an entry.
func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.entries.Delete(r.Context(), id); err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"deleted": true,
	})
}

// Panels returns today's news, this week's news and the current and
// upcoming seasons.
func (h *CalendarHandler) Panels(w http.ResponseWriter, r *http.Request) {
	p, err := h.panels.Panels(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}
