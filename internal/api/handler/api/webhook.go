package api

import (
	"context"
	"net/http"

	"github.com/fractalizend/screener/internal/api/response"
	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/ingest"
)

// Ingester processes one validated event.
type Ingester interface {
	Process(ctx context.Context, ev core.Event) (ingest.Result, error)
}

// WebhookHandler receives alert webhooks.
type WebhookHandler struct {
	ingest Ingester
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(ingest Ingester) *WebhookHandler {
	return &WebhookHandler{ingest: ingest}
}

// WebhookResponse is the body returned for a processed event.
type WebhookResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Changed  bool   `json:"changed"`
	Notified bool   `json:"notified"`
}

// Handle validates the payload and runs it through ingestion.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var payload ingest.Payload
	if err := decodeJSON(w, r, &payload); err != nil {
		response.Fail(w, err)
		return
	}

	ev, err := payload.Event(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}

	res, err := h.ingest.Process(r.Context(), ev)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, WebhookResponse{
		Success:  true,
		Message:  "Webhook processed",
		Changed:  res.Changed,
		Notified: res.Notified,
	})
}
