package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fractalizend/screener/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w := New("http://example.com/hook", nil)
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}
}

func TestWebhook_Init_RequiresURL(t *testing.T) {
	w := &Webhook{}
	if err := w.Init(notifier.Config{Params: map[string]any{}}); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_Init_WithURL(t *testing.T) {
	w := &Webhook{}
	err := w.Init(notifier.Config{
		Params: map[string]any{
			"url":     "http://example.com/hook",
			"headers": map[string]any{"X-Token": "abc"},
		},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if w.url != "http://example.com/hook" {
		t.Errorf("expected url, got %s", w.url)
	}
	if w.headers["X-Token"] != "abc" {
		t.Errorf("expected header, got %v", w.headers)
	}
}

func TestWebhook_Send(t *testing.T) {
	var payload map[string]any
	var token string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Token")
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, map[string]string{"X-Token": "abc"})

	err := w.Send(context.Background(), notifier.Message{
		Text:      "XAUUSD 30m up",
		Pair:      "XAUUSD",
		Timeframe: "30",
		Kind:      "direction",
		Value:     "up",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if token != "abc" {
		t.Errorf("expected custom header, got %q", token)
	}
	if payload["type"] != "alert" {
		t.Errorf("expected type alert, got %v", payload["type"])
	}
	if payload["pair"] != "XAUUSD" || payload["value"] != "up" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestWebhook_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := New(server.URL, nil)
	if err := w.Send(context.Background(), notifier.Message{Text: "x"}); err == nil {
		t.Error("expected error for 500 response")
	}
}
