// Package whatsapp implements a notifier over the WhatsApp Cloud API
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fractalizend/screener/internal/notifier"
)

const (
	defaultAPIURL     = "https://graph.facebook.com"
	defaultAPIVersion = "v19.0"
)

// WhatsApp sends text messages from a business phone number.
type WhatsApp struct {
	apiURL        string
	apiVersion    string
	phoneNumberID string
	accessToken   string
	to            string
	client        *http.Client
}

// New creates a WhatsApp notifier
func New(phoneNumberID, accessToken, to string) *WhatsApp {
	return &WhatsApp{
		apiURL:        defaultAPIURL,
		apiVersion:    defaultAPIVersion,
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		to:            to,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

func (w *WhatsApp) Init(cfg notifier.Config) error {
	if v, ok := notifier.StringParam(cfg.Params, "phone_number_id"); ok {
		w.phoneNumberID = v
	}
	if v, ok := notifier.StringParam(cfg.Params, "access_token"); ok {
		w.accessToken = v
	}
	if v, ok := notifier.StringParam(cfg.Params, "to"); ok {
		w.to = v
	}
	if v, ok := notifier.StringParam(cfg.Params, "api_url"); ok {
		w.apiURL = v
	}
	if v, ok := notifier.StringParam(cfg.Params, "api_version"); ok {
		w.apiVersion = v
	}

	if w.phoneNumberID == "" || w.accessToken == "" || w.to == "" {
		return fmt.Errorf("whatsapp: phone_number_id, access_token and to are required")
	}
	if w.apiURL == "" {
		w.apiURL = defaultAPIURL
	}
	if w.apiVersion == "" {
		w.apiVersion = defaultAPIVersion
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}
	return nil
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Send delivers msg.Text to the configured or overridden recipient.
func (w *WhatsApp) Send(ctx context.Context, msg notifier.Message) error {
	payload := textMessage{MessagingProduct: "whatsapp", To: w.to, Type: "text"}
	if msg.Destination != "" {
		payload.To = msg.Destination
	}
	payload.Text.Body = msg.Text

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", w.apiURL, w.apiVersion, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.accessToken)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var result struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("whatsapp: API error (status %d): %s", resp.StatusCode, result.Error.Message)
	}
	return nil
}
