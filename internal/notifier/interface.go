package notifier

import (
	"context"
	"strings"
	"time"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Message is one outbound alert. Text is preformatted for chat transports;
// the structured fields are carried for machine consumers.
type Message struct {
	Text string `json:"text"`

	// Destination overrides the notifier's configured recipient when set
	// (chat id, phone number, topic, address).
	Destination string `json:"destination,omitempty"`

	Rule      string    `json:"rule,omitempty"`
	Pair      string    `json:"pair"`
	Timeframe string    `json:"timeframe"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	Timestamp string    `json:"timestamp"`
	SentAt    time.Time `json:"sentAt"`
}

// Notifier defines the interface for alert transports
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers one message
	Send(ctx context.Context, msg Message) error
}

// Param helpers read viper-decoded params, which arrive as any.

// StringParam returns params[key] as a string.
func StringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok && v != ""
}

// IntParam returns params[key] as an int.
func IntParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// StringsParam returns params[key] as a string slice.
func StringsParam(params map[string]any, key string) ([]string, bool) {
	switch v := params[key].(type) {
	case []string:
		return v, len(v) > 0
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, len(out) > 0
	case string:
		// Comma-separated, as env expansion yields a single string.
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// StringMapParam returns params[key] as a string map.
func StringMapParam(params map[string]any, key string) (map[string]string, bool) {
	switch v := params[key].(type) {
	case map[string]string:
		return v, true
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, item := range v {
			if s, ok := item.(string); ok {
				out[k] = s
			}
		}
		return out, true
	default:
		return nil, false
	}
}
