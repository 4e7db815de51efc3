package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// serveLogged runs req through LoggingMiddleware and returns the decoded
// log line.
func serveLogged(t *testing.T, req *http.Request, status int) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	w := httptest.NewRecorder()
	LoggingMiddleware(zap.New(core))(next).ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry, w
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	entry, w := serveLogged(t, req, http.StatusBadRequest)

	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/webhook", entry["path"])
	assert.EqualValues(t, 400, entry["status"])
	assert.Contains(t, entry, "duration_ms")
	assert.Equal(t, w.Header().Get("X-Request-ID"), entry["request_id"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLoggingMiddleware_ClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"remote addr", "", "10.0.0.1:54321"},
		{"forwarded single", "203.0.113.50", "203.0.113.50"},
		{"forwarded chain", "203.0.113.50, 70.41.3.18", "203.0.113.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/screener", nil)
			req.RemoteAddr = "10.0.0.1:54321"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			entry, _ := serveLogged(t, req, http.StatusOK)
			assert.Equal(t, tt.want, entry["client_ip"])
		})
	}
}

func TestLoggingMiddleware_KeepsCallerRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/pairs", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	entry, w := serveLogged(t, req, http.StatusOK)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", entry["request_id"])
}
