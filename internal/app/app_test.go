package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fractalizend/screener/internal/alert"
	"github.com/fractalizend/screener/internal/config"
	"github.com/fractalizend/screener/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookSink struct {
	mu   sync.Mutex
	msgs []notifier.Message
}

func (s *hookSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg notifier.Message
	_ = json.NewDecoder(r.Body).Decode(&msg)
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *hookSink) received() []notifier.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifier.Message(nil), s.msgs...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.Type = "memory"
	cfg.Archive.Type = "localfs"
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive")
	cfg.Server.APIKey = "secret"
	return cfg
}

func TestNew_WiresServices(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Ingest)
	assert.NotNil(t, a.Admin)
	assert.NotNil(t, a.Screener)
	assert.NotNil(t, a.Hub)
	assert.NotNil(t, a.Panels)
	assert.Empty(t, a.Notifiers.Names())

	srv, err := a.Server()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}

func TestNew_WebhookToNotifier(t *testing.T) {
	sink := &hookSink{}
	hook := httptest.NewServer(sink)
	defer hook.Close()

	cfg := testConfig(t)
	cfg.Notifiers["webhook"] = config.NotifierConfig{
		Enabled: true,
		Params:  map[string]any{"url": hook.URL},
	}
	cfg.Alerts.Rules = []alert.Rule{{
		Name:      "btc",
		Pairs:     []string{"BTCUSDT"},
		Notifiers: []string{"webhook"},
	}}

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, []string{"webhook"}, a.Notifiers.Names())

	srv, err := a.Server()
	require.NoError(t, err)

	body := `{"pair":"BTCUSDT","timeframe":"1H","timestamp":"2024-06-07T10:00:00Z","data":{"direction":"up"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	msgs := sink.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, "BTCUSDT", msgs[0].Pair)
	assert.Equal(t, "up", msgs[0].Value)

	state, err := a.Pairs.Get(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", state.ID)
}

func TestNew_ClearArchivesThenRestores(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	results, err := a.Ingest.Seed(ctx)
	require.NoError(t, err)
	require.Len(t, results, 5)

	res, err := a.Admin.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Deleted)
	assert.NotEmpty(t, res.Snapshot)

	states, err := a.Pairs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	n, err := a.Admin.Restore(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_NotifierInitFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifiers["telegram"] = config.NotifierConfig{Enabled: true}
	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestNew_DisabledNotifierSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notifiers["telegram"] = config.NotifierConfig{Enabled: false}
	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.Empty(t, a.Notifiers.Names())
}

func TestOpenStore(t *testing.T) {
	store, err := OpenStore(config.StorageConfig{Type: "buntdb", Path: filepath.Join(t.TempDir(), "db", "screener.db")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = OpenStore(config.StorageConfig{Type: "mongo"})
	assert.Error(t, err)
}

func TestOpenArchive(t *testing.T) {
	a, err := OpenArchive(config.ArchiveConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = OpenArchive(config.ArchiveConfig{Type: "s3", S3: config.S3Config{Bucket: "b", Region: "us-east-1"}})
	require.NoError(t, err)
	assert.NotNil(t, a)
}
