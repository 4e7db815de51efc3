package screener

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/fractalizend/screener/internal/storage/docstore"
	"github.com/fractalizend/screener/internal/storage/pair"
	"github.com/fractalizend/screener/internal/storage/preference"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscriber delivers collection snapshots.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string) (<-chan []docstore.Document, func(), error)
}

// HubRecorder receives websocket metrics.
type HubRecorder interface {
	ScreenerClientConnected()
	ScreenerClientDisconnected()
	RecordSnapshotPublished()
	SetPairsTracked(n int)
}

// Message is sent to websocket clients.
type Message struct {
	Type  string     `json:"type"`
	Query *Query     `json:"query,omitempty"`
	Pairs []PairView `json:"pairs"`
	Error string     `json:"error,omitempty"`
}

// clientMessage is read from websocket clients.
type clientMessage struct {
	Type string `json:"type"`
	Query
}

// Hub pushes the screener grid to websocket clients. Every client holds
// its own feed subscription and query; the grid is rebuilt whenever the
// pairs or bookmarks change or the client sends a new query.
type Hub struct {
	feed     Subscriber
	service  *Service
	logger   *zap.Logger
	metrics  HubRecorder
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]context.CancelFunc
}

// NewHub creates a hub reading snapshots from feed.
func NewHub(feed Subscriber, service *Service, logger *zap.Logger, metrics HubRecorder) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopHubRecorder{}
	}
	return &Hub{
		feed:    feed,
		service: service,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]context.CancelFunc),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cancel := range h.clients {
		cancel()
	}
}

// ServeHTTP upgrades the request and streams the grid until the client
// goes away. The initial query comes from the URL parameters.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.mu.Lock()
	h.clients[id] = cancel
	h.mu.Unlock()
	h.metrics.ScreenerClientConnected()
	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		h.metrics.ScreenerClientDisconnected()
	}()

	log := h.logger.With(zap.String("client_id", id))
	log.Debug("screener client connected")

	queries := make(chan Query, 1)
	go h.read(ctx, cancel, conn, queries, log)

	if err := h.write(ctx, conn, ParseQuery(r.URL.Query()), queries); err != nil {
		log.Debug("screener client disconnected", zap.Error(err))
	}
}

// read consumes client messages until the connection fails. Only the
// latest pending query is kept.
func (h *Hub) read(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, queries chan Query, log *zap.Logger) {
	defer cancel()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "query" {
			log.Debug("ignoring client message", zap.ByteString("data", data))
			continue
		}

		select {
		case <-queries:
		default:
		}
		select {
		case queries <- msg.Query.normalize():
		case <-ctx.Done():
			return
		}
	}
}

// write is the only goroutine writing to conn.
func (h *Hub) write(ctx context.Context, conn *websocket.Conn, q Query, queries <-chan Query) error {
	pairs, cancelPairs, err := h.feed.Subscribe(ctx, pair.Collection)
	if err != nil {
		h.send(conn, Message{Type: "error", Error: "Error fetching pairs"})
		return err
	}
	defer cancelPairs()

	prefs, cancelPrefs, err := h.feed.Subscribe(ctx, preference.Collection)
	if err != nil {
		return err
	}
	defer cancelPrefs()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var docs []docstore.Document
	ready := false

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()

		case snap, ok := <-pairs:
			if !ok {
				return nil
			}
			docs, ready = snap, true

		case _, ok := <-prefs:
			if !ok {
				return nil
			}

		case q = <-queries:

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
			continue
		}

		if !ready {
			continue
		}
		if err := h.push(ctx, conn, docs, q); err != nil {
			return err
		}
	}
}

func (h *Hub) push(ctx context.Context, conn *websocket.Conn, docs []docstore.Document, q Query) error {
	states, err := pair.DecodeAll(docs)
	if err != nil {
		h.logger.Error("failed to decode pair snapshot", zap.Error(err))
		return h.send(conn, Message{Type: "error", Error: "Error fetching pairs"})
	}
	h.metrics.SetPairsTracked(len(states))

	views := Build(states, h.service.Bookmarks(ctx, q.User), q)
	if err := h.send(conn, Message{Type: "screener", Query: &q, Pairs: views}); err != nil {
		return err
	}
	h.metrics.RecordSnapshotPublished()
	return nil
}

func (h *Hub) send(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

type nopHubRecorder struct{}

func (nopHubRecorder) ScreenerClientConnected()    {}
func (nopHubRecorder) ScreenerClientDisconnected() {}
func (nopHubRecorder) RecordSnapshotPublished()    {}
func (nopHubRecorder) SetPairsTracked(int)         {}
