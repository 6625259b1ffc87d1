package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/models"
)

// Event is the frame pushed to dashboard clients.
type Event struct {
	Type   string            `json:"type"`
	Report models.SyncReport `json:"report"`
}

// EventSyncCompleted is sent after every successful pass.
const EventSyncCompleted = "sync.completed"

// Hub fans sync reports out to connected dashboard clients.
type Hub struct {
	mu           sync.RWMutex
	connections  map[string]*Connection
	nextID       atomic.Int64
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
	baseCtx      context.Context
}

// NewHub builds hub. Connections end when ctx is cancelled.
func NewHub(ctx context.Context, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		connections:  make(map[string]*Connection),
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		baseCtx:      ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for GET /ws/sync.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := "client-" + strconv.FormatInt(h.nextID.Add(1), 10)
	connection := NewConnection(id, conn, h.writeTimeout, h.pingInterval, h.logger, h.remove)
	h.add(connection)

	go connection.Start(h.baseCtx)
	h.logger.Info("dashboard client connected", zap.String("client_id", id))
}

// Publish is a sync hook broadcasting the report to every client.
func (h *Hub) Publish(_ context.Context, report models.SyncReport) {
	payload, err := json.Marshal(Event{Type: EventSyncCompleted, Report: report})
	if err != nil {
		h.logger.Error("encode sync event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.Send(payload)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID()] = conn
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
}
