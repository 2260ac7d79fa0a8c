package handlers

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Event types sent over WebSocket
const (
	EventCompletionLogged   = "completion_logged"
	EventRouteSet           = "route_set"
	EventRouteStatusChanged = "route_status_changed"
	EventRoutesBulkUpdated  = "routes_bulk_updated"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type   string      `json:"type"`
	AreaID string      `json:"areaId"`
	Data   interface{} `json:"data,omitempty"`
}

// writeWait bounds how long one client may hold up a broadcast.
const writeWait = 5 * time.Second

// feedConn is the part of a websocket connection the hub writes to.
type feedConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub keeps the wall-screen and app connections watching each area.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[feedConn]bool
}

var WS = NewHub()

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[feedConn]bool)}
}

func (h *Hub) register(areaID uuid.UUID, conn feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[areaID] == nil {
		h.rooms[areaID] = make(map[feedConn]bool)
	}
	h.rooms[areaID][conn] = true
	slog.Debug("ws register", "area", areaID, "connections", len(h.rooms[areaID]))
}

func (h *Hub) unregister(areaID uuid.UUID, conn feedConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[areaID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, areaID)
		}
	}
}

// Connections reports how many clients watch an area.
func (h *Hub) Connections(areaID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[areaID])
}

// Broadcast sends an event to everyone watching the area. Writes happen
// under the write lock since a connection allows one writer at a time; each
// write has a deadline and a client that fails one is dropped.
func (h *Hub) Broadcast(areaID uuid.UUID, eventType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[areaID]
	if !ok {
		return
	}

	msg, err := json.Marshal(WSEvent{Type: eventType, AreaID: areaID.String(), Data: data})
	if err != nil {
		slog.Error("ws broadcast marshal error", "error", err)
		return
	}

	for c := range conns {
		err := c.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = c.WriteMessage(websocket.TextMessage, msg)
		}
		if err != nil {
			slog.Warn("ws write error, dropping client", "area", areaID, "error", err)
			delete(conns, c)
			c.Close()
		}
	}
	if len(conns) == 0 {
		delete(h.rooms, areaID)
	}
}

// WebSocketUpgrade rejects plain HTTP requests to the feed.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
}

// HandleAreaFeed streams an area's events until the client goes away.
func HandleAreaFeed(c *websocket.Conn) {
	areaID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}

	WS.register(areaID, c)
	defer WS.unregister(areaID, c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
