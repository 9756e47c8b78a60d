package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every pushed message.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketHandler pushes live panel updates to connected dashboards.
// Water-level ticks are throttled; registry snapshots are not.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	registryService  interfaces.RegistryService
	monitorService   interfaces.MonitorService
	tickThrottler    *rate.Limiter
	serverInstanceID string // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, registryService interfaces.RegistryService, monitorService interfaces.MonitorService, config *common.Config, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		registryService:  registryService,
		monitorService:   monitorService,
		serverInstanceID: uuid.New().String(),
	}

	throttle := time.Second
	if config != nil {
		throttle = config.TickThrottle()
	}
	h.tickThrottler = rate.NewLimiter(rate.Every(throttle), 1)

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Str("tick_throttle", throttle.String()).
		Msg("WebSocket handler initialized")

	if eventService != nil {
		h.subscribeToEvents()
	}

	return h
}

// subscribeToEvents wires panel events to broadcasts.
func (h *WebSocketHandler) subscribeToEvents() {
	h.eventService.Subscribe(interfaces.EventWaterLevelTick, func(ctx context.Context, event interfaces.Event) error {
		// Drop ticks arriving faster than the throttle; the next one
		// carries the current state anyway.
		if !h.tickThrottler.Allow() {
			return nil
		}
		h.broadcast(WSMessage{Type: "water_levels", Payload: event.Payload})
		return nil
	})

	h.eventService.Subscribe(interfaces.EventAidRecordCreated, func(ctx context.Context, event interfaces.Event) error {
		h.broadcastRegistrySnapshot(ctx)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventSessionSettled, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast(WSMessage{Type: "session", Payload: event.Payload})
		return nil
	})
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", total)

	h.sendInitialState(r.Context(), conn)

	// Read loop exists only to detect disconnects; clients never send data.
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// sendInitialState pushes a full snapshot so a new dashboard renders
// without waiting for the next tick.
func (h *WebSocketHandler) sendInitialState(ctx context.Context, conn *websocket.Conn) {
	h.sendToClient(conn, WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
			"version":            common.GetVersion(),
		},
	})

	if h.monitorService != nil {
		h.sendToClient(conn, WSMessage{Type: "water_levels", Payload: h.monitorService.Levels()})
	}

	if h.registryService != nil {
		if records, err := h.registryService.Feed(ctx); err == nil {
			h.sendToClient(conn, WSMessage{
				Type:    "registry_snapshot",
				Payload: map[string]interface{}{"records": records, "count": len(records)},
			})
		}
	}
}

// broadcastRegistrySnapshot pushes the full feed to every client. The
// snapshot replaces client state rather than appending to it.
func (h *WebSocketHandler) broadcastRegistrySnapshot(ctx context.Context) {
	records, err := h.registryService.Feed(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to load registry snapshot for broadcast")
		return
	}

	h.broadcast(WSMessage{
		Type:    "registry_snapshot",
		Payload: map[string]interface{}{"records": records, "count": len(records)},
	})
}

func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send WebSocket message")
			h.removeClient(conn)
		}
	}
}

func (h *WebSocketHandler) sendToClient(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()
	if mutex == nil {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn)
	delete(h.clientMutex, conn)
	total := len(h.clients)
	h.mu.Unlock()

	conn.Close()
	h.logger.Debug().Msgf("WebSocket client disconnected (total: %d)", total)
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
