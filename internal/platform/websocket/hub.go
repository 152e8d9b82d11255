// Package websocket pushes change events to connected clients. It implements
// a hub-and-spoke pattern: each connection subscribes to exactly one topic
// and receives every event broadcast on it. There is no queuing or replay;
// a client only sees events broadcast while it is connected.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Broadcast topics. Each is an isolated stream; events on one are never
// delivered to subscribers of another.
const (
	TopicAppointments  = "appointment-updates"
	TopicMedications   = "medication-updates"
	TopicPrescriptions = "prescription-updates"
)

// Event is a notification pushed to clients as JSON.
type Event struct {
	Name string                 `json:"evento"`
	Data map[string]interface{} `json:"datos,omitempty"`
}

// Notifier is the broadcast interface consumed by the domain services.
type Notifier interface {
	Notify(topic string, event Event)
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection subscribed to one topic.
type Client struct {
	ID    string
	Topic string
	Send  chan []byte
	conn  Conn
}

// Hub is the central connection registry. All operations are safe under
// concurrent invocation via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	logger  zerolog.Logger
}

// NewHub creates a Hub ready to manage WebSocket clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to its topic's subscriber set.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Topic] == nil {
		h.clients[client.Topic] = make(map[*Client]struct{})
	}
	h.clients[client.Topic][client] = struct{}{}
}

// Unregister removes a client and closes its Send channel. Removing a client
// that is already gone is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := subscribers[client]; !ok {
		return
	}

	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Broadcast delivers an event to every client subscribed to the topic.
// Delivery is fire-and-forget per client: a slow or dead connection is
// skipped and never blocks delivery to the others.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("marshal websocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// Notify implements the Notifier interface.
func (h *Hub) Notify(topic string, event Event) {
	h.Broadcast(topic, event)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subscribers := range h.clients {
		n += len(subscribers)
	}
	return n
}

// TopicCount returns the number of clients subscribed to a topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// Handler — Echo HTTP handler for WebSocket connections
// ---------------------------------------------------------------------------

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler upgrades HTTP connections and binds each to a single topic.
type Handler struct {
	hub *Hub
}

// NewHandler creates a handler bound to the given Hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers one WebSocket endpoint per topic.
func (wsh *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/appointments", wsh.connect(TopicAppointments))
	e.GET("/ws/medications", wsh.connect(TopicMedications))
	e.GET("/ws/prescriptions", wsh.connect(TopicPrescriptions))
}

func (wsh *Handler) connect(topic string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		client := &Client{
			ID:    uuid.New().String(),
			Topic: topic,
			Send:  make(chan []byte, 256),
			conn:  &gorillaConnAdapter{ws},
		}

		wsh.hub.Register(client)

		go wsh.writePump(client)
		go wsh.readPump(client)

		return nil
	}
}

// readPump drains inbound frames. Clients only send keepalives, so every
// message is discarded; a read error means the client disconnected and the
// connection is released from the registry.
func (wsh *Handler) readPump(client *Client) {
	defer func() {
		wsh.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump writes events from the Send channel to the connection. A failed
// write drops the client; Unregister in readPump's defer cleans up when the
// subsequent read fails.
func (wsh *Handler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
