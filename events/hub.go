// Package events pushes order and notification changes to websocket
// subscribers.
package events

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/delivery-services/utils"
)

const (
	EventOrderCreated     = "order_created"
	EventOrderUpdated     = "order_updated"
	EventOrderDeleted     = "order_deleted"
	EventNotificationSent = "notification_sent"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// client is one subscriber. Only its writePump touches the connection for
// writing; the hub hands it messages through send.
type client struct {
	conn   *websocket.Conn
	filter map[string]bool
	send   chan []byte
}

func (c *client) wants(event string) bool {
	return len(c.filter) == 0 || c.filter[event]
}

func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.Printf("Error writing event to client: %v", err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub holds the connected clients. A client may subscribe to a subset of
// events with ?events=a,b; an empty set means all events.
type Hub struct {
	clients  map[*client]bool
	mutex    sync.Mutex
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) register(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(c)
}

// drop must be called with the mutex held. Closing send stops the client's
// writePump, which closes the connection.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish queues an event for every subscribed client without waiting on
// the network. A client whose queue is full is dropped.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s event: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		if !c.wants(event) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			utils.ErrorLogger.Printf("Client too slow for %s event, dropping it", event)
			h.drop(c)
		}
	}
}

// Handler upgrades GET /events/ws and keeps the client until it disconnects.
func (h *Hub) Handler(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &client{
		conn:   ws,
		filter: parseFilter(c.Query("events")),
		send:   make(chan []byte, sendBuffer),
	}
	h.register(cl)
	go cl.writePump()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(cl)
}

func parseFilter(raw string) map[string]bool {
	filter := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			filter[name] = true
		}
	}
	return filter
}
