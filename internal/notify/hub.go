package notify

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gofer/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The websocket endpoint sits behind the platform's edge; origin
	// enforcement happens there.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Hub pushes events over per-user websocket connections. A user with no
// connection simply misses the push; the order state in Postgres stays the
// source of truth.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[types.ID]*client
}

type client struct {
	userID   types.ID
	conn     *websocket.Conn
	egress   chan envelope
	done     chan struct{}
	stopOnce sync.Once
}

func (c *client) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[types.ID]*client),
	}
}

// HandleConnection upgrades the request and registers the connection under
// userID, replacing any previous one (one live connection per user).
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID types.ID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	c := &client{
		userID: userID,
		conn:   conn,
		egress: make(chan envelope, sendBufferSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if prev, ok := h.clients[userID]; ok {
		prev.stop()
	}
	h.clients[userID] = c
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) NewJob(ctx context.Context, offer JobOffer) {
	h.send(offer.CourierID, envelope{Type: "new_job", Payload: offer})
}

func (h *Hub) OrderStatusChanged(ctx context.Context, customerID types.ID, orderNumber string, newStatus string) {
	h.send(customerID, envelope{Type: "order_status", Payload: StatusChange{
		CustomerID:  customerID,
		OrderNumber: orderNumber,
		NewStatus:   newStatus,
	}})
}

func (h *Hub) send(userID types.ID, env envelope) {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("no live connection, dropping event", "user_id", userID, "type", env.Type)
		return
	}
	select {
	case c.egress <- env:
	default:
		h.log.Warn("client send buffer full, dropping event", "user_id", userID, "type", env.Type)
	}
}

func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.egress:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				h.log.Debug("websocket write failed", "user_id", c.userID, "error", err)
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards inbound frames; its job is to notice the close.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if current, ok := h.clients[c.userID]; ok && current == c {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()
	c.stop()
}
