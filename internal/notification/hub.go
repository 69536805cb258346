package notification

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wellness/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// Message is what a client receives. Customers get the gated status.
type Message struct {
	Type          string               `json:"type"`
	BookingID     string               `json:"booking_id"`
	Status        domain.BookingStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	At            time.Time            `json:"at"`
}

type connection struct {
	actor domain.Actor
	conn  *websocket.Conn
	send  chan []byte
}

// Hub keeps the live websocket connections per user.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*connection]struct{}
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]map[*connection]struct{}),
		log:         log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.actor.ID]
	if !ok {
		set = make(map[*connection]struct{})
		h.connections[c.actor.ID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.actor.ID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.connections, c.actor.ID)
	}
}

// Deliver pushes ev to everyone allowed to see it.
func (h *Hub) Deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*connection]bool)
	push := func(c *connection, msg Message) {
		if seen[c] {
			return
		}
		seen[c] = true
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug("ws client too slow, dropping event",
				zap.String("user_id", c.actor.ID),
				zap.String("type", ev.Type))
		}
	}

	full := Message{Type: ev.Type, BookingID: ev.BookingID, Status: ev.Status, PaymentStatus: ev.PaymentStatus, At: ev.At}

	for _, uid := range []string{ev.BusinessOwnerID, ev.TherapistID} {
		if uid == "" {
			continue
		}
		for c := range h.connections[uid] {
			push(c, full)
		}
	}

	if customerMayKnow(ev) {
		gated := full
		gated.Status = ev.CustomerStatus
		for c := range h.connections[ev.CustomerID] {
			push(c, gated)
		}
	}

	for _, set := range h.connections {
		for c := range set {
			if c.actor.IsAdmin() {
				push(c, full)
			}
		}
	}
}

// customerMayKnow hides a therapist's answer until the business releases it.
func customerMayKnow(ev Event) bool {
	return !(ev.BusinessOnly && ev.Type == TypeTherapistResponded)
}

// Serve registers conn for actor and blocks until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn, actor domain.Actor) {
	c := &connection{
		actor: actor,
		conn:  conn,
		send:  make(chan []byte, 64),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// push-only: client frames are read just to notice disconnects
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("ws read error", zap.String("user_id", c.actor.ID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
