// Package events streams engine activity to websocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
)

const (
	TypeCheckRecorded    = "check.recorded"
	TypeIncidentOpened   = "incident.opened"
	TypeIncidentReminded = "incident.reminded"
	TypeIncidentResolved = "incident.resolved"
	TypeAlertRecorded    = "alert.recorded"

	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Event is one message pushed to subscribers. OwnerID scopes delivery to the
// monitor's owner and is not serialized.
type Event struct {
	Type      string      `json:"type"`
	MonitorID string      `json:"monitor_id"`
	Payload   interface{} `json:"payload"`
	OwnerID   string      `json:"-"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

type envelope struct {
	ownerID string
	data    []byte
}

// Hub fans events out to connected websocket clients
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	broadcast  chan envelope
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader
}

// New creates a hub accepting browser connections from allowedOrigins and localhost
func New(allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser clients
				}
				if allowed["*"] || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				host := u.Hostname()
				return host == "localhost" || host == "127.0.0.1" || host == "::1"
			},
		},
	}
}

// Run serves registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case env := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if c.userID != env.ownerID {
					continue
				}
				select {
				case c.send <- env.data:
				default:
					// slow consumer
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for delivery. It never blocks; events are dropped
// when the queue is full.
func (h *Hub) Publish(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("EventHub: marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- envelope{ownerID: evt.OwnerID, data: data}:
	default:
		log.Printf("EventHub: queue full, dropping %s event for monitor %s", evt.Type, evt.MonitorID)
	}
}

// AlertRecorded publishes every alert audit row
func (h *Hub) AlertRecorded(n alerts.Notification, alert database.Alert) {
	h.Publish(Event{
		Type:      TypeAlertRecorded,
		MonitorID: alert.MonitorID,
		Payload:   alert,
		OwnerID:   n.Info().OwnerID,
	})
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleConnect upgrades the request and subscribes the connection to
// events of monitors owned by userID.
func (h *Hub) HandleConnect(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("EventHub: ws upgrade: %v", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
