// Package notify broadcasts highlight removals across contexts: when a
// record is removed in one place, every connected listener is told to drop
// the matching markers. Delivery is best-effort; a listener that is not
// connected simply misses the message and reconciles on its next restore.
package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Removal tells listeners to drop every marker of a canonical form on a
// page.
type Removal struct {
	Type string `json:"type"` // always "removal"
	Page string `json:"page"` // page identity (origin+path)
	Key  string `json:"key"`  // canonical form (lemma or literal text)
}

type conn struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
}

// Hub maintains active listener connections and fans removal messages out
// to all of them. The clients map is touched only by the Run goroutine.
type Hub struct {
	clients    map[*conn]bool
	broadcast  chan []byte
	register   chan *conn
	unregister chan *conn
	upgrader   websocket.Upgrader
	verbose    bool
}

// NewHub creates a hub. Run must be called before serving connections.
func NewHub(verbose bool) *Hub {
	return &Hub{
		clients:    make(map[*conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *conn),
		unregister: make(chan *conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Listeners are browser extension contexts on arbitrary pages.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		verbose: verbose,
	}
}

// Run handles registration and broadcasting until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			if h.verbose {
				fmt.Fprintf(os.Stderr, "notify: listener connected (%d total)\n", len(h.clients))
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			if h.verbose {
				fmt.Fprintf(os.Stderr, "notify: listener disconnected (%d total)\n", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Listener not draining, drop it.
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Broadcast fans a removal out to every connected listener. Messages are
// dropped, never blocked on, when the hub is saturated.
func (h *Hub) Broadcast(msg Removal) {
	if msg.Type == "" {
		msg.Type = "removal"
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- data:
	default:
		if h.verbose {
			fmt.Fprintf(os.Stderr, "notify: broadcast channel full, dropping message\n")
		}
	}
}

// ServeHTTP upgrades the request to a websocket and attaches it to the
// hub. Messages received from the peer are treated as removals to relay,
// so a publisher and a listener use the same endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &conn{hub: h, ws: ws, send: make(chan []byte, 16)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *conn) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.ws.Close()
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg Removal
		if err := json.Unmarshal(data, &msg); err != nil || msg.Key == "" {
			continue
		}
		c.hub.Broadcast(msg)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
