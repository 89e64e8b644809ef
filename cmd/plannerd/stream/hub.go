// Package stream broadcasts WorldState fact-change notifications to
// websocket clients, the way the teacher's cmd/game-server/websocket.Hub
// fans game messages out to connected players. A Relay adapts a Hub
// into a worldstate.Observer for one problem id; cmd/plannerd registers
// one on each problem's WorldState.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"mud-platform-backend/internal/fact"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the JSON envelope sent to every connected client.
type Message struct {
	ProblemID string   `json:"problem_id"`
	Kind      string   `json:"kind"` // "added" | "removed" | "punctual"
	Facts     []string `json:"facts"`
}

// client is one connected websocket subscriber, scoped to a single
// problem id.
type client struct {
	problemID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub tracks every connected client and fans out problem-scoped
// fact-change batches to the ones subscribed to that problem.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// ServeWS upgrades the request to a websocket connection subscribed to
// problemID's fact-change stream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, problemID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("stream: websocket upgrade failed")
		return
	}

	c := &client{problemID: problemID, conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
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
				c.conn.WriteMessage(websocket.CloseMessage, nil)
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

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast sends a fact-change batch to every client subscribed to
// problemID; every per-problem observer adapter (see Relay) calls into it.
func (h *Hub) broadcast(problemID, kind string, facts []fact.Fact) {
	if len(facts) == 0 {
		return
	}
	names := make([]string, len(facts))
	for i, f := range facts {
		names[i] = f.Name()
	}
	data, err := json.Marshal(Message{ProblemID: problemID, Kind: kind, Facts: names})
	if err != nil {
		log.Error().Err(err).Msg("stream: failed to marshal fact-change message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.problemID != problemID {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Warn().Str("problem_id", problemID).Msg("stream: client send buffer full, dropping message")
		}
	}
}

// Relay adapts a Hub into a worldstate.Observer scoped to one problem
// id, so a Problem's WorldState can register it alongside any other
// observer (spec.md §4.4).
type Relay struct {
	hub       *Hub
	problemID string
}

// NewRelay returns a worldstate.Observer that broadcasts problemID's
// fact changes through hub.
func NewRelay(hub *Hub, problemID string) *Relay {
	return &Relay{hub: hub, problemID: problemID}
}

func (r *Relay) OnFactsAdded(added []fact.Fact)       { r.hub.broadcast(r.problemID, "added", added) }
func (r *Relay) OnFactsRemoved(removed []fact.Fact)   { r.hub.broadcast(r.problemID, "removed", removed) }
func (r *Relay) OnPunctualFacts(punctual []fact.Fact) { r.hub.broadcast(r.problemID, "punctual", punctual) }
