// internal/server/hub.go
package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// client is a single live connection's outbound side. The id stays uuid.Nil
// until the connection's join event is accepted.
type client struct {
	id  uuid.UUID
	out chan any
}

// write pushes a payload onto the client's outbound channel without
// blocking. A full or abandoned channel drops the payload.
func (c *client) write(payload any, log *logrus.Logger) {
	select {
	case c.out <- payload:
	default:
		log.WithField("player", c.id).Warn("outbound channel full, dropping payload")
	}
}

// Hub tracks every joined connection and implements router.Transport.
// All sends are best-effort and non-blocking.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*client
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		log:     log,
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) remove(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// Unicast sends to one participant's connection, silently dropping the
// payload if the connection is not currently open.
func (h *Hub) Unicast(id uuid.UUID, payload any) {
	h.mu.Lock()
	c, ok := h.clients[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	c.write(payload, h.log)
}

// Broadcast sends to every open connection except exclude (uuid.Nil to
// exclude nobody).
func (h *Hub) Broadcast(payload any, exclude uuid.UUID) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		if id == exclude {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.write(payload, h.log)
	}
}
