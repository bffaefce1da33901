// internal/handlers/registry.go
package handlers

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/sudoku-arena/arena/internal/arena"
)

// ClientConn is a single client's live presence on the relay. Outbound
// events are queued on OutChan and drained by the connection's write pump.
type ClientConn struct {
	ID      uuid.UUID
	Cancel  context.CancelFunc
	OutChan chan arena.Event
}

// Write pushes an event onto the connection's OutChan non-blockingly. Logs
// if the channel is full and the event is dropped.
func (c *ClientConn) Write(ev arena.Event) {
	select {
	case c.OutChan <- ev:
	default:
		log.Printf("ClientConn Write WARNING: OutChan for %s full. Dropped event type '%s'.", c.ID, ev.Type)
	}
}

// ConnRegistry tracks every live connection by its transport-assigned
// identifier. It implements arena.Emitter; sending to an unknown connection
// is a no-op, which covers the race between a broadcast and a disconnect.
type ConnRegistry struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*ClientConn
}

// NewConnRegistry initializes and returns an empty ConnRegistry.
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		conns: make(map[uuid.UUID]*ClientConn),
	}
}

// Register adds a connection to the registry.
func (r *ConnRegistry) Register(conn *ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
}

// Unregister removes a connection from the registry.
func (r *ConnRegistry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Send delivers an event to the connection with the given id, if it is
// still registered.
func (r *ConnRegistry) Send(id uuid.UUID, ev arena.Event) {
	r.mu.Lock()
	conn, ok := r.conns[id]
	r.mu.Unlock()
	if !ok {
		return
	}
	conn.Write(ev)
}

// Len returns the number of live connections.
func (r *ConnRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
