// internal/handlers/registry_test.go
package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sudoku-arena/arena/internal/arena"
)

func TestRegistryDeliversToRegisteredConn(t *testing.T) {
	reg := NewConnRegistry()
	conn := &ClientConn{ID: uuid.New(), OutChan: make(chan arena.Event, 4)}
	reg.Register(conn)
	require.Equal(t, 1, reg.Len())

	reg.Send(conn.ID, arena.Event{Type: arena.EventOpponentLeft})

	select {
	case ev := <-conn.OutChan:
		require.Equal(t, arena.EventOpponentLeft, ev.Type)
	default:
		t.Fatal("expected event on OutChan")
	}
}

func TestRegistrySendToUnknownConnIsNoop(t *testing.T) {
	reg := NewConnRegistry()
	reg.Send(uuid.New(), arena.Event{Type: arena.EventOpponentWon})
	require.Equal(t, 0, reg.Len())
}

func TestRegistryUnregisterStopsDelivery(t *testing.T) {
	reg := NewConnRegistry()
	conn := &ClientConn{ID: uuid.New(), OutChan: make(chan arena.Event, 4)}
	reg.Register(conn)
	reg.Unregister(conn.ID)

	reg.Send(conn.ID, arena.Event{Type: arena.EventOpponentWon})
	require.Empty(t, conn.OutChan)
	require.Equal(t, 0, reg.Len())
}

// A slow consumer must never block a broadcast; the write drops instead.
func TestClientConnWriteDropsWhenFull(t *testing.T) {
	conn := &ClientConn{ID: uuid.New(), OutChan: make(chan arena.Event, 1)}
	conn.Write(arena.Event{Type: arena.EventOpponentMove})

	// Nobody is draining OutChan; this must return immediately and drop.
	conn.Write(arena.Event{Type: arena.EventOpponentMove})
	require.Len(t, conn.OutChan, 1)
}
