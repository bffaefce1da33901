// internal/arena/manager.go
package arena

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sudoku-arena/arena/internal/journal"
)

// Emitter delivers outbound events to live connections. Implemented by the
// websocket connection registry; faked in tests.
type Emitter interface {
	Send(conn uuid.UUID, ev Event)
}

// Manager owns the room lifecycle: creating rooms, admitting joiners,
// removing participants, and deleting empty rooms. All room-state mutation
// goes through the RoomStore's atomic operations; notification fan-out
// happens strictly after a mutation commits, so a slow downstream connection
// never stalls the store.
type Manager struct {
	store *RoomStore
	emit  Emitter
	log   *logrus.Logger
}

// NewManager wires a Manager over the given store and emitter.
func NewManager(store *RoomStore, emit Emitter, log *logrus.Logger) *Manager {
	return &Manager{store: store, emit: emit, log: log}
}

// CreateRoom validates the payloads, allocates a room with the creator as
// its sole participant, and confirms with a roomCreated event. Failures are
// reported only to the requesting connection.
func (m *Manager) CreateRoom(conn uuid.UUID, puzzle, initialPuzzle string) {
	if puzzle == "" || initialPuzzle == "" {
		m.log.Warnf("Rejected createRoom from %s: %v", conn, ErrInvalidPayload)
		m.emit.Send(conn, ErrorEvent("A puzzle payload is required to create a room."))
		return
	}

	// A connection occupies at most one room; a successful create moves it
	// out of its old one atomically, and the departure is announced below.
	room, dep, err := m.store.Create(puzzle, initialPuzzle, conn)
	if err != nil {
		m.log.Errorf("Room creation failed for %s: %v", conn, err)
		m.emit.Send(conn, ErrorEvent("Could not create a room, please try again."))
		return
	}
	m.notifyDeparture(conn, dep)

	m.log.Infof("Room %s created by %s", room.ID, conn)
	m.emit.Send(conn, Event{Type: EventRoomCreated, RoomID: room.ID})
	m.journal(room.ID, conn, "room_created")
}

// JoinRoom admits conn into the requested room and broadcasts the match
// snapshot to all participants, creator included, signalling the start for
// both sides at once. Not-found and full are reported to the joiner with the
// same message; the existing participants see nothing, and a failed join
// leaves every room — including one the joiner already occupies — untouched.
func (m *Manager) JoinRoom(conn uuid.UUID, roomID string) {
	snap, recipients, dep, err := m.store.Join(roomID, conn)
	if err != nil {
		m.log.Warnf("Join of room %s by %s rejected: %v", roomID, conn, err)
		m.emit.Send(conn, ErrorEvent(JoinFailedMessage))
		return
	}
	m.notifyDeparture(conn, dep)

	m.log.Infof("Client %s joined room %s", conn, roomID)
	for _, id := range recipients {
		m.emit.Send(id, Event{
			Type:          EventGameStart,
			Puzzle:        snap.Puzzle,
			InitialPuzzle: snap.InitialPuzzle,
			RoomID:        snap.RoomID,
		})
	}
	m.journal(roomID, conn, "game_start")
}

// LeaveRoom removes conn from the given room, deleting the room if it became
// empty and notifying the remaining participant otherwise. Idempotent: a
// second call for the same connection is a no-op.
func (m *Manager) LeaveRoom(roomID string, conn uuid.UUID) {
	remaining, removed := m.store.Remove(roomID, conn)
	if !removed {
		return
	}
	m.afterDeparture(roomID, conn, remaining)
}

// HandleDisconnect is invoked by the transport when a connection drops. It
// finds the connection's room through the reverse index and performs the
// same removal as LeaveRoom. Robust to connections that are in no room, and
// never propagates an error: this runs on a teardown path with nobody left
// to observe a failure.
func (m *Manager) HandleDisconnect(conn uuid.UUID) {
	roomID, remaining, removed := m.store.RemoveConn(conn)
	if !removed {
		return
	}
	m.afterDeparture(roomID, conn, remaining)
}

func (m *Manager) afterDeparture(roomID string, conn uuid.UUID, remaining []uuid.UUID) {
	if len(remaining) == 0 {
		m.log.Infof("Room %s is empty and has been deleted", roomID)
	} else {
		for _, id := range remaining {
			m.emit.Send(id, Event{Type: EventOpponentLeft})
		}
	}
	m.journal(roomID, conn, "player_left")
}

// notifyDeparture announces the room conn implicitly left while moving into
// a new one.
func (m *Manager) notifyDeparture(conn uuid.UUID, dep Departure) {
	if !dep.Left {
		return
	}
	m.afterDeparture(dep.RoomID, conn, dep.Remaining)
}

// journal records a lifecycle event to the match journal, best effort.
func (m *Manager) journal(roomID string, conn uuid.UUID, eventType string) {
	if !journal.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := journal.Publish(ctx, journal.MatchEventRecord{
		RoomID:    roomID,
		ConnID:    conn,
		EventType: eventType,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		m.log.Warnf("Journal publish failed for room %s: %v", roomID, err)
	}
}
