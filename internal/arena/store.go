// internal/arena/store.go
package arena

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// maxIDAttempts bounds room id generation retries before giving up with
// ErrCapacityExhausted.
const maxIDAttempts = 10

// RoomStore manages all live rooms in memory. It is the sole owner of the
// room map and of the reverse index mapping a connection to the room it
// occupies; both are mutated together under one lock, so the check-then-write
// steps of create, join and leave are atomic. No caller touches the maps
// directly.
type RoomStore struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	byConn map[uuid.UUID]string

	// idFn generates candidate room ids; replaced in tests to force collisions.
	idFn func() string
}

// NewRoomStore initializes and returns an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[string]*Room),
		byConn: make(map[uuid.UUID]string),
		idFn:   newRoomID,
	}
}

// newRoomID returns a six digit numeric token.
func newRoomID() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// Departure describes the room a connection implicitly left because a
// create or join moved it elsewhere. Zero value means nothing was left.
type Departure struct {
	RoomID    string
	Remaining []uuid.UUID
	Left      bool
}

// Create allocates a fresh collision-checked room id and inserts a room
// holding only the creator. If the creator already occupies a room it is
// moved out in the same critical section, keeping the single-membership
// invariant; the returned Departure says which room it left. On error
// nothing is mutated.
func (s *RoomStore) Create(puzzle, initialPuzzle string, creator uuid.UUID) (Room, Departure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for i := 0; ; i++ {
		if i >= maxIDAttempts {
			return Room{}, Departure{}, ErrCapacityExhausted
		}
		id = s.idFn()
		if _, taken := s.rooms[id]; !taken {
			break
		}
	}

	dep := s.departLocked(creator)

	room := &Room{
		ID:            id,
		Participants:  []uuid.UUID{creator},
		Puzzle:        puzzle,
		InitialPuzzle: initialPuzzle,
	}
	s.rooms[id] = room
	s.byConn[creator] = id
	return *room, dep, nil
}

// Join appends joiner to the room's participant list and returns the match
// snapshot along with every participant it should be broadcast to. The
// capacity check and the append happen under the store lock, so two
// concurrent joiners can never both win the second slot. All validation
// precedes any mutation: a failed join leaves both the target room and the
// joiner's current room, if any, untouched. On success the joiner is moved
// out of its current room in the same critical section.
func (s *RoomStore) Join(roomID string, joiner uuid.UUID) (Snapshot, []uuid.UUID, Departure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return Snapshot{}, nil, Departure{}, ErrRoomNotFound
	}
	if len(room.Participants) >= MaxParticipants {
		return Snapshot{}, nil, Departure{}, ErrRoomFull
	}
	// Rejoining the room you already occupy would duplicate the slot.
	if cur, ok := s.byConn[joiner]; ok && cur == roomID {
		return Snapshot{}, nil, Departure{}, ErrRoomFull
	}

	dep := s.departLocked(joiner)

	room.Participants = append(room.Participants, joiner)
	s.byConn[joiner] = roomID

	recipients := make([]uuid.UUID, len(room.Participants))
	copy(recipients, room.Participants)
	return room.snapshot(), recipients, dep, nil
}

// departLocked removes conn from whatever room it currently occupies.
func (s *RoomStore) departLocked(conn uuid.UUID) Departure {
	cur, ok := s.byConn[conn]
	if !ok {
		return Departure{}
	}
	remaining, removed := s.removeLocked(cur, conn)
	return Departure{RoomID: cur, Remaining: remaining, Left: removed}
}

// Remove takes conn out of the given room if present. The room is deleted in
// the same critical section the moment it becomes empty. Returns the
// remaining participants and whether anything was removed; calling for an
// absent connection or room is a no-op.
func (s *RoomStore) Remove(roomID string, conn uuid.UUID) (remaining []uuid.UUID, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(roomID, conn)
}

// RemoveConn is the disconnect path: it finds conn's room through the
// reverse index and performs the same removal. No-op for connections that
// are not in any room.
func (s *RoomStore) RemoveConn(conn uuid.UUID) (roomID string, remaining []uuid.UUID, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.byConn[conn]
	if !ok {
		return "", nil, false
	}
	remaining, removed = s.removeLocked(roomID, conn)
	return roomID, remaining, removed
}

func (s *RoomStore) removeLocked(roomID string, conn uuid.UUID) (remaining []uuid.UUID, removed bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	for i, id := range room.Participants {
		if id == conn {
			room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
			delete(s.byConn, conn)
			removed = true
			break
		}
	}
	if !removed {
		return nil, false
	}
	if len(room.Participants) == 0 {
		delete(s.rooms, roomID)
		return nil, true
	}
	remaining = make([]uuid.UUID, len(room.Participants))
	copy(remaining, room.Participants)
	return remaining, true
}

// Others returns every participant of roomID except sender. The second
// return is false when the room does not exist; a relay racing a deleted
// room treats that as a silent no-op.
func (s *RoomStore) Others(roomID string, sender uuid.UUID) ([]uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.others(sender), true
}

// RoomOf reports which room, if any, conn currently occupies.
func (s *RoomStore) RoomOf(conn uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byConn[conn]
	return id, ok
}

// Get returns a copy of the room with the given id.
func (s *RoomStore) Get(id string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	cp := *room
	cp.Participants = make([]uuid.UUID, len(room.Participants))
	copy(cp.Participants, room.Participants)
	return cp, true
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
