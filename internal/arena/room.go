// internal/arena/room.go
package arena

import "github.com/google/uuid"

// MaxParticipants is the hard capacity of a room. The relay pairs exactly
// two clients; a third join attempt is rejected.
const MaxParticipants = 2

// Room is an ephemeral two-party session pairing connections around one
// shared puzzle payload. Rooms live only in memory and only while at least
// one participant remains.
type Room struct {
	// ID is a short shareable token, also used as the broadcast topic name.
	ID string

	// Participants in join order; index 0 is the creator.
	Participants []uuid.UUID

	// Puzzle and InitialPuzzle are opaque payloads supplied at creation and
	// immutable thereafter. InitialPuzzle encodes the fixed/given cells.
	Puzzle        string
	InitialPuzzle string
}

// Snapshot is the immutable view of a room handed out when a match starts.
type Snapshot struct {
	Puzzle        string
	InitialPuzzle string
	RoomID        string
}

func (r *Room) snapshot() Snapshot {
	return Snapshot{
		Puzzle:        r.Puzzle,
		InitialPuzzle: r.InitialPuzzle,
		RoomID:        r.ID,
	}
}

// others returns every participant except sender.
func (r *Room) others(sender uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.Participants))
	for _, id := range r.Participants {
		if id != sender {
			out = append(out, id)
		}
	}
	return out
}
