// internal/arena/dispatcher.go
package arena

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sudoku-arena/arena/internal/journal"
)

// Dispatcher routes move and game-over events to the other participants of
// a room. It is a dumb pipe: payloads pass through uninspected, and no game
// correctness is validated. A relay against a room that no longer exists is
// an expected race with teardown and is silently dropped.
type Dispatcher struct {
	store *RoomStore
	emit  Emitter
	log   *logrus.Logger
}

// NewDispatcher wires a Dispatcher over the given store and emitter.
func NewDispatcher(store *RoomStore, emit Emitter, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{store: store, emit: emit, log: log}
}

// RelayMove forwards puzzleState to every participant of roomID except the
// sender.
func (d *Dispatcher) RelayMove(roomID string, sender uuid.UUID, puzzleState json.RawMessage) {
	others, ok := d.store.Others(roomID, sender)
	if !ok {
		d.log.Debugf("Dropping move for vanished room %s from %s", roomID, sender)
		return
	}
	for _, id := range others {
		d.emit.Send(id, Event{Type: EventOpponentMove, PuzzleState: puzzleState})
	}
	d.journal(roomID, sender, "player_move", puzzleState)
}

// RelayGameOver forwards the terminal opponent-won signal to every other
// participant of roomID.
func (d *Dispatcher) RelayGameOver(roomID string, sender uuid.UUID) {
	others, ok := d.store.Others(roomID, sender)
	if !ok {
		d.log.Debugf("Dropping game over for vanished room %s from %s", roomID, sender)
		return
	}
	for _, id := range others {
		d.emit.Send(id, Event{Type: EventOpponentWon})
	}
	d.journal(roomID, sender, "game_over", nil)
}

func (d *Dispatcher) journal(roomID string, conn uuid.UUID, eventType string, payload json.RawMessage) {
	if !journal.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := journal.Publish(ctx, journal.MatchEventRecord{
		RoomID:    roomID,
		ConnID:    conn,
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		d.log.Warnf("Journal publish failed for room %s: %v", roomID, err)
	}
}
