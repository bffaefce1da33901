// internal/arena/events.go
package arena

import "encoding/json"

// Inbound event names. Every message a client sends carries one of these in
// its "type" field.
const (
	ActionCreateRoom = "createRoom"
	ActionJoinRoom   = "joinRoom"
	ActionPlayerMove = "playerMove"
	ActionGameOver   = "gameOver"
	ActionLeaveRoom  = "leaveRoom"
)

// Outbound event names produced by the Manager and Dispatcher.
const (
	EventRoomCreated  = "roomCreated"
	EventGameStart    = "gameStart"
	EventOpponentMove = "opponentMove"
	EventOpponentWon  = "opponentWon"
	EventOpponentLeft = "opponentLeft"
	EventError        = "error"
)

// Envelope is the single inbound message shape. The gateway decodes each
// frame into it once and dispatches on Type; which of the remaining fields
// are meaningful depends on the action.
type Envelope struct {
	Type          string          `json:"type"`
	Puzzle        string          `json:"puzzle,omitempty"`
	InitialPuzzle string          `json:"initialPuzzle,omitempty"`
	RoomID        string          `json:"roomId,omitempty"`
	PuzzleState   json.RawMessage `json:"puzzleState,omitempty"`
}

// Event is a single outbound protocol message. PuzzleState is carried as raw
// JSON; the relay never inspects it.
type Event struct {
	Type          string          `json:"type"`
	RoomID        string          `json:"roomId,omitempty"`
	Puzzle        string          `json:"puzzle,omitempty"`
	InitialPuzzle string          `json:"initialPuzzle,omitempty"`
	PuzzleState   json.RawMessage `json:"puzzleState,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// ErrorEvent builds the non-fatal error event sent back to a requesting
// connection.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
