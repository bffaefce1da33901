// internal/arena/errors.go
package arena

import "errors"

var (
	// ErrInvalidPayload indicates a create request with a missing puzzle payload.
	ErrInvalidPayload = errors.New("puzzle payload is missing or empty")

	// ErrRoomNotFound indicates the requested room id has no live room.
	ErrRoomNotFound = errors.New("room does not exist")

	// ErrRoomFull indicates the room already holds two participants.
	ErrRoomFull = errors.New("room is full")

	// ErrCapacityExhausted indicates room id generation ran out of retries.
	// With a six digit token space this is practically unreachable.
	ErrCapacityExhausted = errors.New("room id generation retries exhausted")
)

// JoinFailedMessage is the client-facing message for a failed join. The wire
// protocol reports not-found and full with the same message.
const JoinFailedMessage = "Room is full or does not exist."
