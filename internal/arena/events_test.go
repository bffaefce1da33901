// internal/arena/events_test.go
package arena

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecodesPlayerMove(t *testing.T) {
	raw := `{"type":"playerMove","roomId":"123456","puzzleState":[5,3,null,7]}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.Equal(t, ActionPlayerMove, env.Type)
	require.Equal(t, "123456", env.RoomID)
	require.JSONEq(t, `[5,3,null,7]`, string(env.PuzzleState))
}

func TestErrorEventWireShape(t *testing.T) {
	data, err := json.Marshal(ErrorEvent("Room is full or does not exist."))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"error","message":"Room is full or does not exist."}`, string(data))
}

func TestEventOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventOpponentLeft})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"opponentLeft"}`, string(data))
}
