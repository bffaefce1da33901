// internal/handlers/puzzle_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPuzzleHandlerServesPuzzle(t *testing.T) {
	req := httptest.NewRequest("GET", "/puzzle/new?difficulty=hard", nil)
	w := httptest.NewRecorder()
	NewPuzzleHandler()(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body["puzzle"], 81)
	require.Equal(t, body["puzzle"], body["initialPuzzle"])
}

func TestNewPuzzleHandlerUnknownDifficultyFallsBack(t *testing.T) {
	req := httptest.NewRequest("GET", "/puzzle/new?difficulty=nightmare", nil)
	w := httptest.NewRecorder()
	NewPuzzleHandler()(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body["puzzle"], 81)
}

func TestNewPuzzleHandlerRejectsPost(t *testing.T) {
	req := httptest.NewRequest("POST", "/puzzle/new", nil)
	w := httptest.NewRecorder()
	NewPuzzleHandler()(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
