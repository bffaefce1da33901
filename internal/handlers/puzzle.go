// internal/handlers/puzzle.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sudoku-arena/arena/internal/puzzles"
)

// NewPuzzleHandler serves a fresh puzzle for the requested difficulty:
// GET /puzzle/new?difficulty=easy|medium|hard. Both fields start out equal;
// the client mutates its working copy while the initial grid stays fixed.
func NewPuzzleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		difficulty := puzzles.Difficulty(r.URL.Query().Get("difficulty"))
		p := puzzles.Generate(difficulty)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"puzzle":        p,
			"initialPuzzle": p,
		})
	}
}
