// internal/puzzles/puzzles.go

// Package puzzles is the puzzle source collaborator for the relay. It hands
// out pre-rated grids as opaque 81-character strings ('.' for blanks); the
// relay core never inspects them beyond non-emptiness.
package puzzles

import "math/rand/v2"

// Difficulty selects which bank a puzzle is drawn from.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// banks holds the curated grids per difficulty. Each entry encodes a 9x9
// board row by row, digits for givens and '.' for blanks.
var banks = map[Difficulty][]string{
	Easy: {
		"53..7....6..195....98....6.8...6...34..8.3..17...2...6.6....28....419..5....8..79",
		"..3.2.6..9..3.5..1..18.64....81.29..7.......8..67.82....26.95..8..2.3..9..5.1.3..",
	},
	Medium: {
		"..9748...7.........2.1.9.....7...24..64.1.59..98...3.....8.3.2.........6...2759..",
	},
	Hard: {
		"4.....8.5.3..........7......2.....6.....8.4......1.......6.3.7.5..2.....1.4......",
		"8..........36......7..9.2...5...7.......457.....1...3...1....68..85...1..9....4..",
	},
}

// Generate returns a puzzle string for the requested difficulty. The initial
// (given-cells) encoding of a fresh puzzle is identical to the puzzle itself;
// the two diverge client-side as moves are made. An unknown difficulty falls
// back to easy.
func Generate(d Difficulty) string {
	bank, ok := banks[d]
	if !ok {
		bank = banks[Easy]
	}
	return bank[rand.IntN(len(bank))]
}
