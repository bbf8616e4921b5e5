package connectfour

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash"

	"reversi/game"
)

const (
	Rows = 6
	Cols = 7
	win  = 4
)

// Board is a four-in-a-row position. Row 0 is the top row; discs fall towards row Rows-1.
type Board struct {
	cells [Rows * Cols]game.Color
}

func New() Board {
	return Board{}
}

func (b Board) At(p game.Position) game.Color {
	return b.cells[p.Row*Cols+p.Col]
}

// PossibleMoves returns the landing square of every open column, or nothing once the game is over.
func (b Board) PossibleMoves(color game.Color) []game.Position {
	if b.Winner() != game.None {
		return nil
	}
	positions := make([]game.Position, 0, Cols)
	for c := 0; c < Cols; c++ {
		if r := b.landing(c); r >= 0 {
			positions = append(positions, game.Position{Row: r, Col: c})
		}
	}
	return positions
}

func (b Board) landing(col int) int {
	for r := Rows - 1; r >= 0; r-- {
		if b.cells[r*Cols+col] == game.None {
			return r
		}
	}
	return -1
}

// ApplyMove panics unless the move lands on the lowest empty square of its column.
func (b Board) ApplyMove(move game.Move) Board {
	if move.Col < 0 || move.Col >= Cols || b.landing(move.Col) != move.Row {
		panic(fmt.Sprintf("illegal move %v for %v", move.Position, move.Color))
	}
	b.cells[move.Row*Cols+move.Col] = move.Color
	return b
}

func (b Board) IsFinished() bool {
	if b.Winner() != game.None {
		return true
	}
	for c := 0; c < Cols; c++ {
		if b.landing(c) >= 0 {
			return false
		}
	}
	return true
}

var lines = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func (b Board) Winner() game.Color {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			color := b.cells[r*Cols+c]
			if color == game.None {
				continue
			}
			for _, d := range lines {
				if b.run(r, c, d[0], d[1], color) >= win {
					return color
				}
			}
		}
	}
	return game.None
}

func (b Board) run(r, c, dr, dc int, color game.Color) int {
	n := 0
	for r >= 0 && r < Rows && c >= 0 && c < Cols && b.cells[r*Cols+c] == color {
		n++
		r += dr
		c += dc
	}
	return n
}

func (b Board) Hash() uint64 {
	var buf [Rows * Cols]byte
	for i, color := range b.cells {
		buf[i] = byte(color)
	}
	return xxhash.Sum64(buf[:])
}

// Weight favors the central columns, which take part in the most lines.
func Weight(p game.Position) float64 {
	d := p.Col - Cols/2
	if d < 0 {
		d = -d
	}
	return float64(Cols/2 + 1 - d)
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			switch b.cells[r*Cols+c] {
			case game.Black:
				sb.WriteByte('X')
			case game.White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
