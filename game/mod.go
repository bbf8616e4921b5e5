package game

import "fmt"

// Color identifies a side. None is also used as the draw marker returned by Board.Winner.
type Color int8

const (
	None Color = iota
	Black
	White
)

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return None
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "none"
	}
}

type Position struct {
	Row int
	Col int
}

func (p Position) String() string {
	return fmt.Sprintf("%c%d", 'a'+rune(p.Col), p.Row+1)
}

// Move is a position played by a color.
type Move struct {
	Position
	Color Color
}

// Board should be immutable - ApplyMove always returns a new value. Boards are used as map keys
// across goroutines, so two boards that represent the same position must compare equal and
// return the same Hash regardless of the move order that produced them.
type Board[B any] interface {
	comparable
	PossibleMoves(color Color) []Position
	ApplyMove(move Move) B
	IsFinished() bool
	// Winner returns None on a draw
	Winner() Color
	Hash() uint64
}

// Evaluate scores a board between -1 and 1 indicating how favorable the position is to color.
type Evaluate[B any] func(board B, color Color) float64
