package reversi

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"reversi/game"
)

const Size = 8

const (
	notA uint64 = 0xfefefefefefefefe // every column except the first
	notH uint64 = 0x7f7f7f7f7f7f7f7f // every column except the last
)

var ErrInvalidBoard = errors.New("invalid board")

// Board is an 8x8 reversi position stored as one bitboard per color. Bit row*8+col is set
// when the square is occupied. It is a comparable value and safe to use as a map key.
type Board struct {
	black uint64
	white uint64
}

// Initial returns the standard starting position, black to move first.
func Initial() Board {
	return Board{
		black: bit(3, 4) | bit(4, 3),
		white: bit(3, 3) | bit(4, 4),
	}
}

// Parse reads 8 rows of 'X' (black), 'O' (white) and '.' (empty). Whitespace between rows is
// ignored.
func Parse(s string) (Board, error) {
	rows := strings.Fields(s)
	if len(rows) != Size {
		return Board{}, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, Size, len(rows))
	}
	var b Board
	for r, row := range rows {
		if len(row) != Size {
			return Board{}, fmt.Errorf("%w: row %d has %d squares", ErrInvalidBoard, r+1, len(row))
		}
		for c, sq := range row {
			switch sq {
			case 'X', 'x':
				b.black |= bit(r, c)
			case 'O', 'o':
				b.white |= bit(r, c)
			case '.':
			default:
				return Board{}, fmt.Errorf("%w: unexpected square %q", ErrInvalidBoard, sq)
			}
		}
	}
	return b, nil
}

func bit(row, col int) uint64 {
	return 1 << uint(row*Size+col)
}

func (b Board) discs(color game.Color) (own, opp uint64) {
	if color == game.White {
		return b.white, b.black
	}
	return b.black, b.white
}

func (b Board) At(p game.Position) game.Color {
	m := bit(p.Row, p.Col)
	switch {
	case b.black&m != 0:
		return game.Black
	case b.white&m != 0:
		return game.White
	default:
		return game.None
	}
}

func (b Board) Count(color game.Color) int {
	own, _ := b.discs(color)
	return bits.OnesCount64(own)
}

func (b Board) PossibleMoves(color game.Color) []game.Position {
	own, opp := b.discs(color)
	legal := moves(own, opp)
	positions := make([]game.Position, 0, bits.OnesCount64(legal))
	for legal != 0 {
		i := bits.TrailingZeros64(legal)
		positions = append(positions, game.Position{Row: i / Size, Col: i % Size})
		legal &= legal - 1
	}
	return positions
}

// ApplyMove panics on an illegal move.
func (b Board) ApplyMove(move game.Move) Board {
	own, opp := b.discs(move.Color)
	m := bit(move.Row, move.Col)
	f := flips(own, opp, m)
	if (own|opp)&m != 0 || f == 0 {
		panic(fmt.Sprintf("illegal move %v for %v", move.Position, move.Color))
	}
	own |= m | f
	opp &^= f
	if move.Color == game.White {
		return Board{black: opp, white: own}
	}
	return Board{black: own, white: opp}
}

func (b Board) IsFinished() bool {
	return moves(b.black, b.white) == 0 && moves(b.white, b.black) == 0
}

func (b Board) Winner() game.Color {
	black, white := bits.OnesCount64(b.black), bits.OnesCount64(b.white)
	switch {
	case black > white:
		return game.Black
	case white > black:
		return game.White
	default:
		return game.None
	}
}

func (b Board) Hash() uint64 {
	return hash(b.black, b.white)
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch b.At(game.Position{Row: r, Col: c}) {
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

type shiftFn func(uint64) uint64

var directions = [8]shiftFn{
	func(x uint64) uint64 { return (x << 1) & notA }, // east
	func(x uint64) uint64 { return (x >> 1) & notH }, // west
	func(x uint64) uint64 { return x << 8 },          // south
	func(x uint64) uint64 { return x >> 8 },          // north
	func(x uint64) uint64 { return (x << 9) & notA }, // south east
	func(x uint64) uint64 { return (x << 7) & notH }, // south west
	func(x uint64) uint64 { return (x >> 7) & notA }, // north east
	func(x uint64) uint64 { return (x >> 9) & notH }, // north west
}

func moves(own, opp uint64) uint64 {
	empty := ^(own | opp)
	var legal uint64
	for _, shift := range directions {
		x := shift(own) & opp
		for i := 0; i < Size-3; i++ {
			x |= shift(x) & opp
		}
		legal |= shift(x) & empty
	}
	return legal
}

func flips(own, opp, m uint64) uint64 {
	var flipped uint64
	for _, shift := range directions {
		var line uint64
		x := shift(m)
		for x != 0 && x&opp != 0 {
			line |= x
			x = shift(x)
		}
		if x&own != 0 {
			flipped |= line
		}
	}
	return flipped
}
