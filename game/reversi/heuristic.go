package reversi

import (
	"math/bits"

	"reversi/game"
)

// weights holds a static positional value per square. Every value is positive so the table can
// drive proportional sampling.
var weights = [Size][Size]float64{
	{100, 10, 40, 30, 30, 40, 10, 100},
	{10, 1, 5, 5, 5, 5, 1, 10},
	{40, 5, 20, 10, 10, 20, 5, 40},
	{30, 5, 10, 2, 2, 10, 5, 30},
	{30, 5, 10, 2, 2, 10, 5, 30},
	{40, 5, 20, 10, 10, 20, 5, 40},
	{10, 1, 5, 5, 5, 5, 1, 10},
	{100, 10, 40, 30, 30, 40, 10, 100},
}

func Weight(p game.Position) float64 {
	return weights[p.Row][p.Col]
}

// Corners are never capturable once taken.
func Corners() []game.Position {
	return []game.Position{
		{Row: 0, Col: 0},
		{Row: 0, Col: Size - 1},
		{Row: Size - 1, Col: 0},
		{Row: Size - 1, Col: Size - 1},
	}
}

// Evaluate averages the disc balance and the mobility balance, from color's perspective.
func Evaluate(b Board, color game.Color) float64 {
	own, opp := b.discs(color)
	discScore := game.Normalize(float64(bits.OnesCount64(own)), float64(bits.OnesCount64(opp)))
	mobilityScore := game.Normalize(
		float64(bits.OnesCount64(moves(own, opp))),
		float64(bits.OnesCount64(moves(opp, own))),
	)
	return (discScore + mobilityScore) / 2
}
