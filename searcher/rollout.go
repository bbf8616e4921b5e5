package searcher

import (
	"github.com/samber/lo"
	"golang.org/x/exp/rand"

	"reversi/game"
)

// Rollout picks the move played at each ply of a simulation. moves is never empty. Each worker
// passes its own generator, so implementations must not keep mutable state.
type Rollout interface {
	Choose(moves []game.Position, rng *rand.Rand) game.Position
}

// Random plays uniformly among the legal moves.
type Random struct{}

func (Random) Choose(moves []game.Position, rng *rand.Rand) game.Position {
	return moves[rng.Intn(len(moves))]
}

// Corner plays a corner whenever one is available, otherwise a random move.
type Corner struct {
	corners map[game.Position]struct{}
}

func NewCorner(corners ...game.Position) Corner {
	set := make(map[game.Position]struct{}, len(corners))
	for _, c := range corners {
		set[c] = struct{}{}
	}
	return Corner{corners: set}
}

func (c Corner) Choose(moves []game.Position, rng *rand.Rand) game.Position {
	available := lo.Filter(moves, func(p game.Position, _ int) bool {
		_, ok := c.corners[p]
		return ok
	})
	if len(available) > 0 {
		return available[rng.Intn(len(available))]
	}
	return moves[rng.Intn(len(moves))]
}

// Weighted plays a move with probability proportional to its static weight.
type Weighted struct {
	weight func(game.Position) float64
}

func NewWeighted(weight func(game.Position) float64) Weighted {
	return Weighted{weight: weight}
}

func (w Weighted) Choose(moves []game.Position, rng *rand.Rand) game.Position {
	total := lo.SumBy(moves, w.weight)
	if total <= 0 {
		return moves[rng.Intn(len(moves))]
	}

	sampled := rng.Float64() * total
	cumulative := 0.0
	for _, p := range moves {
		cumulative += w.weight(p)
		if sampled < cumulative {
			return p
		}
	}
	return moves[len(moves)-1] // Fallback in case of rounding errors
}
