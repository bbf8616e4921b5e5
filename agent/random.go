package agent

import (
	"context"
	"sync"

	"golang.org/x/exp/rand"

	"reversi/experiments/metrics"
	"reversi/game"
)

type randomAgent[B game.Board[B]] struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAgent returns a baseline agent that plays uniformly among the legal moves.
func NewRandomAgent[B game.Board[B]](seed uint64) Agent[B] {
	return &randomAgent[B]{rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent[B]) FindMove(_ context.Context, board B, color game.Color) (game.Move, bool, metrics.SearchMetric, error) {
	moves := board.PossibleMoves(color)
	if len(moves) == 0 {
		return game.Move{}, false, metrics.SearchMetric{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return game.Move{Position: moves[a.rng.Intn(len(moves))], Color: color}, true, metrics.SearchMetric{}, nil
}
