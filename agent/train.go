package agent

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/exp/rand"

	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/searcher"
)

type trainingAgent[B game.Board[B]] struct {
	mcts        *searcher.MCTS[B]
	temperature float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTrainingAgent returns a new agent for self-play. Instead of the best move it samples from the
// search's move probabilities sharpened (temperature < 1) or flattened (> 1) by temperature.
func NewTrainingAgent[B game.Board[B]](mcts *searcher.MCTS[B], temperature float64, seed uint64) Agent[B] {
	if temperature <= 0 {
		panic("temperature must be positive")
	}
	return &trainingAgent[B]{
		mcts:        mcts,
		temperature: temperature,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (a *trainingAgent[B]) FindMove(ctx context.Context, board B, color game.Color) (game.Move, bool, metrics.SearchMetric, error) {
	best, ok, err := a.mcts.Run(ctx, board, color)
	metric := a.mcts.LastMetric()
	if err != nil || !ok {
		return best, ok, metric, err
	}

	policy := a.mcts.MoveProbabilities()
	if policy == nil { // No information, play the search's choice
		return best, true, metric, nil
	}
	policy = adjustTemperature(policy, a.temperature)

	a.mu.Lock()
	sampled := a.rng.Float64()
	a.mu.Unlock()
	return game.Move{Position: sample(policy, sampled), Color: color}, true, metric, nil
}

func adjustTemperature(policy map[game.Position]float64, temperature float64) map[game.Position]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	adjusted := make(map[game.Position]float64, len(policy))
	for move, prob := range policy {
		adjusted[move] = math.Pow(prob, exponent)
	}
	// Normalize
	sum := lo.Sum(lo.Values(adjusted))
	if sum == 0 { // Every probability underflowed
		return policy
	}
	for move := range adjusted {
		adjusted[move] /= sum
	}
	return adjusted
}

// sample walks the policy in board order so a given draw always maps to the same move.
func sample(policy map[game.Position]float64, sampled float64) game.Position {
	moves := lo.Keys(policy)
	slices.SortFunc(moves, comparePositions)

	cumulative := 0.0
	for _, move := range moves {
		cumulative += policy[move]
		if sampled < cumulative {
			return move
		}
	}
	return moves[len(moves)-1] // Fallback in case of rounding errors
}

func comparePositions(a, b game.Position) int {
	return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
}
