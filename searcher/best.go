package searcher

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"reversi/game"
)

func (s *search[B]) child(p game.Position) (*node[B], bool) {
	board := s.root.board.ApplyMove(game.Move{Position: p, Color: s.root.color})
	return s.store.load(board, s.root.color.Opponent())
}

// bestMove returns the root move whose child has the highest mean reward. On equal means the
// later move wins.
func (s *search[B]) bestMove() (game.Move, error) {
	if s.simulations.Load() == 0 {
		return game.Move{}, ErrNoStatistics
	}

	var best game.Position
	bestMean := math.Inf(-1)
	for _, p := range s.moves {
		child, ok := s.child(p)
		if !ok {
			return game.Move{}, fmt.Errorf("move %v: %w", p, ErrUnvisitedChild)
		}
		mean, ok := child.mean()
		if !ok {
			return game.Move{}, fmt.Errorf("move %v: %w", p, ErrUnvisitedChild)
		}
		if mean >= bestMean {
			bestMean = mean
			best = p
		}
	}
	return game.Move{Position: best, Color: s.root.color}, nil
}

// moveProbabilities returns nil when the means sum to zero.
func (s *search[B]) moveProbabilities() map[game.Position]float64 {
	means := make(map[game.Position]float64, len(s.moves))
	for _, p := range s.moves {
		means[p] = 0
		if child, ok := s.child(p); ok {
			means[p], _ = child.mean()
		}
	}

	total := lo.Sum(lo.Values(means))
	if total <= 0 {
		return nil
	}
	for p := range means {
		means[p] /= total
	}
	return means
}
