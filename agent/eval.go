package agent

import (
	"context"

	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/searcher"
)

type evaluationAgent[B game.Board[B]] struct {
	mcts *searcher.MCTS[B]
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
func NewEvaluationAgent[B game.Board[B]](mcts *searcher.MCTS[B]) Agent[B] {
	return evaluationAgent[B]{mcts: mcts}
}

func (a evaluationAgent[B]) FindMove(ctx context.Context, board B, color game.Color) (game.Move, bool, metrics.SearchMetric, error) {
	move, ok, err := a.mcts.Run(ctx, board, color)
	return move, ok, a.mcts.LastMetric(), err
}
