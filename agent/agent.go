package agent

import (
	"context"

	"reversi/experiments/metrics"
	"reversi/game"
)

type Agent[B game.Board[B]] interface {
	// FindMove returns the move to play and performance metrics (if collected) from the search.
	// ok is false when color has no legal move and passes.
	FindMove(ctx context.Context, board B, color game.Color) (move game.Move, ok bool, metric metrics.SearchMetric, err error)
}
