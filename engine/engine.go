package engine

import (
	"context"

	"reversi/experiments/metrics"
	"reversi/game"
)

const MaxMoves = 10000

type Engine interface {
	// Run plays a game till it is finished or a max number of moves is reached
	Run(ctx context.Context) (winner game.Color, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}

// counter is implemented by boards that can report the pieces each color holds.
type counter interface {
	Count(color game.Color) int
}
