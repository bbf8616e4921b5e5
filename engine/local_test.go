package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"reversi/agent"
	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/game/connectfour"
	"reversi/game/reversi"
)

var _ Engine = (*Local[reversi.Board])(nil)

var errBroken = errors.New("broken agent")

type brokenAgent struct{}

func (brokenAgent) FindMove(context.Context, reversi.Board, game.Color) (game.Move, bool, metrics.SearchMetric, error) {
	return game.Move{}, false, metrics.SearchMetric{}, errBroken
}

func TestLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("reversi game runs to the end", func(t *testing.T) {
		observed := 0
		e := NewLocal(reversi.Initial(), agent.NewRandomAgent[reversi.Board](1), agent.NewRandomAgent[reversi.Board](2),
			WithObserver[reversi.Board](func(reversi.Board, metrics.MoveMetric) { observed++ }))

		winner, gameMetric, moveMetrics, err := e.Run(ctx)
		require.NoError(t, err)
		require.True(t, e.Board().IsFinished())
		require.Equal(t, e.Board().Winner(), winner)
		require.Equal(t, winner, gameMetric.Winner)
		require.False(t, gameMetric.Truncated)
		require.Len(t, moveMetrics, gameMetric.TotalMoves)
		require.Equal(t, gameMetric.TotalMoves, observed)
		require.Equal(t, e.Board().Count(game.Black), gameMetric.BlackDiscs)
		require.LessOrEqual(t, gameMetric.BlackDiscs+gameMetric.WhiteDiscs, 64)

		for i, m := range moveMetrics {
			require.Equal(t, i+1, m.Step)
			if i%2 == 0 {
				require.Equal(t, game.Black, m.Color)
			} else {
				require.Equal(t, game.White, m.Color)
			}
		}
	})

	t.Run("four in a row game runs to the end", func(t *testing.T) {
		e := NewLocal(connectfour.New(), agent.NewRandomAgent[connectfour.Board](3), agent.NewRandomAgent[connectfour.Board](4))

		winner, gameMetric, moveMetrics, err := e.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, e.Board().Winner(), winner)
		require.LessOrEqual(t, len(moveMetrics), 42)
		require.Zero(t, gameMetric.BlackDiscs, "Four in a row boards do not count discs")
	})

	t.Run("move cap truncates the game", func(t *testing.T) {
		e := NewLocal(reversi.Initial(), agent.NewRandomAgent[reversi.Board](1), agent.NewRandomAgent[reversi.Board](2),
			WithMaxMoves[reversi.Board](3))

		winner, gameMetric, moveMetrics, err := e.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, game.None, winner)
		require.True(t, gameMetric.Truncated)
		require.Equal(t, 3, gameMetric.TotalMoves)
		require.Len(t, moveMetrics, 3)
	})

	t.Run("agent errors stop the game", func(t *testing.T) {
		e := NewLocal[reversi.Board](reversi.Initial(), brokenAgent{}, agent.NewRandomAgent[reversi.Board](2))

		_, _, _, err := e.Run(ctx)
		require.ErrorIs(t, err, errBroken)
	})

	t.Run("panics without both agents", func(t *testing.T) {
		require.Panics(t, func() {
			NewLocal[reversi.Board](reversi.Initial(), nil, agent.NewRandomAgent[reversi.Board](2))
		})
	})
}
