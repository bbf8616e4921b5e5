package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"reversi/game"
	"reversi/game/reversi"
)

func cell(col int) game.Position {
	return game.Position{Col: col}
}

// eachNode visits every node registered in the store.
func eachNode[B game.Board[B]](s *store[B], visit func(*node[B])) {
	for _, t := range []*table[B]{s.black, s.white} {
		for i := range t.shards {
			for _, n := range t.shards[i].nodes {
				visit(n)
			}
		}
	}
}

func TestNewMCTS(t *testing.T) {
	t.Run("panics without goroutines", func(t *testing.T) {
		require.Panics(t, func() {
			NewMCTS[claimBoard](0)
		})
	})

	t.Run("panics on a heuristic for another board", func(t *testing.T) {
		require.Panics(t, func() {
			NewMCTS[claimBoard](1, WithHeuristic[reversi.Board](0.5, reversi.Evaluate))
		})
	})
}

func TestRunShortCircuits(t *testing.T) {
	ctx := context.Background()

	t.Run("no legal move is a pass", func(t *testing.T) {
		m := NewMCTS[claimBoard](2)
		board := claimBoard{cells: 3, stuck: game.Black}

		_, ok, err := m.Run(ctx, board, game.Black)
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, m.MoveProbabilities())
	})

	t.Run("forced move is returned without searching", func(t *testing.T) {
		m := NewMCTS[claimBoard](2, WithMetrics())

		start := time.Now()
		move, ok, err := m.RunFor(ctx, newClaimBoard(1), game.Black, time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
		require.Less(t, time.Since(start), time.Second)

		require.Equal(t, game.Move{Position: cell(0), Color: game.Black}, move)
		require.Equal(t, map[game.Position]float64{cell(0): 1}, m.MoveProbabilities())
		require.True(t, m.LastMetric().Forced)
		require.Zero(t, m.LastMetric().Episodes)
	})
}

func TestGrow(t *testing.T) {
	ctx := context.Background()

	t.Run("transpositions are merged and statistics stay bounded", func(t *testing.T) {
		m := NewMCTS[claimBoard](4, WithEpisodes(500), WithDuration(time.Minute))
		board := newClaimBoard(3)
		s := m.newSearch(board, game.Black, board.PossibleMoves(game.Black))

		require.NoError(t, m.grow(ctx, s, time.Minute))

		// 1 root, 3 after one move, 6 after two, 3 full boards
		require.Equal(t, 13, s.store.size())
		score, visits := s.root.stats()
		require.Equal(t, 500, visits)
		require.LessOrEqual(t, score, float64(visits))
		eachNode(s.store, func(n *node[claimBoard]) {
			score, visits := n.stats()
			require.GreaterOrEqual(t, score, 0.0)
			require.LessOrEqual(t, score, float64(visits))
		})
	})

	t.Run("transposition collects the visits of both move orders", func(t *testing.T) {
		m := NewMCTS[claimBoard](1, WithEpisodes(500), WithDuration(time.Minute))
		board := newClaimBoard(3)
		s := m.newSearch(board, game.Black, board.PossibleMoves(game.Black))

		require.NoError(t, m.grow(ctx, s, time.Minute))

		// Black 0, white 1 and black 2, white 1 both lead to black {0,2}, white {1}. Each parent
		// has that board as its only child and was the simulated leaf once itself.
		first, ok := s.store.load(claimBoard{black: 0b001, white: 0b010, cells: 3}, game.Black)
		require.True(t, ok)
		second, ok := s.store.load(claimBoard{black: 0b100, white: 0b010, cells: 3}, game.Black)
		require.True(t, ok)
		shared, ok := s.store.load(claimBoard{black: 0b101, white: 0b010, cells: 3}, game.White)
		require.True(t, ok)

		_, firstVisits := first.stats()
		_, secondVisits := second.stats()
		_, sharedVisits := shared.stats()
		require.Greater(t, firstVisits, 1)
		require.Greater(t, secondVisits, 1)
		require.Equal(t, firstVisits-1+secondVisits-1, sharedVisits)
	})

	t.Run("episode cap below the number of root moves still visits every move", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			m := NewMCTS[claimBoard](4, WithEpisodes(2), WithDuration(time.Minute), WithMetrics())

			_, ok, err := m.Run(ctx, newClaimBoard(6), game.Black)
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, m.MoveProbabilities(), 6)
			require.GreaterOrEqual(t, m.LastMetric().Episodes, 6)
		}

		m := NewMCTS[reversi.Board](2, WithEpisodes(3), WithDuration(time.Minute))
		_, ok, err := m.Run(ctx, reversi.Initial(), game.Black)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("pass keeps the board under the other color", func(t *testing.T) {
		m := NewMCTS[claimBoard](1)
		board := claimBoard{cells: 3, stuck: game.White}
		s := m.newSearch(board, game.White, nil)

		path := s.selectThenExpand()
		require.Len(t, path, 2)
		require.Equal(t, board, path[1].board)
		require.Equal(t, game.Black, path[1].color)

		require.NoError(t, s.simulate(rand.New(rand.NewSource(1))))
		passed, ok := s.store.load(board, game.Black)
		require.True(t, ok, "Pass node should be registered after backup")
		_, visits := passed.stats()
		require.Equal(t, 1, visits)

		path = s.selectThenExpand()
		require.Same(t, passed, path[1], "Descent should reuse the registered pass node")
	})

	t.Run("cancelled context leaves no statistics", func(t *testing.T) {
		m := NewMCTS[claimBoard](2)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, ok, err := m.Run(cancelled, newClaimBoard(3), game.Black)
		require.ErrorIs(t, err, ErrNoStatistics)
		require.False(t, ok)
		require.Nil(t, m.MoveProbabilities())
	})

	t.Run("rollout that never finishes fails the search", func(t *testing.T) {
		m := NewMCTS[endlessBoard](2, WithDuration(time.Minute))

		_, _, err := m.Run(ctx, endlessBoard{}, game.Black)
		require.ErrorIs(t, err, ErrRolloutTooLong)
	})

	t.Run("metrics count every episode", func(t *testing.T) {
		m := NewMCTS[claimBoard](2, WithEpisodes(300), WithDuration(time.Minute), WithMetrics())

		_, ok, err := m.Run(ctx, newClaimBoard(4), game.Black)
		require.NoError(t, err)
		require.True(t, ok)

		metric := m.LastMetric()
		require.Equal(t, 300, metric.Episodes)
		require.Equal(t, 2, metric.Goroutines)
		require.Equal(t, time.Minute, metric.Budget)
		require.Positive(t, metric.Nodes)
	})
}

func TestReward(t *testing.T) {
	board := newClaimBoard(3)

	t.Run("outcome only", func(t *testing.T) {
		s := NewMCTS[claimBoard](1).newSearch(board, game.Black, nil)

		require.Equal(t, Win, s.reward(board, game.Black, game.Black))
		require.Equal(t, Loss, s.reward(board, game.White, game.Black))
		require.Equal(t, Draw, s.reward(board, game.None, game.Black))
	})

	t.Run("heuristic is blended in", func(t *testing.T) {
		favours := func(_ claimBoard, color game.Color) float64 {
			if color == game.Black {
				return 1
			}
			return -1
		}
		m := NewMCTS[claimBoard](1, WithHeuristic[claimBoard](0.5, favours))
		s := m.newSearch(board, game.Black, nil)

		require.Equal(t, 1.0, s.reward(board, game.Black, game.Black))
		require.Equal(t, 0.5, s.reward(board, game.White, game.Black))
		require.Equal(t, 0.75, s.reward(board, game.None, game.Black))
		require.Equal(t, 0.25, s.reward(board, game.None, game.White))
	})

	t.Run("neutral evaluation counts as a draw for both colors", func(t *testing.T) {
		neutral := func(claimBoard, game.Color) float64 { return 0 }
		m := NewMCTS[claimBoard](1, WithHeuristic[claimBoard](0.5, neutral))
		s := m.newSearch(board, game.Black, nil)

		require.Equal(t, 0.5, s.reward(board, game.None, game.Black))
		require.Equal(t, 0.5, s.reward(board, game.None, game.White))
		require.Equal(t, 0.75, s.reward(board, game.Black, game.Black))
		require.Equal(t, 0.25, s.reward(board, game.Black, game.White))
	})
}

func TestWorkerSeeds(t *testing.T) {
	a := NewMCTS[claimBoard](3, WithSeed(7))
	b := NewMCTS[claimBoard](3, WithSeed(7))

	require.Equal(t, []uint64{7, 8, 9}, a.workerSeeds())
	require.Equal(t, []uint64{7, 8, 9}, b.workerSeeds(), "Same seed should reproduce the first search")
	require.Equal(t, []uint64{10, 11, 12}, a.workerSeeds(), "Next search should not replay the previous seeds")
}

func TestRunOnReversi(t *testing.T) {
	ctx := context.Background()
	board := reversi.Initial()
	moves := board.PossibleMoves(game.Black)
	require.Len(t, moves, 4)

	tests := []struct {
		name    string
		options []Option
	}{
		{"random rollout with UCB1-Tuned", []Option{WithRollout(Random{})}},
		{"corner rollout with UCB1", []Option{WithRollout(NewCorner(reversi.Corners()...)), WithTuned(false)}},
		{"weighted rollout with warm-up", []Option{WithRollout(NewWeighted(reversi.Weight)), WithUniformWarmup(true)}},
		{"heuristic blending", []Option{WithHeuristic[reversi.Board](0.3, reversi.Evaluate), WithExploration(0.7)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := append([]Option{WithEpisodes(2000), WithDuration(time.Minute), WithSeed(42)}, tt.options...)
			m := NewMCTS[reversi.Board](4, options...)

			move, ok, err := m.Run(ctx, board, game.Black)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, game.Black, move.Color)
			require.Contains(t, moves, move.Position)

			probabilities := m.MoveProbabilities()
			require.Len(t, probabilities, 4)
			sum := 0.0
			for _, p := range moves {
				require.Contains(t, probabilities, p)
				sum += probabilities[p]
			}
			require.InDelta(t, 1.0, sum, 1e-9)
		})
	}

	t.Run("repeated runs start from an empty store", func(t *testing.T) {
		m := NewMCTS[reversi.Board](2, WithEpisodes(200), WithDuration(time.Minute), WithMetrics())

		for i := 0; i < 3; i++ {
			_, ok, err := m.Run(ctx, board, game.Black)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, 200, m.LastMetric().Episodes)
			require.LessOrEqual(t, m.LastMetric().Nodes, 201)
		}
	})
}
