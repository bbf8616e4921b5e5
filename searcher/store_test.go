package searcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"reversi/game"
)

func TestStore(t *testing.T) {
	t.Run("register keeps the first node for a position", func(t *testing.T) {
		s := newStore[claimBoard]()
		board := newClaimBoard(3).ApplyMove(game.Move{Position: game.Position{Col: 1}, Color: game.Black})

		first := s.register(newNode(board, game.White))
		second := s.register(newNode(board, game.White))

		require.Same(t, first, second, "Registering an equal position should return the stored node")
		require.Equal(t, 1, s.size())
	})

	t.Run("same board with the other color is a different node", func(t *testing.T) {
		s := newStore[claimBoard]()
		board := newClaimBoard(3)

		black := s.register(newNode(board, game.Black))
		white := s.register(newNode(board, game.White))

		require.NotSame(t, black, white)
		require.Equal(t, 2, s.size())

		loaded, ok := s.load(board, game.White)
		require.True(t, ok)
		require.Same(t, white, loaded)
	})

	t.Run("load misses an unregistered position", func(t *testing.T) {
		s := newStore[claimBoard]()

		_, ok := s.load(newClaimBoard(3), game.Black)
		require.False(t, ok)
	})

	t.Run("different move orders reach the same node", func(t *testing.T) {
		s := newStore[claimBoard]()
		play := func(cols ...int) claimBoard {
			board := newClaimBoard(3)
			color := game.Black
			for _, col := range cols {
				board = board.ApplyMove(game.Move{Position: game.Position{Col: col}, Color: color})
				color = color.Opponent()
			}
			return board
		}

		first := s.register(newNode(play(0, 1, 2), game.White))
		second := s.register(newNode(play(2, 1, 0), game.White))

		require.Same(t, first, second, "Transposed positions should share a node")
	})

	t.Run("racing registrations converge on one node", func(t *testing.T) {
		s := newStore[claimBoard]()
		board := newClaimBoard(4)

		const goroutines = 32
		winners := make([]*node[claimBoard], goroutines)
		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				winners[i] = s.register(newNode(board, game.Black))
			}(i)
		}
		wg.Wait()

		for _, n := range winners {
			require.Same(t, winners[0], n)
		}
		require.Equal(t, 1, s.size())
	})
}
