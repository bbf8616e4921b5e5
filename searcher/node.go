package searcher

import (
	"sync"

	"reversi/game"
)

// node is a position together with the color to move there. The same board with the other color
// to move is a different node. Rewards stored here are those of the color that moved into the
// node, so a parent picks the child with the highest mean.
type node[B game.Board[B]] struct {
	sync.RWMutex
	board  B
	color  game.Color
	score  float64
	visits int
}

func newNode[B game.Board[B]](board B, color game.Color) *node[B] {
	return &node[B]{board: board, color: color}
}

// stats returns a consistent (score, visits) pair.
func (n *node[B]) stats() (float64, int) {
	n.RLock()
	defer n.RUnlock()

	return n.score, n.visits
}

func (n *node[B]) backup(reward float64) {
	n.Lock()
	defer n.Unlock()

	n.score += reward
	n.visits++
}

// mean returns false when the node has not been visited yet.
func (n *node[B]) mean() (float64, bool) {
	score, visits := n.stats()
	if visits == 0 {
		return 0, false
	}
	return score / float64(visits), true
}
