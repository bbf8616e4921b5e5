package searcher

import (
	"sync"

	"reversi/game"
)

const shards = 64

type shard[B game.Board[B]] struct {
	sync.RWMutex
	nodes map[B]*node[B]
}

// table maps boards to nodes for one color to move. Boards are spread over shards by Hash so
// goroutines rarely contend on the same lock.
type table[B game.Board[B]] struct {
	shards [shards]shard[B]
}

func newTable[B game.Board[B]]() *table[B] {
	t := &table[B]{}
	for i := range t.shards {
		t.shards[i].nodes = make(map[B]*node[B])
	}
	return t
}

func (t *table[B]) shardOf(board B) *shard[B] {
	return &t.shards[board.Hash()%shards]
}

func (t *table[B]) load(board B) (*node[B], bool) {
	s := t.shardOf(board)
	s.RLock()
	defer s.RUnlock()

	n, ok := s.nodes[board]
	return n, ok
}

// loadOrStore inserts n unless its board is already present, and returns the stored node.
func (t *table[B]) loadOrStore(n *node[B]) *node[B] {
	s := t.shardOf(n.board)
	s.Lock()
	defer s.Unlock()

	if existing, ok := s.nodes[n.board]; ok {
		return existing
	}
	s.nodes[n.board] = n
	return n
}

func (t *table[B]) len() int {
	size := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.RLock()
		size += len(s.nodes)
		s.RUnlock()
	}
	return size
}

// store is the transposition store of one search: one table per color to move.
type store[B game.Board[B]] struct {
	black *table[B]
	white *table[B]
}

func newStore[B game.Board[B]]() *store[B] {
	return &store[B]{
		black: newTable[B](),
		white: newTable[B](),
	}
}

func (s *store[B]) tableFor(color game.Color) *table[B] {
	if color == game.Black {
		return s.black
	}
	return s.white
}

func (s *store[B]) load(board B, color game.Color) (*node[B], bool) {
	return s.tableFor(color).load(board)
}

// register adds n the first time its (board, color) is seen. Goroutines racing on the same
// position all get the node that won the race back.
func (s *store[B]) register(n *node[B]) *node[B] {
	return s.tableFor(n.color).loadOrStore(n)
}

func (s *store[B]) size() int {
	return s.black.len() + s.white.len()
}
