package searcher

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"reversi/experiments/metrics"
	"reversi/game"
)

// MCTS grows a fresh search DAG for every call to Run. Nodes are shared between workers through a
// transposition store, so positions reached by different move orders are searched once.
type MCTS[B game.Board[B]] struct {
	settings
	goroutines int
	evaluate   game.Evaluate[B]

	runs          atomic.Uint64 // Searches started, mixed into worker seeds
	mu            sync.Mutex
	current       *search[B] // Set while Run is growing a DAG
	probabilities map[game.Position]float64
	metric        metrics.SearchMetric
}

func NewMCTS[B game.Board[B]](goroutines int, options ...Option) *MCTS[B] {
	if goroutines < 1 {
		panic("MCTS needs at least one goroutine")
	}
	m := &MCTS[B]{ // Default values
		settings:   defaultSettings(),
		goroutines: goroutines,
	}
	for _, option := range options {
		option(&m.settings)
	}
	if m.heuristic != nil {
		evaluate, ok := m.heuristic.(game.Evaluate[B])
		if !ok {
			panic(fmt.Sprintf("heuristic %T cannot evaluate %T", m.heuristic, *new(B)))
		}
		m.evaluate = evaluate
	}
	return m
}

func (m *MCTS[B]) Goroutines() int {
	return m.goroutines
}

// Run searches for the default duration. ok is false when color has no legal move and must pass.
func (m *MCTS[B]) Run(ctx context.Context, board B, color game.Color) (game.Move, bool, error) {
	return m.RunFor(ctx, board, color, m.duration)
}

// RunFor searches board for color within budget and returns the move with the best mean reward.
// A forced move is returned without searching. Cancelling ctx stops the search early; the move is
// then chosen from whatever statistics were gathered.
func (m *MCTS[B]) RunFor(ctx context.Context, board B, color game.Color, budget time.Duration) (game.Move, bool, error) {
	moves := board.PossibleMoves(color)
	switch len(moves) {
	case 0:
		m.publish(nil, metrics.SearchMetric{})
		return game.Move{}, false, nil
	case 1:
		m.publish(map[game.Position]float64{moves[0]: 1}, metrics.SearchMetric{Goroutines: m.goroutines, Forced: true})
		return game.Move{Position: moves[0], Color: color}, true, nil
	}
	if budget <= 0 {
		budget = m.duration
	}

	s := m.newSearch(board, color, moves)
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	s.collector.Start(m.goroutines, budget)
	err := m.grow(ctx, s, budget)
	metric := s.collector.Complete(s.store.size())
	m.logger.Debug().
		Int64("simulations", s.simulations.Load()).
		Int("nodes", s.store.size()).
		Int("goroutines", m.goroutines).
		Dur("budget", budget).
		Msg("search complete")

	var move game.Move
	if err == nil {
		move, err = s.bestMove()
	}
	probabilities := s.moveProbabilities()

	m.mu.Lock()
	m.current = nil
	m.probabilities = probabilities
	m.metric = metric
	m.mu.Unlock()

	if err != nil {
		return game.Move{}, false, err
	}
	return move, true, nil
}

// MoveProbabilities normalizes the mean reward of every root move by their sum. It reflects the
// search in progress, or the last one once Run has returned. A nil map means no information: no
// search ran, the board had no legal move, or every root move scored zero.
func (m *MCTS[B]) MoveProbabilities() map[game.Position]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current.moveProbabilities()
	}
	return maps.Clone(m.probabilities)
}

// LastMetric returns the metrics of the last Run. They are empty unless WithMetrics was given.
func (m *MCTS[B]) LastMetric() metrics.SearchMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.metric
}

func (m *MCTS[B]) publish(probabilities map[game.Position]float64, metric metrics.SearchMetric) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	m.probabilities = probabilities
	m.metric = metric
}

func (m *MCTS[B]) newSearch(board B, color game.Color, moves []game.Position) *search[B] {
	s := &search[B]{
		settings:  m.settings,
		evaluate:  m.evaluate,
		store:     newStore[B](),
		moves:     moves,
		collector: m.newCollector(),
	}
	s.root = s.store.register(newNode(board, color))
	return s
}

// grow runs the workers until the budget elapses or the episode cap is reached. Workers that have
// not returned within the grace period are abandoned; they only ever touch this search's store.
func (m *MCTS[B]) grow(ctx context.Context, s *search[B], budget time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, seed := range m.workerSeeds() {
		rng := rand.New(rand.NewSource(seed))
		g.Go(func() error {
			return s.work(ctx, rng)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	grace := m.grace
	if grace <= 0 {
		grace = budget
	}
	timer := time.NewTimer(budget + grace)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		m.logger.Warn().Msgf("workers still running %v past the %v budget, using statistics so far", grace, budget)
		return nil
	}
}

// workerSeeds returns one seed per goroutine. Every search gets its own range so consecutive runs
// draw different rollouts.
func (m *MCTS[B]) workerSeeds() []uint64 {
	run := m.runs.Add(1) - 1
	base := m.seed() + run*uint64(m.goroutines)
	seeds := make([]uint64, m.goroutines)
	for i := range seeds {
		seeds[i] = base + uint64(i)
	}
	return seeds
}

type search[B game.Board[B]] struct {
	settings
	evaluate    game.Evaluate[B]
	store       *store[B]
	root        *node[B]
	moves       []game.Position // Legal moves at the root
	collector   metrics.Collector
	claimed     atomic.Int64 // Episodes handed out to workers
	covered     atomic.Bool  // Every root move has a visited child
	simulations atomic.Int64 // Episodes backed up
}

func (s *search[B]) work(ctx context.Context, rng *rand.Rand) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if s.episodes > 0 && s.claimed.Add(1) > int64(s.episodes) && s.rootCovered() {
			return nil
		}
		if err := s.simulate(rng); err != nil {
			return err
		}
	}
}

// rootCovered reports whether every root move leads to a visited child. The episode cap only
// applies once it does, so a capped search can always rank all root moves.
func (s *search[B]) rootCovered() bool {
	if s.covered.Load() {
		return true
	}
	for _, p := range s.moves {
		child, ok := s.child(p)
		if !ok {
			return false
		}
		if _, ok := child.mean(); !ok {
			return false
		}
	}
	s.covered.Store(true)
	return true
}

func (s *search[B]) simulate(rng *rand.Rand) error {
	path := s.selectThenExpand()
	leaf := path[len(path)-1]

	final := leaf.board
	if !final.IsFinished() {
		var err error
		if final, err = s.playout(final, leaf.color, rng); err != nil {
			return err
		}
		s.collector.AddFullPlayout()
	}

	winner := final.Winner()
	path[len(path)-1] = s.store.register(leaf)
	s.backup(path, s.reward(leaf.board, winner, game.Black), s.reward(leaf.board, winner, game.White))

	s.simulations.Add(1)
	s.collector.AddEpisode()
	return nil
}

// selectThenExpand descends from the root and returns the path of nodes to back up. The last node
// is either new, and not registered yet, or finished.
func (s *search[B]) selectThenExpand() []*node[B] {
	path := []*node[B]{s.root}
	current := s.root
	for !current.board.IsFinished() {
		opponent := current.color.Opponent()
		moves := current.board.PossibleMoves(current.color)

		if len(moves) == 0 { // Pass: same board, opponent to move
			child, ok := s.store.load(current.board, opponent)
			if !ok {
				return append(path, newNode(current.board, opponent))
			}
			path = append(path, child)
			current = child
			continue
		}

		children := make([]*node[B], 0, len(moves))
		for _, p := range moves {
			board := current.board.ApplyMove(game.Move{Position: p, Color: current.color})
			child, ok := s.store.load(board, opponent)
			if !ok {
				return append(path, newNode(board, opponent))
			}
			children = append(children, child)
		}
		current = s.pick(children, current == s.root)
		path = append(path, current)
	}
	return path
}

// playout plays board out to the end, color moving first.
func (s *search[B]) playout(board B, color game.Color, rng *rand.Rand) (B, error) {
	for plies := 0; !board.IsFinished(); plies++ {
		if plies == maxPlies {
			return board, ErrRolloutTooLong
		}
		if moves := board.PossibleMoves(color); len(moves) > 0 {
			board = board.ApplyMove(game.Move{Position: s.rollout.Choose(moves, rng), Color: color})
		}
		color = color.Opponent()
	}
	return board, nil
}

// reward is what one simulation is worth to color, in [0,1].
func (s *search[B]) reward(leaf B, winner, color game.Color) float64 {
	outcome := Draw
	switch winner {
	case color:
		outcome = Win
	case color.Opponent():
		outcome = Loss
	}
	if s.evaluate == nil || s.lambda == 0 {
		return outcome
	}

	verdict := Draw
	switch evaluation := s.evaluate(leaf, color); {
	case evaluation > 0:
		verdict = Win
	case evaluation < 0:
		verdict = Loss
	}
	return (1-s.lambda)*outcome + s.lambda*verdict
}

// backup credits every node with the reward of the color that moved into it.
func (s *search[B]) backup(path []*node[B], black, white float64) {
	for _, n := range path {
		if n.color == game.Black {
			n.backup(white)
		} else {
			n.backup(black)
		}
	}
}
