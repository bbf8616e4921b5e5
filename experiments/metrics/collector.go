package metrics

import (
	"sync/atomic"
	"time"

	"reversi/game"
)

type SearchMetric struct {
	Goroutines   int
	Budget       time.Duration
	Duration     time.Duration
	Episodes     int
	FullPlayouts int
	Nodes        int
	Forced       bool // Single legal move, no search ran
}

type MoveMetric struct {
	Step  int
	Color game.Color
	Move  game.Move
	Pass  bool
	SearchMetric
}

type GameMetric struct {
	Starting   game.Color
	Winner     game.Color
	BlackDiscs int // Discs on the final board, when the game counts them
	WhiteDiscs int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
	Truncated  bool // Hit the move cap before the game finished
}

type Collector interface {
	Start(goroutines int, budget time.Duration)
	AddFullPlayout()
	AddEpisode()
	Complete(nodes int) SearchMetric
}

type collector struct {
	goroutines   int
	budget       time.Duration
	startTime    time.Time
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines int, budget time.Duration) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.budget = budget
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) Complete(nodes int) SearchMetric {
	return SearchMetric{
		Goroutines:   m.goroutines,
		Budget:       m.budget,
		Duration:     time.Since(m.startTime),
		Episodes:     int(m.episodes.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		Nodes:        nodes,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines int, budget time.Duration) {}
func (m *dummyCollector) AddFullPlayout()                            {}
func (m *dummyCollector) AddEpisode()                                {}
func (m *dummyCollector) Complete(nodes int) SearchMetric            { return SearchMetric{} }
