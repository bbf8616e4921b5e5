package searcher

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"reversi/experiments/metrics"
	"reversi/game"
)

// Rewards credited to a color for the outcome of one simulation
const (
	Win  = 1.0
	Draw = 0.5
	Loss = 0.0
)

const (
	DefaultExploration = 1.0
	DefaultDuration    = time.Second
	// Upper bound on plies in one rollout, only hit by boards that never finish
	maxPlies = 10_000
)

var (
	// ErrUnvisitedChild means a root move has no statistics once the search has ended.
	ErrUnvisitedChild = errors.New("root child was never visited")
	// ErrNoStatistics means the search ended before a single simulation completed.
	ErrNoStatistics = errors.New("search ended without simulations")
	// ErrRolloutTooLong means a rollout exceeded maxPlies without reaching a finished board.
	ErrRolloutTooLong = errors.New("rollout did not finish")
)

type Option func(s *settings)

type settings struct {
	duration     time.Duration
	grace        time.Duration
	episodes     int
	exploration  float64
	tuned        bool
	warmup       bool
	rollout      Rollout
	lambda       float64
	heuristic    any // game.Evaluate[B], checked by NewMCTS
	seed         func() uint64
	newCollector func() metrics.Collector
	logger       zerolog.Logger
}

// WithDuration sets the default wall-clock budget of Run.
func WithDuration(duration time.Duration) Option {
	return func(s *settings) {
		if duration > 0 {
			s.duration = duration
		}
	}
}

// WithEpisodes caps the number of simulations per search across all goroutines. The cap is exceeded
// when needed until every root move has been simulated at least once.
func WithEpisodes(episodes int) Option {
	return func(s *settings) {
		if episodes > 0 {
			s.episodes = episodes
		}
	}
}

// WithGrace sets how long Run keeps waiting for workers past the budget.
func WithGrace(grace time.Duration) Option {
	return func(s *settings) {
		if grace > 0 {
			s.grace = grace
		}
	}
}

func WithExploration(c float64) Option {
	return func(s *settings) {
		s.exploration = math.Max(0, c)
	}
}

// WithTuned switches selection between UCB1-Tuned (true) and plain UCB1 (false).
func WithTuned(tuned bool) Option {
	return func(s *settings) {
		s.tuned = tuned
	}
}

// WithUniformWarmup makes the root always descend into its least visited child.
func WithUniformWarmup(warmup bool) Option {
	return func(s *settings) {
		s.warmup = warmup
	}
}

func WithRollout(rollout Rollout) Option {
	return func(s *settings) {
		if rollout != nil {
			s.rollout = rollout
		}
	}
}

// WithHeuristic blends a static evaluation of the simulated leaf into every reward:
// reward = (1-lambda)*outcome + lambda*verdict, where verdict is Win, Draw or Loss by the sign of
// evaluate(leaf, color).
func WithHeuristic[B any](lambda float64, evaluate game.Evaluate[B]) Option {
	return func(s *settings) {
		if evaluate != nil {
			s.lambda = math.Min(1, math.Max(0, lambda))
			s.heuristic = evaluate
		}
	}
}

// WithSeed makes worker generators deterministic: worker i of the r-th search (from 0) is seeded
// with seed + r*goroutines + i.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = func() uint64 { return seed }
	}
}

func WithMetrics() Option {
	return func(s *settings) {
		s.newCollector = metrics.NewCollector
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func defaultSettings() settings {
	return settings{
		duration:     DefaultDuration,
		exploration:  DefaultExploration,
		tuned:        true,
		rollout:      Random{},
		seed:         func() uint64 { return frand.Uint64n(math.MaxUint64) },
		newCollector: metrics.NewDummyCollector,
		logger:       log.Logger,
	}
}
