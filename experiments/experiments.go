package experiments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"reversi/agent"
	"reversi/engine"
	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/game/connectfour"
	"reversi/game/reversi"
	"reversi/searcher"
)

const (
	NumGames   = 20 // Per match up
	TimeBudget = 50 * time.Millisecond
)

var (
	ErrUnknownExperiment = errors.New("unknown experiment")
	ErrUnknownRollout    = errors.New("unknown rollout")
)

// Game bundles a rules package with the heuristics the rollouts and reward blending can use.
type Game[B game.Board[B]] struct {
	Name     string
	Initial  func() B
	Corners  []game.Position
	Weight   func(game.Position) float64
	Evaluate game.Evaluate[B] // nil when the game has no static evaluation
}

var Reversi = Game[reversi.Board]{
	Name:     "reversi",
	Initial:  reversi.Initial,
	Corners:  reversi.Corners(),
	Weight:   reversi.Weight,
	Evaluate: reversi.Evaluate,
}

var ConnectFour = Game[connectfour.Board]{
	Name:    "connectfour",
	Initial: connectfour.New,
	Weight:  connectfour.Weight,
}

// Settings are the knobs shared by every agent of an experiment. Experiments vary one of them.
type Settings struct {
	Games       int
	Goroutines  int
	Duration    time.Duration
	Episodes    int
	Exploration float64
	Tuned       bool
	Warmup      bool
	Rollout     string
	Lambda      float64
	Temperature float64
	Seed        uint64 // 0 picks a random seed
	OutputDir   string // Records are only written when set
}

func (s Settings) Agent(id int) metrics.AgentConfig {
	return metrics.AgentConfig{
		ID:          id,
		Goroutines:  s.Goroutines,
		Duration:    s.Duration,
		Episodes:    s.Episodes,
		Exploration: s.Exploration,
		Tuned:       s.Tuned,
		Warmup:      s.Warmup,
		Rollout:     s.Rollout,
		Lambda:      s.Lambda,
		Temperature: s.Temperature,
	}
}

type Experiment struct {
	Name     string
	Agents   []metrics.AgentConfig
	MatchUps []metrics.MatchUp
}

var definitions = map[string]func(s Settings) Experiment{
	"bias":     Bias,
	"baseline": Baseline,
	"parallel": Parallel,
	"tuned":    Tuned,
	"rollout":  Rollout,
}

func Names() []string {
	return []string{"bias", "baseline", "parallel", "tuned", "rollout"}
}

func Named(name string, s Settings) (Experiment, error) {
	define, ok := definitions[name]
	if !ok {
		return Experiment{}, fmt.Errorf("%w: %q", ErrUnknownExperiment, name)
	}
	return define(s), nil
}

// Bias pits identical agents against each other to measure the first-mover advantage.
func Bias(s Settings) Experiment {
	config := s.Agent(1)
	return Experiment{
		Name:     "bias",
		Agents:   []metrics.AgentConfig{config},
		MatchUps: []metrics.MatchUp{{Black: config.ID, White: config.ID}},
	}
}

// Baseline pits the searcher against a uniformly random player.
func Baseline(s Settings) Experiment {
	random := metrics.AgentConfig{ID: 0, Random: true}
	config := s.Agent(1)
	return Experiment{
		Name:   "baseline",
		Agents: []metrics.AgentConfig{random, config},
		MatchUps: []metrics.MatchUp{
			{Black: config.ID, White: random.ID},
			{Black: random.ID, White: config.ID},
		},
	}
}

// Parallel pairs a sequential agent against agents with more goroutines and the same budget.
func Parallel(s Settings) Experiment {
	baseline := s.Agent(0)
	baseline.Goroutines = 1
	e := Experiment{Name: "parallel", Agents: []metrics.AgentConfig{baseline}}
	for i, goroutines := range []int{2, 4, 8} {
		config := s.Agent(i + 1)
		config.Goroutines = goroutines
		e.Agents = append(e.Agents, config)
		e.MatchUps = append(e.MatchUps,
			metrics.MatchUp{Black: baseline.ID, White: config.ID},
			metrics.MatchUp{Black: config.ID, White: baseline.ID},
		)
	}
	return e
}

// Tuned pairs UCB1 against UCB1-Tuned selection.
func Tuned(s Settings) Experiment {
	ucb1 := s.Agent(1)
	ucb1.Tuned = false
	tuned := s.Agent(2)
	tuned.Tuned = true
	return Experiment{
		Name:   "tuned",
		Agents: []metrics.AgentConfig{ucb1, tuned},
		MatchUps: []metrics.MatchUp{
			{Black: ucb1.ID, White: tuned.ID},
			{Black: tuned.ID, White: ucb1.ID},
		},
	}
}

// Rollout plays every rollout policy against every other one with both colors.
func Rollout(s Settings) Experiment {
	e := Experiment{Name: "rollout"}
	for i, rollout := range []string{"random", "corner", "weighted"} {
		config := s.Agent(i + 1)
		config.Rollout = rollout
		e.Agents = append(e.Agents, config)
	}
	for _, black := range e.Agents {
		for _, white := range e.Agents {
			if black.ID != white.ID {
				e.MatchUps = append(e.MatchUps, metrics.MatchUp{Black: black.ID, White: white.ID})
			}
		}
	}
	return e
}

// NewRollout returns the named rollout policy wired to the game's heuristics.
func NewRollout[B game.Board[B]](g Game[B], name string) (searcher.Rollout, error) {
	switch name {
	case "", "random":
		return searcher.Random{}, nil
	case "corner":
		return searcher.NewCorner(g.Corners...), nil
	case "weighted":
		return searcher.NewWeighted(g.Weight), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRollout, name)
	}
}

// NewSearcher builds a search engine from an agent config.
func NewSearcher[B game.Board[B]](g Game[B], config metrics.AgentConfig, seed uint64) (*searcher.MCTS[B], error) {
	rollout, err := NewRollout(g, config.Rollout)
	if err != nil {
		return nil, err
	}
	options := []searcher.Option{
		searcher.WithRollout(rollout),
		searcher.WithExploration(config.Exploration),
		searcher.WithTuned(config.Tuned),
		searcher.WithUniformWarmup(config.Warmup),
		searcher.WithSeed(seed),
		searcher.WithMetrics(),
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.Episodes))
	}
	if config.Lambda > 0 && g.Evaluate != nil {
		options = append(options, searcher.WithHeuristic(config.Lambda, g.Evaluate))
	}
	return searcher.NewMCTS[B](max(1, config.Goroutines), options...), nil
}

// NewAgent builds a fresh agent, and so a fresh search engine, for one game.
func NewAgent[B game.Board[B]](g Game[B], config metrics.AgentConfig, seed uint64) (agent.Agent[B], error) {
	if config.Random {
		return agent.NewRandomAgent[B](seed), nil
	}
	mcts, err := NewSearcher(g, config, seed)
	if err != nil {
		return nil, err
	}
	if config.Temperature > 0 {
		return agent.NewTrainingAgent(mcts, config.Temperature, seed), nil
	}
	return agent.NewEvaluationAgent(mcts), nil
}

type MatchUpResult struct {
	metrics.MatchUp
	BlackWins int
	WhiteWins int
	Draws     int
	Truncated int
	// Simulations per searched move
	EpisodesMean   float64
	EpisodesStdDev float64
}

// Run plays s.Games games for every match-up of e and returns the tallies per match-up.
func Run[B game.Board[B]](ctx context.Context, g Game[B], e Experiment, s Settings) ([]MatchUpResult, error) {
	configs := make(map[int]metrics.AgentConfig, len(e.Agents))
	for _, config := range e.Agents {
		configs[config.ID] = config
	}
	games := s.Games
	if games <= 0 {
		games = NumGames
	}
	seed := s.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64)
	}

	// Run a number of games for each matchup
	count := 0
	results := make([]MatchUpResult, 0, len(e.MatchUps))
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}

	log.Info().Msgf("starting %s experiment on %s...", e.Name, g.Name)

	for mi, matchup := range e.MatchUps {
		black, ok := configs[matchup.Black]
		if !ok {
			return nil, fmt.Errorf("matchup %d: no agent %d", mi+1, matchup.Black)
		}
		white, ok := configs[matchup.White]
		if !ok {
			return nil, fmt.Errorf("matchup %d: no agent %d", mi+1, matchup.White)
		}

		log.Info().Msgf("starting matchup %d of %d between black=%+v and white=%+v...", mi+1, len(e.MatchUps), black, white)

		result := MatchUpResult{MatchUp: matchup}
		var episodes []float64
		for i := 0; i < games; i++ {
			count++
			gameSeed := seed + uint64(count)*2
			blackAgent, err := NewAgent(g, black, gameSeed)
			if err != nil {
				return nil, err
			}
			whiteAgent, err := NewAgent(g, white, gameSeed+1)
			if err != nil {
				return nil, err
			}

			winner, gameMetric, moveMetrics, err := engine.NewLocal(g.Initial(), blackAgent, whiteAgent).Run(ctx)
			if err != nil {
				return nil, fmt.Errorf("matchup %d game %d: %w", mi+1, i+1, err)
			}

			switch {
			case gameMetric.Truncated:
				result.Truncated++
			case winner == game.Black:
				result.BlackWins++
			case winner == game.White:
				result.WhiteWins++
			default:
				result.Draws++
			}

			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Black:      black.ID,
				White:      white.ID,
				GameMetric: gameMetric,
			})
			for _, mm := range moveMetrics {
				moveRecords = append(moveRecords, metrics.MoveRecord{
					Game:       count,
					MoveMetric: mm,
				})
				if mm.Episodes > 0 {
					episodes = append(episodes, float64(mm.Episodes))
				}
			}

			log.Debug().Msgf("completed matchup %d of %d game %d with winner: %s", mi+1, len(e.MatchUps), i+1, winner)
		}

		result.EpisodesMean, result.EpisodesStdDev = summarize(episodes)
		results = append(results, result)
		log.Info().Msgf("completed matchup %d of %d: black %d, white %d, draws %d, %.0f±%.0f simulations per move",
			mi+1, len(e.MatchUps), result.BlackWins, result.WhiteWins, result.Draws, result.EpisodesMean, result.EpisodesStdDev)
	}

	log.Info().Msgf("completed %s experiment", e.Name)

	if s.OutputDir == "" {
		return results, nil
	}
	setup := metrics.Setup{
		Name:     e.Name,
		Game:     g.Name,
		Games:    games,
		Seed:     seed,
		Agents:   e.Agents,
		MatchUps: e.MatchUps,
	}
	if err := write(s.OutputDir, setup, gameRecords, moveRecords); err != nil {
		return results, err
	}
	return results, nil
}

func summarize(episodes []float64) (mean, stdDev float64) {
	switch len(episodes) {
	case 0:
		return 0, 0
	case 1:
		return episodes[0], 0
	}
	return stat.MeanStdDev(episodes, nil)
}

func write(dir string, setup metrics.Setup, games []metrics.GameRecord, moves []metrics.MoveRecord) error {
	// Store experiment metadata
	writer, err := metrics.NewWriter(dir, setup.Name)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err = writer.WriteSetup(setup); err != nil {
		return err
	}
	log.Info().Msg("stored experiment setup")

	// Store experiment results
	if err = writer.WriteGameRecords(games); err != nil {
		return err
	}
	log.Info().Msg("stored game records")

	if err = writer.WriteMoveRecords(moves); err != nil {
		return err
	}
	log.Info().Msgf("stored move records in %s", writer.Dir())
	return nil
}
