package main

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"reversi/agent"
	"reversi/config"
	"reversi/engine"
	"reversi/experiments"
	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/searcher"
)

// Usage: reversi [config.yaml]
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cfg.Game {
	case experiments.ConnectFour.Name:
		err = run(ctx, cfg, experiments.ConnectFour)
	default:
		err = run(ctx, cfg, experiments.Reversi)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", cfg.Experiment)
	}
}

func run[B game.Board[B]](ctx context.Context, cfg config.Config, g experiments.Game[B]) error {
	if cfg.Experiment == config.Play {
		return play(ctx, cfg, g)
	}

	e, err := experiments.Named(cfg.Experiment, cfg.Settings())
	if err != nil {
		return err
	}
	_, err = experiments.Run(ctx, g, e, cfg.Settings())
	return err
}

// play runs one engine against itself and prints every move with the search's move probabilities.
func play[B game.Board[B]](ctx context.Context, cfg config.Config, g experiments.Game[B]) error {
	settings := cfg.Settings()
	seed := settings.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64)
	}

	searchers := make(map[game.Color]*searcher.MCTS[B], 2)
	for i, color := range []game.Color{game.Black, game.White} {
		mcts, err := experiments.NewSearcher(g, settings.Agent(i+1), seed+uint64(i))
		if err != nil {
			return err
		}
		searchers[color] = mcts
	}

	out := termenv.NewOutput(os.Stdout)
	observe := func(board B, move metrics.MoveMetric) {
		if move.Pass {
			fmt.Fprintf(out, "%d. %s passes\n", move.Step, move.Color)
		} else {
			fmt.Fprintf(out, "%d. %s plays %s (%d simulations in %v)\n",
				move.Step, move.Color, move.Move.Position, move.Episodes, move.Duration.Round(time.Millisecond))
			fmt.Fprintln(out, formatProbabilities(searchers[move.Color].MoveProbabilities()))
		}
		fmt.Fprintln(out, render(out, board))
	}

	e := engine.NewLocal(g.Initial(),
		agent.NewEvaluationAgent(searchers[game.Black]),
		agent.NewEvaluationAgent(searchers[game.White]),
		engine.WithObserver[B](observe),
	)
	winner, gameMetric, _, err := e.Run(ctx)
	if err != nil {
		return err
	}

	result := "draw"
	if winner != game.None {
		result = winner.String() + " wins"
	}
	fmt.Fprintf(out, "%s after %d moves (%d-%d) in %v\n", result, gameMetric.TotalMoves,
		gameMetric.BlackDiscs, gameMetric.WhiteDiscs, gameMetric.Duration.Round(time.Millisecond))
	return nil
}

func formatProbabilities(probabilities map[game.Position]float64) string {
	if probabilities == nil {
		return "  no information"
	}
	moves := lo.Keys(probabilities)
	slices.SortFunc(moves, func(a, b game.Position) int {
		return cmp.Compare(probabilities[b], probabilities[a])
	})
	parts := lo.Map(moves, func(p game.Position, _ int) string {
		return fmt.Sprintf("%s %.2f", p, probabilities[p])
	})
	return "  " + strings.Join(parts, ", ")
}

func render(out *termenv.Output, board any) string {
	s, ok := board.(fmt.Stringer)
	if !ok {
		return fmt.Sprintf("%v\n", board)
	}

	black := out.String("●").Foreground(out.Color("12")).Bold().String()
	white := out.String("●").Foreground(out.Color("15")).Bold().String()
	empty := out.String("·").Faint().String()
	var sb strings.Builder
	for _, square := range s.String() {
		switch square {
		case 'X':
			sb.WriteString(black)
		case 'O':
			sb.WriteString(white)
		case '.':
			sb.WriteString(empty)
		default:
			sb.WriteRune(square)
			continue
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}
