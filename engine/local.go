package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reversi/agent"
	"reversi/experiments/metrics"
	"reversi/game"
)

// Observer is called after every turn with the board that resulted from it.
type Observer[B game.Board[B]] func(board B, move metrics.MoveMetric)

type Local[B game.Board[B]] struct {
	board    B
	agents   map[game.Color]agent.Agent[B]
	maxMoves int
	observer Observer[B]
}

type Option[B game.Board[B]] func(e *Local[B])

func WithMaxMoves[B game.Board[B]](moves int) Option[B] {
	return func(e *Local[B]) {
		if moves > 0 {
			e.maxMoves = moves
		}
	}
}

func WithObserver[B game.Board[B]](observer Observer[B]) Option[B] {
	return func(e *Local[B]) {
		e.observer = observer
	}
}

// NewLocal sets up a game in-process between two agents, black moving first.
func NewLocal[B game.Board[B]](board B, black, white agent.Agent[B], options ...Option[B]) *Local[B] {
	if black == nil || white == nil {
		panic("need an agent for each color")
	}
	e := &Local[B]{
		board:    board,
		agents:   map[game.Color]agent.Agent[B]{game.Black: black, game.White: white},
		maxMoves: MaxMoves,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Board returns the current position.
func (e *Local[B]) Board() B {
	return e.board
}

// Run executes the entire game loop until the board is finished. A turn where the color to move
// has no legal move is recorded as a pass.
func (e *Local[B]) Run(ctx context.Context) (game.Color, metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{
		Starting:  game.Black,
		StartTime: time.Now(),
	}
	log.Debug().Msgf("%s is starting", gameMetric.Starting)

	var moveMetrics []metrics.MoveMetric
	color := gameMetric.Starting
	step := 1
	for ; !e.board.IsFinished() && step <= e.maxMoves; step++ {
		move, ok, searchMetric, err := e.agents[color].FindMove(ctx, e.board, color)
		if err != nil {
			return game.None, gameMetric, moveMetrics, fmt.Errorf("%s at step %d: %w", color, step, err)
		}
		if ok {
			e.board = e.board.ApplyMove(move)
		}

		moveMetric := metrics.MoveMetric{
			Step:         step,
			Color:        color,
			Move:         move,
			Pass:         !ok,
			SearchMetric: searchMetric,
		}
		moveMetrics = append(moveMetrics, moveMetric)
		if e.observer != nil {
			e.observer(e.board, moveMetric)
		}
		color = color.Opponent()
	}

	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = step - 1
	if c, ok := any(e.board).(counter); ok {
		gameMetric.BlackDiscs = c.Count(game.Black)
		gameMetric.WhiteDiscs = c.Count(game.White)
	}

	if !e.board.IsFinished() {
		log.Warn().Msgf("stopped after %d moves without a winner", e.maxMoves)
		gameMetric.Truncated = true
		return game.None, gameMetric, moveMetrics, nil
	}
	gameMetric.Winner = e.board.Winner()
	return gameMetric.Winner, gameMetric, moveMetrics, nil
}
