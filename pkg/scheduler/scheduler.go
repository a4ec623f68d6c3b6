package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/engine"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

// ErrProtocolViolation is returned by Run when the referee sends a line the
// engine cannot accept. The engine process exits with a distinct status.
var ErrProtocolViolation = errors.New("protocol violation")

// DefaultDepth bounds deepening when no average time is configured.
const DefaultDepth = 6

type Options struct {
	AvgTime      time.Duration
	MaxDepth     int
	DefaultDepth int
	Ponder       bool
	Verbose      bool
}

func NewOptions() Options {
	return Options{
		MaxDepth:     engine.MaxDepth,
		DefaultDepth: DefaultDepth,
		Ponder:       true,
	}
}

type state int

const (
	stateIdle state = iota
	stateThinking
	stateResponding
	stateApplying
	statePondering
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateThinking:
		return "thinking"
	case stateResponding:
		return "responding"
	case stateApplying:
		return "applying"
	case statePondering:
		return "pondering"
	}
	return "unknown"
}

// Scheduler decides when the engine searches. It answers requests within a
// time budget, applies the opponent's moves, and keeps thinking while the
// referee is busy elsewhere. Every wait is preemptible by a wakeup.
type Scheduler struct {
	options  Options
	logger   zerolog.Logger
	engine   *engine.Engine
	position common.Position
	state    state
	clock    clock

	line       []common.Move
	bestDepth  int
	bestScore  int
	depthTimes [engine.MaxDepth + 1]time.Duration

	commands chan string
	closed   atomic.Bool
	wake     chan struct{}
	out      *protocol.Channel
}

func New(eng *engine.Engine, options Options, logger zerolog.Logger) *Scheduler {
	if options.MaxDepth <= 0 || options.MaxDepth > engine.MaxDepth {
		options.MaxDepth = engine.MaxDepth
	}
	if options.DefaultDepth <= 0 {
		options.DefaultDepth = DefaultDepth
	}
	return &Scheduler{
		options:  options,
		logger:   logger,
		engine:   eng,
		position: common.NewInitialPosition(),
		commands: make(chan string, 16),
		wake:     make(chan struct{}, 1),
	}
}

// Wakeup raises the wakeup token. Tokens coalesce: any number of wakeups
// before the scheduler looks count as one.
func (s *Scheduler) Wakeup() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Position returns the scheduler's mirror of the game.
func (s *Scheduler) Position() common.Position {
	return s.position
}

// Run serves referee commands read from lines and writes answers to w. It
// returns nil when lines is closed, ctx.Err() on cancellation and an error
// wrapping ErrProtocolViolation on a bad command.
func (s *Scheduler) Run(ctx context.Context, lines <-chan string, w io.Writer) error {
	s.out = protocol.NewChannel("referee", w, nil, nil)
	go func() {
		defer func() {
			s.closed.Store(true)
			close(s.commands)
			s.Wakeup()
		}()
		for line := range lines {
			if line == "" {
				continue
			}
			select {
			case s.commands <- line:
				s.Wakeup()
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		s.setState(stateIdle)
		var line, ok, err = s.nextCommand(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := s.handle(ctx, line); err != nil {
			return err
		}
	}
}

// nextCommand waits for the next command, thinking about the current
// position in the meantime.
func (s *Scheduler) nextCommand(ctx context.Context) (string, bool, error) {
	s.drainWakeups()
	select {
	case line, ok := <-s.commands:
		return line, ok, nil
	default:
	}
	if s.shouldPonder() {
		s.ponder(ctx)
	}
	select {
	case line, ok := <-s.commands:
		return line, ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (s *Scheduler) handle(ctx context.Context, line string) error {
	var cmd, err = protocol.Parse(line)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrProtocolViolation, line, err)
	}
	switch cmd.Kind {
	case protocol.Request:
		return s.respond(ctx)
	case protocol.Inform:
		return s.applyOpponentMove(cmd)
	}
	return fmt.Errorf("%w: unexpected command %q", ErrProtocolViolation, line)
}

func (s *Scheduler) applyOpponentMove(cmd protocol.Command) error {
	s.setState(stateApplying)
	var m, err = cmd.ParseMove(&s.position)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	s.makeMove(m)
	if err := s.out.Write(protocol.NewAck()); err != nil {
		return err
	}
	if s.carryOver(m) {
		s.logger.Debug().Str("move", m.String()).Int("depth", s.bestDepth).Msg("predicted")
	}
	return nil
}

func (s *Scheduler) respond(ctx context.Context) error {
	s.setState(stateThinking)
	var start = time.Now()
	var side = s.position.SideToMove
	var budget = timeBudget(s.options.AvgTime, s.clock.moves[side], s.clock.used[side])

	var searchCtx, cancel = newSearchContext(ctx, start, budget)
	var stop = s.preemptOnCommand(searchCtx, cancel)
	s.deepen(searchCtx, start, budget)
	stop()
	cancel()

	s.setState(stateResponding)
	var move = s.bestMove()
	if err := sleep(ctx, pacingDelay(s.options.AvgTime, time.Since(start))); err != nil {
		return err
	}
	var reply protocol.Command
	if move == common.MoveEmpty {
		reply = protocol.NewResign(side)
	} else {
		reply = protocol.NewReply(side, move)
	}
	if err := s.out.Write(reply); err != nil {
		return err
	}

	var spent = time.Since(start)
	s.clock.record(int(side), spent)
	s.logger.Info().
		Str("side", side.String()).
		Str("move", reply.Move).
		Int("depth", s.bestDepth).
		Int("score", s.bestScore).
		Dur("time", spent).
		Dur("budget", budget).
		Msg("move")
	if move != common.MoveEmpty {
		s.makeMove(move)
		s.carryOver(move)
	}
	return nil
}

func (s *Scheduler) ponder(ctx context.Context) {
	s.setState(statePondering)
	var ponderCtx, cancel = context.WithCancel(ctx)
	defer cancel()
	var stop = s.preemptOnCommand(ponderCtx, cancel)
	defer stop()
	s.deepen(ponderCtx, time.Now(), 0)
}

func (s *Scheduler) shouldPonder() bool {
	return s.options.Ponder &&
		!s.position.IsTerminal() &&
		s.bestDepth < s.depthLimit() &&
		!(len(s.line) > 0 && engine.IsDecisive(s.bestScore))
}

// preemptOnCommand cancels the search when a wakeup finds a command waiting.
// A wakeup with nothing pending is spurious: the reader raises another one
// as soon as it queues the line.
func (s *Scheduler) preemptOnCommand(ctx context.Context, cancel context.CancelFunc) (stop func()) {
	var done = make(chan struct{})
	var exited = make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case <-s.wake:
				if s.pending() {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// pending reports whether the referee is waiting on the scheduler.
func (s *Scheduler) pending() bool {
	return len(s.commands) > 0 || s.closed.Load()
}

func (s *Scheduler) drainWakeups() {
	for {
		select {
		case <-s.wake:
		default:
			return
		}
	}
}

func (s *Scheduler) makeMove(m common.Move) {
	var child common.Position
	if !s.position.MakeMove(m, &child) {
		panic(fmt.Errorf("scheduler: move %v rejected by position", m))
	}
	s.position = child
}

func (s *Scheduler) setState(st state) {
	if s.state != st {
		s.state = st
		s.logger.Debug().Stringer("state", st).Msg("scheduler")
	}
}
