package referee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/internal/child"
	"github.com/ChizhovVadim/ccheck/internal/transcript"
	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

// ErrProtocolViolation marks a move or line that breaks the rules: a wrong
// side label, an illegal move or an unexpected command.
var ErrProtocolViolation = errors.New("protocol violation")

type Config struct {
	EngineWhite    bool
	EngineBlack    bool
	NoDisplay      bool
	Tournament     bool
	AvgTime        time.Duration
	HistoryPath    string
	TranscriptPath string
	// EngineCmd and DisplayCmd are the argument vectors of the peer processes.
	EngineCmd  []string
	DisplayCmd []string
	// BannerTimeout bounds the wait for a peer's first line.
	BannerTimeout time.Duration
	// Grace is how long peers get to exit after SIGTERM.
	Grace time.Duration
}

func (c Config) engineSide(side common.Side) bool {
	if side == common.White {
		return c.EngineWhite
	}
	return c.EngineBlack
}

// Result is how a game ended. Decided is false when play stopped before a
// winner was known.
type Result struct {
	Winner  common.Side
	Outcome common.Outcome
	Decided bool
	Plies   int
}

func (r Result) String() string {
	if !r.Decided {
		return "game interrupted"
	}
	return fmt.Sprintf("%v wins (%v)", r.Winner, r.Outcome)
}

// Observer is told about every committed move and the end of the game.
type Observer interface {
	MoveCommitted(ply int, side common.Side, m common.Move)
	GameOver(result Result)
}

type source int

const (
	fromHistory source = iota
	fromEngine
	fromDisplay
	fromConsole
)

// Referee owns the authoritative position. It asks the engine, the display or
// the console for each move, validates it, and tells everyone else.
type Referee struct {
	config    Config
	logger    zerolog.Logger
	observers []Observer
	spawn     func(name string, argv []string) (*child.Handle, error)

	stdin  io.Reader
	stdout io.Writer
	prompt io.Writer

	position        common.Position
	engine          *child.Handle
	display         *child.Handle
	displayDegraded bool
	transcript      *transcript.Writer
	console         chan string
}

func New(config Config, logger zerolog.Logger, observers ...Observer) *Referee {
	if config.BannerTimeout <= 0 {
		config.BannerTimeout = 10 * time.Second
	}
	if config.Grace <= 0 {
		config.Grace = 100 * time.Millisecond
	}
	var r = &Referee{
		config:    config,
		logger:    logger,
		observers: observers,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		prompt:    os.Stderr,
		position:  common.NewInitialPosition(),
	}
	r.spawn = func(name string, argv []string) (*child.Handle, error) {
		if len(argv) == 0 {
			return nil, fmt.Errorf("no command for %s", name)
		}
		return child.Spawn(name, argv[0], argv[1:], logger)
	}
	return r
}

// Run plays one game. Peers are always shut down before it returns. Stopping
// ctx ends the game as interrupted and is not an error.
func (r *Referee) Run(ctx context.Context) (result Result, err error) {
	defer func() {
		if shutdownErr := r.shutdown(); shutdownErr != nil {
			r.logger.Error().Err(shutdownErr).Msg("shutdown")
		}
	}()

	if err = r.start(ctx); err != nil {
		return r.interrupted(ctx, err)
	}
	if err = r.replayHistory(ctx); err != nil {
		return r.interrupted(ctx, err)
	}
	for {
		if winner, outcome, ok := r.position.Result(); ok {
			return r.finish(Result{Winner: winner, Outcome: outcome, Decided: true}), nil
		}
		var side = r.position.SideToMove
		var m, from, resigned, err = r.awaitMove(ctx, side)
		if err != nil {
			return r.interrupted(ctx, err)
		}
		if resigned {
			r.logger.Info().Str("side", side.String()).Msg("resigned")
			return r.finish(Result{Winner: side.Opponent(), Outcome: common.Resigned, Decided: true}), nil
		}
		if err = r.commit(ctx, m, from); err != nil {
			return r.interrupted(ctx, err)
		}
	}
}

// Position is the authoritative game state.
func (r *Referee) Position() common.Position {
	return r.position
}

func (r *Referee) start(ctx context.Context) error {
	if r.config.TranscriptPath != "" {
		var w, err = transcript.Create(r.config.TranscriptPath)
		if err != nil {
			return err
		}
		r.transcript = w
	}
	if !r.config.NoDisplay {
		var h, err = r.startPeer(ctx, "display", r.config.DisplayCmd)
		if err != nil {
			return err
		}
		r.display = h
	}
	if r.config.EngineWhite || r.config.EngineBlack {
		var h, err = r.startPeer(ctx, "engine", r.config.EngineCmd)
		if err != nil {
			return err
		}
		r.engine = h
	}
	return nil
}

// startPeer spawns a peer and waits for its banner. The peer installs its
// wakeup handler before the banner, so it is safe to signal afterwards.
func (r *Referee) startPeer(ctx context.Context, name string, argv []string) (*child.Handle, error) {
	var h, err = r.spawn(name, argv)
	if err != nil {
		return nil, err
	}
	banner, err := h.Channel().Receive(ctx, r.config.BannerTimeout)
	if err != nil {
		child.Shutdown(r.config.Grace, h)
		return nil, fmt.Errorf("%s banner: %w", name, err)
	}
	r.logger.Info().Str("peer", name).Int("pid", h.Pid()).Str("banner", banner).Msg("peer ready")
	return h, nil
}

func (r *Referee) replayHistory(ctx context.Context) error {
	if r.config.HistoryPath == "" {
		return nil
	}
	var entries, err = transcript.Load(r.config.HistoryPath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if _, _, over := r.position.Result(); over {
			return fmt.Errorf("history line %d: %w: game already over", entry.Line, ErrProtocolViolation)
		}
		if entry.HasSide && entry.Side != r.position.SideToMove {
			return fmt.Errorf("history line %d: %w: %v to move", entry.Line, ErrProtocolViolation, r.position.SideToMove)
		}
		if !r.position.IsLegal(entry.Move) {
			return fmt.Errorf("history line %d: %w: illegal move %v", entry.Line, ErrProtocolViolation, entry.Move)
		}
		if err := r.commit(ctx, entry.Move, fromHistory); err != nil {
			return err
		}
	}
	r.logger.Info().Int("moves", len(entries)).Msg("history replayed")
	return nil
}

// commit applies a validated move, records it and notifies the peers that
// did not make it.
func (r *Referee) commit(ctx context.Context, m common.Move, from source) error {
	var side = r.position.SideToMove
	var ply = r.position.Ply
	var next common.Position
	if !r.position.MakeMove(m, &next) {
		return fmt.Errorf("%w: cannot apply %v", ErrProtocolViolation, m)
	}
	r.position = next

	if err := r.transcript.Write(ply, side, m); err != nil {
		return err
	}
	if r.config.Tournament && from == fromEngine {
		fmt.Fprintf(r.stdout, "@@@%v:%v\n", side, m)
	}
	r.logger.Debug().Int("ply", ply).Str("side", side.String()).Str("move", m.String()).Msg("commit")
	for _, o := range r.observers {
		o.MoveCommitted(ply, side, m)
	}

	var inform = protocol.NewInform(side, m)
	if from != fromDisplay {
		if err := r.informDisplay(ctx, inform); err != nil {
			return err
		}
	}
	if from != fromEngine && r.engine != nil {
		if err := r.informEngine(ctx, inform); err != nil {
			return err
		}
	}
	return nil
}

func (r *Referee) finish(result Result) Result {
	result.Plies = r.position.Ply
	fmt.Fprintf(r.stdout, "%v wins\n", result.Winner)
	r.logger.Info().Str("result", result.String()).Int("plies", result.Plies).Msg("game over")
	for _, o := range r.observers {
		o.GameOver(result)
	}
	return result
}

// interrupted ends the game without a winner. A cancelled ctx is the caller
// stopping us and is not reported as an error.
func (r *Referee) interrupted(ctx context.Context, err error) (Result, error) {
	var result = Result{Plies: r.position.Ply}
	for _, o := range r.observers {
		o.GameOver(result)
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		r.logger.Info().Msg("interrupted")
		return result, nil
	}
	if errors.Is(err, errConsoleClosed) {
		r.logger.Info().Msg("input closed")
		return result, nil
	}
	return result, err
}

func (r *Referee) shutdown() error {
	var err = child.Shutdown(r.config.Grace, r.engine, r.display)
	if closeErr := r.transcript.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
