package referee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

const (
	displayRetries = 3
	displayBackoff = 80 * time.Millisecond
)

var errConsoleClosed = errors.New("console input closed")

// awaitMove asks whoever plays side for a move and validates it against the
// current position.
func (r *Referee) awaitMove(ctx context.Context, side common.Side) (m common.Move, from source, resigned bool, err error) {
	switch {
	case r.config.engineSide(side):
		r.logger.Debug().Str("side", side.String()).Msg("engine thinking")
		m, resigned, err = r.requestEngine(ctx, side)
		return m, fromEngine, resigned, err
	case r.display != nil && !r.displayDegraded && !r.config.Tournament:
		fmt.Fprintf(r.prompt, "your move as %v (use the board)\n", side)
		m, resigned, err = r.requestDisplay(ctx, side)
		return m, fromDisplay, resigned, err
	default:
		m, resigned, err = r.readConsole(ctx, side)
		return m, fromConsole, resigned, err
	}
}

func (r *Referee) requestEngine(ctx context.Context, side common.Side) (common.Move, bool, error) {
	var ch = r.engine.Channel()
	if err := ch.Send(protocol.NewRequest()); err != nil {
		return common.MoveEmpty, false, err
	}
	var cmd, err = ch.ReceiveCommand(ctx, 0)
	if err != nil {
		return common.MoveEmpty, false, r.peerError(ctx, "engine", err)
	}
	return r.checkReply(ch.Name(), cmd)
}

// requestDisplay asks the human through the display. The wakeup is repeated
// a few times in case the display missed it. After that the human may answer
// on the board or on the console, for as long as it takes. A console answer
// means the display is not being used and it is marked degraded.
func (r *Referee) requestDisplay(ctx context.Context, side common.Side) (common.Move, bool, error) {
	var ch = r.display.Channel()
	if err := ch.Write(protocol.NewRequest()); err != nil {
		r.degradeDisplay(err)
		return r.readConsole(ctx, side)
	}
	var line, err = r.nudgeDisplay(ctx)
	if errors.Is(err, protocol.ErrTimeout) {
		return r.awaitBoardOrConsole(ctx, side)
	}
	return r.displayReply(ctx, line, err)
}

type displayAnswer struct {
	line string
	err  error
}

func (r *Referee) awaitBoardOrConsole(ctx context.Context, side common.Side) (common.Move, bool, error) {
	var receiveCtx, cancel = context.WithCancel(ctx)
	defer cancel()
	var answers = make(chan displayAnswer, 1)
	go func() {
		var line, err = r.display.Channel().Receive(receiveCtx, 0)
		answers <- displayAnswer{line, err}
	}()

	fmt.Fprintf(r.prompt, "%v to move: ", side)
	var console = r.consoleLines()
	for {
		select {
		case answer := <-answers:
			return r.displayReply(ctx, answer.line, answer.err)
		case line, ok := <-console:
			if !ok {
				// Only the board is left.
				console = nil
				continue
			}
			cancel()
			r.degradeDisplay(errors.New("move entered on the console"))
			var m, resigned, again, err = r.parseConsoleLine(line, side)
			if again {
				return r.readConsole(ctx, side)
			}
			return m, resigned, err
		}
	}
}

func (r *Referee) displayReply(ctx context.Context, line string, err error) (common.Move, bool, error) {
	var ch = r.display.Channel()
	if err != nil {
		return common.MoveEmpty, false, r.peerError(ctx, "display", err)
	}
	cmd, err := protocol.Parse(line)
	if err != nil {
		return common.MoveEmpty, false, fmt.Errorf("%w: %v", ErrProtocolViolation,
			&protocol.ProtocolError{Peer: ch.Name(), Line: line, Reason: err})
	}
	return r.checkReply(ch.Name(), cmd)
}

// checkReply validates a peer's answer to a request.
func (r *Referee) checkReply(peer string, cmd protocol.Command) (common.Move, bool, error) {
	if cmd.Kind != protocol.Reply {
		return common.MoveEmpty, false, fmt.Errorf("%w: %s sent %q instead of a move", ErrProtocolViolation, peer, cmd)
	}
	if cmd.Side != r.position.SideToMove {
		return common.MoveEmpty, false, fmt.Errorf("%w: %s moved for %v, %v to move",
			ErrProtocolViolation, peer, cmd.Side, r.position.SideToMove)
	}
	if cmd.IsResign() {
		return common.MoveEmpty, true, nil
	}
	var m, err = cmd.ParseMove(&r.position)
	if err != nil {
		return common.MoveEmpty, false, fmt.Errorf("%w: %s: %v", ErrProtocolViolation, peer, err)
	}
	return m, false, nil
}

func (r *Referee) informEngine(ctx context.Context, inform protocol.Command) error {
	var ch = r.engine.Channel()
	if err := ch.Send(inform); err != nil {
		return err
	}
	var cmd, err = ch.ReceiveCommand(ctx, 0)
	if err != nil {
		return r.peerError(ctx, "engine", err)
	}
	if cmd.Kind != protocol.Ack {
		return fmt.Errorf("%w: engine answered %q to %q", ErrProtocolViolation, cmd, inform)
	}
	return nil
}

// informDisplay tells the display about a move. The display is best effort:
// when it does not acknowledge, play goes on without it.
func (r *Referee) informDisplay(ctx context.Context, inform protocol.Command) error {
	if r.display == nil || r.displayDegraded {
		return nil
	}
	var ch = r.display.Channel()
	if err := ch.Write(inform); err != nil {
		r.degradeDisplay(err)
		return nil
	}
	var line, err = r.nudgeDisplay(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.degradeDisplay(err)
		return nil
	}
	if cmd, parseErr := protocol.Parse(line); parseErr != nil || cmd.Kind != protocol.Ack {
		r.degradeDisplay(fmt.Errorf("unexpected answer %q", line))
	}
	return nil
}

// nudgeDisplay raises the wakeup and waits a little for an answer, several
// times. It returns ErrTimeout when the display stayed silent.
func (r *Referee) nudgeDisplay(ctx context.Context) (string, error) {
	var ch = r.display.Channel()
	var err error
	for attempt := 0; attempt < displayRetries; attempt++ {
		if wakeErr := ch.Wakeup(); wakeErr != nil {
			r.logger.Debug().Err(wakeErr).Int("attempt", attempt).Msg("display wakeup")
		}
		var line string
		line, err = ch.Receive(ctx, displayBackoff)
		if err == nil {
			return line, nil
		}
		if !errors.Is(err, protocol.ErrTimeout) {
			return "", err
		}
	}
	return "", err
}

func (r *Referee) degradeDisplay(err error) {
	r.displayDegraded = true
	r.logger.Warn().Err(err).Msg("display not answering, continuing without it")
}

func (r *Referee) consoleLines() <-chan string {
	if r.console == nil {
		r.console = make(chan string)
		go protocol.ReadLines(r.stdin, r.console)
	}
	return r.console
}

// readConsole reads a move typed on the referee's own input. Unreadable text
// asks again; a well-formed but illegal move is a violation.
func (r *Referee) readConsole(ctx context.Context, side common.Side) (common.Move, bool, error) {
	var console = r.consoleLines()
	for {
		fmt.Fprintf(r.prompt, "%v to move: ", side)
		var line string
		var ok bool
		select {
		case line, ok = <-console:
		case <-ctx.Done():
			return common.MoveEmpty, false, ctx.Err()
		}
		if !ok {
			return common.MoveEmpty, false, errConsoleClosed
		}
		var m, resigned, again, err = r.parseConsoleLine(line, side)
		if again {
			continue
		}
		return m, resigned, err
	}
}

// parseConsoleLine reports again when the line should be typed once more.
func (r *Referee) parseConsoleLine(line string, side common.Side) (m common.Move, resigned, again bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return common.MoveEmpty, false, true, nil
	}
	if i := strings.IndexByte(line, ':'); i >= 0 {
		var labelled, err = common.ParseSide(line[:i])
		if err != nil || labelled != side {
			fmt.Fprintf(r.prompt, "it is %v's move\n", side)
			return common.MoveEmpty, false, true, nil
		}
		line = line[i+1:]
	}
	if line == common.ResignText {
		return common.MoveEmpty, true, false, nil
	}
	m, err = common.ParseMove(line)
	if err != nil {
		fmt.Fprintln(r.prompt, err)
		return common.MoveEmpty, false, true, nil
	}
	if !r.position.IsLegal(m) {
		return common.MoveEmpty, false, false, fmt.Errorf("%w: illegal move %v for %v", ErrProtocolViolation, m, side)
	}
	return m, false, false, nil
}

// peerError turns a failed receive into the error reported for the game.
func (r *Referee) peerError(ctx context.Context, name string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var protocolErr *protocol.ProtocolError
	if errors.As(err, &protocolErr) {
		return fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	if errors.Is(err, protocol.ErrClosed) {
		var h = r.engine
		if name == "display" {
			h = r.display
		}
		select {
		case <-h.Exited():
		case <-time.After(time.Second):
		}
		if status := h.ExitStatus(); status != "" {
			return fmt.Errorf("%s %s: %w", name, status, err)
		}
	}
	return err
}
