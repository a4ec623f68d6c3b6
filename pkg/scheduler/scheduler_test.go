package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/engine"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

type harness struct {
	s       *Scheduler
	lines   chan string
	replies chan string
	done    chan error
}

func newTestScheduler(options Options) *Scheduler {
	var engineOptions = engine.NewOptions()
	engineOptions.Hash = 1
	return New(engine.NewEngine(engineOptions), options, zerolog.Nop())
}

func startHarness(t *testing.T, options Options) *harness {
	t.Helper()
	var h = &harness{
		s:       newTestScheduler(options),
		lines:   make(chan string),
		replies: make(chan string, 16),
		done:    make(chan error, 1),
	}
	var pr, pw = io.Pipe()
	go protocol.ReadLines(pr, h.replies)
	go func() {
		var err = h.s.Run(context.Background(), h.lines, pw)
		pw.Close()
		h.done <- err
	}()
	return h
}

func (h *harness) send(t *testing.T, line string) {
	t.Helper()
	select {
	case h.lines <- line:
	case err := <-h.done:
		t.Fatalf("scheduler stopped before %q: %v", line, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not take %q", line)
	}
}

func (h *harness) receive(t *testing.T) string {
	t.Helper()
	select {
	case line, ok := <-h.replies:
		if !ok {
			t.Fatal("scheduler output closed")
		}
		return line
	case <-time.After(10 * time.Second):
		t.Fatal("no answer from scheduler")
	}
	return ""
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	close(h.lines)
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	return nil
}

// playReply checks that line is a legal move for the side to move in p and
// plays it.
func playReply(t *testing.T, p *common.Position, line string) {
	t.Helper()
	var cmd, err = protocol.Parse(line)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Kind != protocol.Reply || cmd.IsResign() {
		t.Fatalf("expected a move, got %q", line)
	}
	m, err := cmd.ParseMove(p)
	if err != nil {
		t.Fatal(err)
	}
	var child common.Position
	p.MakeMove(m, &child)
	*p = child
}

func TestRequestAndInform(t *testing.T) {
	var options = NewOptions()
	options.DefaultDepth = 2
	options.Ponder = false
	var h = startHarness(t, options)
	var p = common.NewInitialPosition()

	for i := 0; i < 3; i++ {
		h.send(t, "<")
		playReply(t, &p, h.receive(t))

		var reply = p.GenerateMoves(nil)[0]
		h.send(t, protocol.NewInform(p.SideToMove, reply).String())
		if line := h.receive(t); line != "ok" {
			t.Fatalf("expected ok, got %q", line)
		}
		var child common.Position
		p.MakeMove(reply, &child)
		p = child
	}

	if err := h.stop(t); err != nil {
		t.Fatal(err)
	}
	if h.s.Position().Key != p.Key {
		t.Error("mirror diverged from the game")
	}
}

func TestIllegalInform(t *testing.T) {
	var tests = []string{
		">black:d10-e10",
		">white:n5-k5",
		">white:zz",
		"white:n5-m5",
		"hello",
	}
	for _, line := range tests {
		var options = NewOptions()
		options.Ponder = false
		var h = startHarness(t, options)
		h.send(t, line)
		select {
		case err := <-h.done:
			if !errors.Is(err, ErrProtocolViolation) {
				t.Error(line, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("violation not reported", line)
		}
		close(h.lines)
	}
}

func TestResignWithoutMoves(t *testing.T) {
	var s = newTestScheduler(NewOptions())
	s.out = protocol.NewChannel("referee", io.Discard, nil, nil)
	// A won position for the opponent: nothing to play.
	var p common.Position
	var i = 0
	for _, sq := range common.Goal(common.White) {
		p.Holes[sq] = common.WhitePeg
		p.Pegs[common.White][i] = int16(sq)
		i++
	}
	i = 0
	for _, sq := range common.Holes() {
		if i < common.PegCount && common.Row(sq) == 8 {
			p.Holes[sq] = common.BlackPeg
			p.Pegs[common.Black][i] = int16(sq)
			i++
		}
	}
	p.SideToMove = common.Black
	p.Key = p.ComputeKey()
	s.position = p
	if m := s.bestMove(); m != common.MoveEmpty {
		t.Error("move in a finished game", m)
	}
}

func TestCarryOver(t *testing.T) {
	var s = newTestScheduler(NewOptions())
	s.out = protocol.NewChannel("referee", io.Discard, nil, nil)
	var result, err = s.engine.Search(context.Background(), &s.position, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Line) < 2 {
		t.Fatal("short line", result.Line)
	}
	s.line = result.Line
	s.bestDepth = 4

	var head = result.Line[0]
	if err := s.applyOpponentMove(protocol.NewInform(common.White, head)); err != nil {
		t.Fatal(err)
	}
	if s.bestDepth != 3 || len(s.line) != len(result.Line)-1 || s.line[0] != result.Line[1] {
		t.Fatal("line not carried over", s.bestDepth, s.line)
	}

	var other common.Move
	for _, m := range s.position.GenerateMoves(nil) {
		if m != s.line[0] {
			other = m
			break
		}
	}
	if err := s.applyOpponentMove(protocol.NewInform(common.Black, other)); err != nil {
		t.Fatal(err)
	}
	if s.bestDepth != 0 || len(s.line) != 0 {
		t.Error("stale line kept", s.bestDepth, s.line)
	}
}

func TestPacedAnswer(t *testing.T) {
	const avg = 150 * time.Millisecond
	var options = NewOptions()
	options.AvgTime = avg
	options.Ponder = false
	var h = startHarness(t, options)
	var p = common.NewInitialPosition()

	const moves = 3
	for i := 0; i < moves; i++ {
		var start = time.Now()
		h.send(t, "<")
		playReply(t, &p, h.receive(t))
		var elapsed = time.Since(start)
		if elapsed < avg-10*time.Millisecond || elapsed > avg+time.Second {
			t.Errorf("answer after %v", elapsed)
		}
		var reply = p.GenerateMoves(nil)[0]
		h.send(t, protocol.NewInform(p.SideToMove, reply).String())
		h.receive(t)
		var child common.Position
		p.MakeMove(reply, &child)
		p = child
	}

	if err := h.stop(t); err != nil {
		t.Fatal(err)
	}
	var clock = h.s.clock
	if clock.moves[common.White] != moves {
		t.Error(clock.moves)
	}
	if clock.used[common.White] > avg*moves+time.Second {
		t.Error("overspent", clock.used[common.White])
	}
}

func TestPonderingIsPreempted(t *testing.T) {
	var options = NewOptions()
	options.AvgTime = 100 * time.Millisecond
	var h = startHarness(t, options)
	var p = common.NewInitialPosition()

	// Let the scheduler think on the initial position first.
	time.Sleep(100 * time.Millisecond)
	var start = time.Now()
	h.send(t, "<")
	playReply(t, &p, h.receive(t))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Error("pondering delayed the answer", elapsed)
	}
	if err := h.stop(t); err != nil {
		t.Fatal(err)
	}
}

func TestTimeBudget(t *testing.T) {
	var tests = []struct {
		avg   time.Duration
		moves int
		used  time.Duration
		want  time.Duration
	}{
		{0, 5, time.Second, 0},
		{time.Second, 0, 0, time.Second},
		{time.Second, 3, 2 * time.Second, 2 * time.Second},
		{time.Second, 1, 5 * time.Second, minBudget},
	}
	for _, test := range tests {
		if got := timeBudget(test.avg, test.moves, test.used); got != test.want {
			t.Error(test, got)
		}
	}
}

func TestPacingDelay(t *testing.T) {
	var tests = []struct {
		avg, elapsed, want time.Duration
	}{
		{0, 0, 0},
		{time.Second, 300 * time.Millisecond, 700 * time.Millisecond},
		{time.Second, time.Second, 0},
		{time.Second, time.Second - time.Millisecond/2, 0},
	}
	for _, test := range tests {
		if got := pacingDelay(test.avg, test.elapsed); got != test.want {
			t.Error(test, got)
		}
	}
}
