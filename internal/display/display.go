// Package display is the terminal front end a human plays through. It
// mirrors the game from the referee's informs and answers requests with the
// move typed or clicked on the board.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nsf/termbox-go"
	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

const Banner = "ccheck display"

var pegColors = [2]termbox.Attribute{termbox.ColorRed, termbox.ColorBlue}

type Display struct {
	logger   zerolog.Logger
	screen   Screen
	position common.Position
	waiting  bool
	input    []rune
	status   string
	wake     chan struct{}
	out      *protocol.Channel
}

func New(screen Screen, logger zerolog.Logger) *Display {
	return &Display{
		logger:   logger,
		screen:   screen,
		position: common.NewInitialPosition(),
		status:   "waiting for the referee",
		wake:     make(chan struct{}, 1),
	}
}

// Wakeup is the referee's signal. Lines arrive on their own; the display
// only redraws.
func (d *Display) Wakeup() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run serves the referee until its stream ends, ctx is done or the user
// quits with Ctrl-C.
func (d *Display) Run(ctx context.Context, lines <-chan string, events <-chan termbox.Event, w io.Writer) error {
	d.out = protocol.NewChannel("referee", w, nil, nil)
	d.draw()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := d.handleLine(line); err != nil {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			var quit, err = d.handleEvent(ev)
			if err != nil || quit {
				return err
			}
		case <-d.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
		d.draw()
	}
}

func (d *Display) handleLine(line string) error {
	var cmd, err = protocol.Parse(line)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case protocol.Inform:
		var m, err = cmd.ParseMove(&d.position)
		if err != nil {
			return fmt.Errorf("inform %q: %w", line, err)
		}
		d.apply(m)
		d.status = fmt.Sprintf("%v played %v", cmd.Side, m)
		return d.out.Write(protocol.NewAck())
	case protocol.Request:
		d.waiting = true
		d.input = d.input[:0]
		d.status = fmt.Sprintf("your move as %v: type from-to or click two holes, Enter plays, Esc resigns", d.position.SideToMove)
		return nil
	}
	return fmt.Errorf("unexpected command %q", line)
}

func (d *Display) handleEvent(ev termbox.Event) (quit bool, err error) {
	switch ev.Type {
	case termbox.EventKey:
		switch ev.Key {
		case termbox.KeyCtrlC:
			return true, nil
		case termbox.KeyEsc:
			if d.waiting {
				d.waiting = false
				d.status = "you resigned"
				return false, d.out.Write(protocol.NewResign(d.position.SideToMove))
			}
		case termbox.KeyEnter:
			return false, d.submit()
		case termbox.KeyBackspace, termbox.KeyBackspace2:
			if len(d.input) > 0 {
				d.input = d.input[:len(d.input)-1]
			}
		case termbox.KeySpace:
		default:
			if ev.Ch != 0 && d.waiting {
				d.input = append(d.input, ev.Ch)
			}
		}
	case termbox.EventMouse:
		if ev.Key == termbox.MouseLeft && d.waiting {
			if sq, ok := squareAt(ev.MouseX, ev.MouseY); ok {
				d.click(sq)
			}
		}
	case termbox.EventResize:
	}
	return false, nil
}

// click fills the input with the clicked hole: the first click picks the
// peg, the second the target.
func (d *Display) click(sq int) {
	var text = strings.TrimSpace(string(d.input))
	var name = common.SquareName(sq)
	switch {
	case text == "" || strings.Contains(strings.TrimSuffix(text, "-"), "-"):
		text = name + "-"
	case strings.HasSuffix(text, "-"):
		text += name
	default:
		text += "-" + name
	}
	d.input = []rune(text)
}

func (d *Display) submit() error {
	if !d.waiting {
		return nil
	}
	var text = strings.TrimSpace(string(d.input))
	var m, err = common.ParseMove(text)
	if err != nil {
		d.status = err.Error()
		return nil
	}
	if !d.position.IsLegal(m) {
		d.status = fmt.Sprintf("%v is not legal here", m)
		d.input = d.input[:0]
		return nil
	}
	var side = d.position.SideToMove
	if err := d.out.Write(protocol.NewReply(side, m)); err != nil {
		return err
	}
	d.apply(m)
	d.waiting = false
	d.input = d.input[:0]
	d.status = fmt.Sprintf("you played %v", m)
	return nil
}

func (d *Display) apply(m common.Move) {
	var child common.Position
	if d.position.MakeMove(m, &child) {
		d.position = child
	}
}

func (d *Display) draw() {
	var s = d.screen
	s.Clear()
	var fg = termbox.ColorDefault
	var bg = termbox.ColorDefault
	drawText(s, 0, 0, fmt.Sprintf("%v to move, ply %d", d.position.SideToMove, d.position.Ply), fg|termbox.AttrBold, bg)

	for row := 0; row < common.BoardSize; row++ {
		drawText(s, 0, boardTop+row, string(rune('a'+row)), fg, bg)
	}
	for _, sq := range common.Holes() {
		var x, y = cellOf(sq)
		var glyph, color = '·', fg
		switch d.position.PieceAt(sq) {
		case common.WhitePeg:
			glyph, color = 'X', pegColors[common.White]
		case common.BlackPeg:
			glyph, color = 'O', pegColors[common.Black]
		}
		if d.position.LastMove != common.MoveEmpty &&
			(sq == d.position.LastMove.From() || sq == d.position.LastMove.To()) {
			color |= termbox.AttrUnderline
		}
		s.SetCell(x, y, glyph, color, bg)
	}

	var bottom = boardTop + common.BoardSize + 1
	drawText(s, 0, bottom, d.status, fg, bg)
	if d.waiting {
		var x = drawText(s, 0, bottom+1, "> ", fg|termbox.AttrBold, bg)
		drawText(s, x, bottom+1, string(d.input), fg, bg)
	}
	if _, _, over := d.position.Result(); over {
		drawText(s, 0, bottom+2, "game over", fg|termbox.AttrBold, bg)
	}
	if err := s.Flush(); err != nil {
		d.logger.Debug().Err(err).Msg("flush")
	}
}
