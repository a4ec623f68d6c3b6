package display

import (
	"context"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	"github.com/ChizhovVadim/ccheck/pkg/common"
)

// Screen is the drawing surface. The terminal implementation is backed by
// termbox; tests use an in-memory one.
type Screen interface {
	Size() (width, height int)
	Clear()
	SetCell(x, y int, ch rune, fg, bg termbox.Attribute)
	Flush() error
}

type termboxScreen struct{}

// OpenTerminal takes over the controlling terminal. termbox talks to
// /dev/tty directly, so stdin and stdout stay free for the referee.
func OpenTerminal() (Screen, func(), error) {
	if err := termbox.Init(); err != nil {
		return nil, nil, err
	}
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)
	return termboxScreen{}, termbox.Close, nil
}

func (termboxScreen) Size() (int, int) {
	return termbox.Size()
}

func (termboxScreen) Clear() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
}

func (termboxScreen) SetCell(x, y int, ch rune, fg, bg termbox.Attribute) {
	termbox.SetCell(x, y, ch, fg, bg)
}

func (termboxScreen) Flush() error {
	return termbox.Flush()
}

// PollEvents forwards terminal events until ctx is done.
func PollEvents(ctx context.Context) <-chan termbox.Event {
	var events = make(chan termbox.Event)
	go func() {
		<-ctx.Done()
		termbox.Interrupt()
	}()
	go func() {
		defer close(events)
		for {
			var ev = termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt || ev.Type == termbox.EventError {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

const (
	boardTop  = 2
	boardLeft = 3
)

var boardShift int

func init() {
	boardShift = 1 << 30
	for _, sq := range common.Holes() {
		boardShift = common.Min(boardShift, 2*common.Column(sq)+common.Row(sq))
	}
}

// cellOf is where a hole is drawn. Rows are shifted by half a cell so that
// the six neighbours of a hole surround it.
func cellOf(sq int) (x, y int) {
	return boardLeft + 2*common.Column(sq) + common.Row(sq) - boardShift, boardTop + common.Row(sq)
}

// squareAt maps a screen cell back to a hole.
func squareAt(x, y int) (int, bool) {
	var row = y - boardTop
	var doubled = x - boardLeft + boardShift - row
	if row < 0 || row >= common.BoardSize || doubled < 0 || doubled%2 != 0 {
		return common.SquareNone, false
	}
	var column = doubled / 2
	if column >= common.BoardSize {
		return common.SquareNone, false
	}
	var sq = common.MakeSquare(column, row)
	if !common.IsHole(sq) {
		return common.SquareNone, false
	}
	return sq, true
}

// drawText writes s at (x, y) and returns the column after it.
func drawText(s Screen, x, y int, text string, fg, bg termbox.Attribute) int {
	for _, r := range text {
		s.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
	return x
}
