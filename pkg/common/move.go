package common

import (
	"fmt"
	"strings"
)

type Move int32

const MoveEmpty = Move(0)

// ResignText is the move text a side sends instead of a move when it gives up.
const ResignText = "resign"

func NewMove(from, to int) Move {
	return Move(from ^ (to << 9))
}

func (m Move) From() int {
	return int(m & 511)
}

func (m Move) To() int {
	return int((m >> 9) & 511)
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	return SquareName(m.From()) + "-" + SquareName(m.To())
}

// ParseMove decodes canonical move text. It checks syntax only; use
// Position.IsLegal before applying the result.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	var i = strings.IndexByte(s, '-')
	if i < 0 {
		return MoveEmpty, fmt.Errorf("bad move %q", s)
	}
	var from, okFrom = ParseSquare(s[:i])
	var to, okTo = ParseSquare(s[i+1:])
	if !okFrom || !okTo || from == to {
		return MoveEmpty, fmt.Errorf("bad move %q", s)
	}
	return NewMove(from, to), nil
}
