package common

import "fmt"

type Side int8

const (
	White Side = iota
	Black
)

const (
	Empty int8 = iota
	WhitePeg
	BlackPeg
)

const (
	PegCount = 10
	MaxMoves = 1024
)

func (s Side) Opponent() Side {
	return s ^ 1
}

func (s Side) Peg() int8 {
	return int8(s) + 1
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

func ParseSide(s string) (Side, error) {
	switch s {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	}
	return White, fmt.Errorf("unknown side %q", s)
}

type Position struct {
	Holes      [SquareCount]int8
	Pegs       [2][PegCount]int16
	SideToMove Side
	Ply        int
	Key        uint64
	LastMove   Move
}

type Outcome int

const (
	Ongoing Outcome = iota
	GoalFilled
	NoMoves
	Resigned
)

func (o Outcome) String() string {
	switch o {
	case GoalFilled:
		return "goal filled"
	case NoMoves:
		return "no legal moves"
	case Resigned:
		return "resignation"
	}
	return "ongoing"
}
