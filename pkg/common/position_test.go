package common

import (
	"testing"
)

func TestGeometry(t *testing.T) {
	if len(Holes()) != HoleCount {
		t.Fatalf("holes = %v, want %v", len(Holes()), HoleCount)
	}
	for _, side := range []Side{White, Black} {
		if len(Home(side)) != PegCount {
			t.Error(side, "home size", len(Home(side)))
		}
		if len(Goal(side)) != PegCount {
			t.Error(side, "goal size", len(Goal(side)))
		}
	}
	var rowSizes = []int{1, 2, 3, 4, 13, 12, 11, 10, 9, 10, 11, 12, 13, 4, 3, 2, 1}
	var counts = make([]int, BoardSize)
	for _, sq := range Holes() {
		counts[Row(sq)]++
	}
	for row, want := range rowSizes {
		if counts[row] != want {
			t.Error("row", row, counts[row], want)
		}
	}
}

func TestSquareNames(t *testing.T) {
	for _, sq := range Holes() {
		var parsed, ok = ParseSquare(SquareName(sq))
		if !ok || parsed != sq {
			t.Error(sq, SquareName(sq), parsed)
		}
	}
	for _, s := range []string{"", "a", "a1", "z5", "a0", "a+13", "a013", "r1"} {
		if _, ok := ParseSquare(s); ok {
			t.Error("parsed", s)
		}
	}
}

func TestInitialPosition(t *testing.T) {
	var p = NewInitialPosition()
	if p.SideToMove != White || p.Ply != 0 {
		t.Fatal(p.SideToMove, p.Ply)
	}
	if p.Key != p.ComputeKey() {
		t.Error("key mismatch")
	}
	if p.IsTerminal() {
		t.Error("initial position is terminal")
	}
	var buffer [MaxMoves]Move
	var ml = p.GenerateMoves(buffer[:])
	// 8 steps off the front row plus 6 jumps over it.
	if len(ml) != 14 {
		t.Error("moves", len(ml))
	}
	for _, m := range ml {
		if !p.IsLegal(m) {
			t.Error("generated move is not legal", m)
		}
	}
}

func TestMoveTextRoundTrip(t *testing.T) {
	var p = NewInitialPosition()
	var buffer [MaxMoves]Move
	for ply := 0; ply < 40; ply++ {
		var ml = p.GenerateMoves(buffer[:])
		if len(ml) == 0 {
			t.Fatal("no moves at ply", ply)
		}
		for _, m := range ml {
			var parsed, err = ParseMove(m.String())
			if err != nil {
				t.Fatal(err)
			}
			if parsed != m {
				t.Fatal(m, parsed)
			}
			var c1, c2 Position
			if !p.MakeMove(m, &c1) || !p.MakeMove(parsed, &c2) || c1 != c2 {
				t.Fatal("round trip applies differently", m)
			}
		}
		var child Position
		if !p.MakeMove(ml[(ply*7)%len(ml)], &child) {
			t.Fatal("make move failed")
		}
		if child.Key != child.ComputeKey() {
			t.Fatal("incremental key differs at ply", ply)
		}
		p = child
	}
}

func TestParseMoveRejects(t *testing.T) {
	for _, s := range []string{"", "m5", "m5-", "m5-m5", "a1-b2", "q5_p5", "resign"} {
		if _, err := ParseMove(s); err == nil {
			t.Error("parsed", s)
		}
	}
}

func TestIsLegal(t *testing.T) {
	var p = NewInitialPosition()
	var tests = []struct {
		move  string
		legal bool
	}{
		{"n5-m5", true},  // step
		{"o5-m5", true},  // jump over n5
		{"o5-m7", true},  // jump over n6
		{"q5-o5", false}, // target occupied
		{"d10-e10", false},
		{"n5-l5", false}, // jump over an empty hole
		{"n5-k5", false},
	}
	for _, test := range tests {
		var m, err = ParseMove(test.move)
		if err != nil {
			t.Fatal(err)
		}
		if p.IsLegal(m) != test.legal {
			t.Error(test.move, test.legal)
		}
	}
}

func TestJumpChain(t *testing.T) {
	var p Position
	p.SideToMove = White
	var place = func(side Side, i int, name string) {
		var sq, ok = ParseSquare(name)
		if !ok {
			t.Fatal(name)
		}
		p.Holes[sq] = side.Peg()
		p.Pegs[side][i] = int16(sq)
	}
	// Pegs stacked so that the white peg on i9 can hop i9-g9-e9.
	var white = []string{"i9", "q5", "p5", "p6", "o5", "o6", "o7", "n5", "n6", "n7"}
	var black = []string{"h9", "f9", "a13", "b12", "b13", "c11", "c12", "c13", "d10", "d11"}
	for i, name := range white {
		place(White, i, name)
	}
	for i, name := range black {
		place(Black, i, name)
	}
	p.Key = p.ComputeKey()
	var m, _ = ParseMove("i9-e9")
	if !p.IsLegal(m) {
		t.Fatal("double jump rejected")
	}
	var buffer [MaxMoves]Move
	var found = false
	for _, gm := range p.GenerateMoves(buffer[:]) {
		if gm == m {
			found = true
		}
	}
	if !found {
		t.Error("double jump not generated")
	}
}

func TestResult(t *testing.T) {
	var p Position
	p.SideToMove = Black
	for i, sq := range Goal(White) {
		p.Holes[sq] = WhitePeg
		p.Pegs[White][i] = int16(sq)
	}
	var i = 0
	for _, sq := range Holes() {
		if i == PegCount {
			break
		}
		if Row(sq) == 8 || Row(sq) == 9 {
			p.Holes[sq] = BlackPeg
			p.Pegs[Black][i] = int16(sq)
			i++
		}
	}
	var winner, outcome, ok = p.Result()
	if !ok || winner != White || outcome != GoalFilled {
		t.Error(winner, outcome, ok)
	}
}
