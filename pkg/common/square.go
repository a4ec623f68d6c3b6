package common

import "strconv"

// The star board lives on a 17x17 axial grid. Rows run from the top point
// (row a) to the bottom point (row q); columns from 1 to 17.
const (
	BoardSize   = 17
	SquareCount = BoardSize * BoardSize
	SquareNone  = -1
	HoleCount   = 121
)

const (
	center     = BoardSize / 2
	pointDepth = 4
)

const rowNames = "abcdefghijklmnopq"

func MakeSquare(column, row int) int {
	return row*BoardSize + column
}

func Column(sq int) int {
	return sq % BoardSize
}

func Row(sq int) int {
	return sq / BoardSize
}

// Cube returns the cube coordinates of sq relative to the board centre.
func Cube(sq int) (x, y, z int) {
	x = Column(sq) - center
	z = Row(sq) - center
	y = -x - z
	return
}

func onGrid(column, row int) bool {
	return column >= 0 && column < BoardSize && row >= 0 && row < BoardSize
}

func IsHole(sq int) bool {
	if sq < 0 || sq >= SquareCount {
		return false
	}
	return isHoleAt(Column(sq), Row(sq))
}

func isHoleAt(column, row int) bool {
	if !onGrid(column, row) {
		return false
	}
	var x = column - center
	var z = row - center
	var y = -x - z
	return (x >= -pointDepth && y >= -pointDepth && z >= -pointDepth) ||
		(x <= pointDepth && y <= pointDepth && z <= pointDepth)
}

// directions are the six hex neighbours as (column, row) deltas.
var directions = [6][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, -1}, {-1, 1},
}

var (
	holes     []int
	neighbors [SquareCount][6]int
	jumps     [SquareCount][6]int
	goals     [2][]int
	homes     [2][]int
)

func init() {
	for sq := 0; sq < SquareCount; sq++ {
		for d := range directions {
			neighbors[sq][d] = SquareNone
			jumps[sq][d] = SquareNone
		}
		if !IsHole(sq) {
			continue
		}
		holes = append(holes, sq)
		var column, row = Column(sq), Row(sq)
		for d, delta := range directions {
			var c1, r1 = column + delta[0], row + delta[1]
			if isHoleAt(c1, r1) {
				neighbors[sq][d] = MakeSquare(c1, r1)
			}
			var c2, r2 = column + 2*delta[0], row + 2*delta[1]
			if isHoleAt(c2, r2) {
				jumps[sq][d] = MakeSquare(c2, r2)
			}
		}
		var _, _, z = Cube(sq)
		if z > pointDepth {
			homes[White] = append(homes[White], sq)
			goals[Black] = append(goals[Black], sq)
		} else if z < -pointDepth {
			homes[Black] = append(homes[Black], sq)
			goals[White] = append(goals[White], sq)
		}
	}
}

// Holes lists every playable hole in grid order.
func Holes() []int {
	return holes
}

// Home is the triangle side starts in; Goal is the one it must fill.
func Home(side Side) []int {
	return homes[side]
}

func Goal(side Side) []int {
	return goals[side]
}

func AbsDelta(x, y int) int {
	if x > y {
		return x - y
	}
	return y - x
}

// Distance is the hex distance between two holes.
func Distance(sq1, sq2 int) int {
	var x1, y1, z1 = Cube(sq1)
	var x2, y2, z2 = Cube(sq2)
	return Max(AbsDelta(x1, x2), Max(AbsDelta(y1, y2), AbsDelta(z1, z2)))
}

func SquareName(sq int) string {
	if !IsHole(sq) {
		return "-"
	}
	return string(rowNames[Row(sq)]) + strconv.Itoa(Column(sq)+1)
}

func ParseSquare(s string) (int, bool) {
	if len(s) < 2 {
		return SquareNone, false
	}
	var row = int(s[0] - 'a')
	if row < 0 || row >= BoardSize || s[1] < '1' || s[1] > '9' {
		return SquareNone, false
	}
	var column, err = strconv.Atoi(s[1:])
	if err != nil {
		return SquareNone, false
	}
	column--
	if !isHoleAt(column, row) {
		return SquareNone, false
	}
	return MakeSquare(column, row), true
}
