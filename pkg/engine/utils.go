package engine

import (
	. "github.com/ChizhovVadim/ccheck/pkg/common"
)

const (
	stackSize     = 64
	maxHeight     = stackSize - 1
	valueMate     = 30000
	valueInfinity = valueMate + 1
	valueWin      = valueMate - 2*maxHeight
	valueLoss     = -valueWin
)

// MaxDepth is the deepest single search Search accepts.
const MaxDepth = maxHeight

func winIn(height int) int {
	return valueMate - height
}

func lossIn(height int) int {
	return -valueMate + height
}

func valueToTT(v, height int) int {
	if v >= valueWin {
		return v + height
	}

	if v <= valueLoss {
		return v - height
	}

	return v
}

func valueFromTT(v, height int) int {
	if v >= valueWin {
		return v - height
	}

	if v <= valueLoss {
		return v + height
	}

	return v
}

// IsDecisive reports a forced win or loss; deepening further cannot change it.
func IsDecisive(score int) bool {
	return score >= valueWin || score <= valueLoss
}

// goalTip is the far corner of the goal triangle.
var goalTip [2]int

func init() {
	for _, side := range [...]Side{White, Black} {
		var best = SquareNone
		var bestRow = -1
		for _, sq := range Goal(side) {
			var d = Row(sq)
			if side == White {
				d = -d
			}
			if best == SquareNone || d > bestRow {
				best, bestRow = sq, d
			}
		}
		goalTip[side] = best
	}
}

// advance is how many holes m brings the peg closer to the goal tip.
func advance(side Side, m Move) int {
	return Distance(m.From(), goalTip[side]) - Distance(m.To(), goalTip[side])
}
