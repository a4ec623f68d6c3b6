package engine

import (
	. "github.com/ChizhovVadim/ccheck/pkg/common"
)

const (
	progressWeight  = 10
	lateralWeight   = 2
	stragglerWeight = 4
	goalBonus       = 6
	maxDistance     = 16
)

// evaluate scores p from the side to move's point of view.
func evaluate(p *Position) int {
	var score = evaluateSide(p, White) - evaluateSide(p, Black)
	if p.SideToMove == Black {
		score = -score
	}
	return score
}

func evaluateSide(p *Position, side Side) int {
	var tip = goalTip[side]
	var progress, lateral, straggler, inGoal int
	for _, peg := range p.Pegs[side] {
		var sq = int(peg)
		var d = Distance(sq, tip)
		progress += maxDistance - d
		straggler = Max(straggler, d)
		var x, y, _ = Cube(sq)
		lateral += AbsDelta(x, y)
	}
	for _, sq := range Goal(side) {
		if p.PieceAt(sq) == side.Peg() {
			inGoal++
		}
	}
	return progressWeight*progress -
		lateralWeight*lateral -
		stragglerWeight*straggler +
		goalBonus*inGoal
}
