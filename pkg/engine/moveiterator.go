package engine

import (
	"lukechampine.com/frand"

	. "github.com/ChizhovVadim/ccheck/pkg/common"
)

const sortTableKeyImportant = 1 << 24

type orderedMove struct {
	move Move
	key  int
}

// genOrderedMoves fills the move list at height, best candidates first: the
// transposition move, then the longest advances, then history.
func (e *Engine) genOrderedMoves(height int, transMove Move) []orderedMove {
	var p = &e.stack[height].position
	var buffer [MaxMoves]Move
	var moves = p.GenerateMoves(buffer[:])
	var ml = e.stack[height].moveList[:len(moves)]
	var side = p.SideToMove
	for i, m := range moves {
		var key int
		if m == transMove {
			key = sortTableKeyImportant
		} else {
			key = 2*historyMax*advance(side, m) + e.history.Read(side, m)
		}
		ml[i] = orderedMove{move: m, key: key}
	}
	if height == 0 && e.Options.Randomized {
		frand.Shuffle(len(ml), func(i, j int) {
			ml[i], ml[j] = ml[j], ml[i]
		})
	}
	sortMoves(ml)
	return ml
}

// sortMoves is a stable insertion sort, so a shuffled list keeps random order
// among equal keys.
func sortMoves(moves []orderedMove) {
	for i := 1; i < len(moves); i++ {
		j, t := i, moves[i]
		for ; j > 0 && moves[j-1].key < t.key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}

func isSorted(moves []orderedMove) bool {
	for i := 1; i < len(moves); i++ {
		if moves[i-1].key < moves[i].key {
			return false
		}
	}
	return true
}
