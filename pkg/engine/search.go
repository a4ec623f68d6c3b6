package engine

import (
	"errors"

	. "github.com/ChizhovVadim/ccheck/pkg/common"
)

var errSearchTimeout = errors.New("search timeout")

// main search method
func (e *Engine) alphaBeta(alpha, beta, depth, height int) int {
	e.stack[height].pv.clear()
	e.incNodes()

	var rootNode = height == 0
	var pvNode = beta != alpha+1
	var position = &e.stack[height].position
	var side = position.SideToMove

	if !rootNode {
		if position.HasWon(side.Opponent()) {
			return lossIn(height)
		}
		// the opponent may have filled our goal for us
		if position.HasWon(side) {
			return winIn(height)
		}
		// mate distance pruning
		if winIn(height+1) <= alpha {
			return alpha
		}
	}
	if depth <= 0 || height >= maxHeight {
		return evaluate(position)
	}

	// transposition table
	var ttDepth, ttValue, ttBound, ttMove, ttHit = e.transTable.Read(position.Key)
	if ttHit && !rootNode && !pvNode && ttDepth >= depth {
		ttValue = valueFromTT(ttValue, height)
		if ttValue >= beta && (ttBound&boundLower) != 0 {
			return ttValue
		}
		if ttValue <= alpha && (ttBound&boundUpper) != 0 {
			return ttValue
		}
	}

	var ml = e.genOrderedMoves(height, ttMove)
	if len(ml) == 0 {
		return lossIn(height)
	}

	var child = &e.stack[height+1].position
	var oldAlpha = alpha
	var best = -valueInfinity
	var bestMove = MoveEmpty
	var searched [MaxMoves]Move
	var searchedCount = 0

	for i := range ml {
		var move = ml[i].move
		if !position.MakeMove(move, child) {
			continue
		}
		searched[searchedCount] = move
		searchedCount++

		var score int
		if searchedCount == 1 {
			score = -e.alphaBeta(-beta, -alpha, depth-1, height+1)
		} else {
			score = -e.alphaBeta(-(alpha + 1), -alpha, depth-1, height+1)
			if score > alpha && score < beta {
				score = -e.alphaBeta(-beta, -alpha, depth-1, height+1)
			}
		}

		if score > best {
			best = score
			bestMove = move
			if score > alpha {
				alpha = score
				e.stack[height].pv.assign(move, &e.stack[height+1].pv)
				if alpha >= beta {
					break
				}
			}
		}
	}

	if alpha >= beta && bestMove != MoveEmpty {
		e.history.Update(side, searched[:searchedCount], bestMove, depth)
	}

	var ttBoundNew = 0
	if best > oldAlpha {
		ttBoundNew |= boundLower
	}
	if best < beta {
		ttBoundNew |= boundUpper
	}
	e.transTable.Update(position.Key, depth, valueToTT(best, height), ttBoundNew, bestMove)

	return best
}

func (e *Engine) incNodes() {
	e.nodes++
	if e.nodes&255 == 0 {
		select {
		case <-e.done:
			panic(errSearchTimeout)
		default:
		}
	}
}
