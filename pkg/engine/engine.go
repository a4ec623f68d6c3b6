package engine

import (
	"context"
	"errors"
	"time"

	. "github.com/ChizhovVadim/ccheck/pkg/common"
)

// ErrSearchCancelled is returned when the context fires in the middle of a
// depth. The partial result of that depth is discarded.
var ErrSearchCancelled = errors.New("search cancelled")

type Engine struct {
	Options    Options
	transTable *transTable
	history    historyTable
	done       <-chan struct{}
	nodes      int64
	stack      [stackSize]struct {
		position Position
		moveList [MaxMoves]orderedMove
		pv       pv
	}
}

type SearchResult struct {
	Depth int
	Score int
	Line  []Move
	Nodes int64
	Time  time.Duration
}

type pv struct {
	items [stackSize]Move
	size  int
}

func NewEngine(options Options) *Engine {
	return &Engine{
		Options: options,
	}
}

func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Size() != e.Options.Hash {
		e.transTable = newTransTable(e.Options.Hash)
	}
}

func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	e.history.Clear()
}

// Search runs one fixed-depth alpha-beta search from p. The returned line
// starts with the best move for the side to move.
func (e *Engine) Search(ctx context.Context, p *Position, depth int) (result SearchResult, err error) {
	var start = time.Now()
	e.Prepare()
	e.transTable.IncDate()
	e.done = ctx.Done()
	e.nodes = 0
	depth = Max(1, Min(depth, maxHeight))

	defer func() {
		if r := recover(); r != nil {
			if r == errSearchTimeout {
				result = SearchResult{Nodes: e.nodes, Time: time.Since(start)}
				err = ErrSearchCancelled
				return
			}
			panic(r)
		}
	}()

	const height = 0
	e.stack[height].position = *p
	var score = e.alphaBeta(-valueInfinity, valueInfinity, depth, height)
	return SearchResult{
		Depth: depth,
		Score: score,
		Line:  e.stack[height].pv.toSlice(),
		Nodes: e.nodes,
		Time:  time.Since(start),
	}, nil
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.items[1:], child.items[:child.size])
	}
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}
