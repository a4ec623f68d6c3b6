package engine

import . "github.com/ChizhovVadim/ccheck/pkg/common"

const historyMax = 1 << 14

// historyTable rewards moves that caused a cutoff, indexed by side and
// from/to hole.
type historyTable struct {
	items [2][SquareCount][SquareCount]int16
}

func (h *historyTable) Clear() {
	for side := range h.items {
		for from := range h.items[side] {
			for to := range h.items[side][from] {
				h.items[side][from][to] = 0
			}
		}
	}
}

func (h *historyTable) Read(side Side, m Move) int {
	return int(h.items[side][m.From()][m.To()])
}

func (h *historyTable) Update(side Side, searched []Move, bestMove Move, depth int) {
	var bonus = Min(depth*depth, 400)
	for _, m := range searched {
		var good = m == bestMove
		updateHistory(&h.items[side][m.From()][m.To()], bonus, good)
		if good {
			break
		}
	}
}

// Exponential moving average
func updateHistory(v *int16, bonus int, good bool) {
	var newVal int
	if good {
		newVal = historyMax
	} else {
		newVal = -historyMax
	}
	*v += int16((newVal - int(*v)) * bonus / 512)
}
