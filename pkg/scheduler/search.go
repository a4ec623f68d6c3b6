package scheduler

import (
	"context"
	"time"

	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/engine"
)

// deepen runs iterative deepening on the current position until ctx is done,
// the depth limit is reached, the score is decisive, or the next depth would
// not fit into budget. Only completed depths replace the best line.
func (s *Scheduler) deepen(ctx context.Context, start time.Time, budget time.Duration) {
	var limit = s.depthLimit()
	for depth := s.bestDepth + 1; depth <= limit; depth++ {
		if ctx.Err() != nil {
			return
		}
		if len(s.line) > 0 && engine.IsDecisive(s.bestScore) {
			return
		}
		if budget > 0 && depth > 1 {
			var remaining = budget - time.Since(start)
			if remaining < s.depthTimes[depth]*5/4 {
				s.logger.Debug().Int("depth", depth).Dur("remaining", remaining).Msg("skip")
				return
			}
		}
		var result, err = s.engine.Search(ctx, &s.position, depth)
		if err != nil {
			return
		}
		s.depthTimes[depth] = result.Time
		if len(result.Line) == 0 {
			return
		}
		s.line = result.Line
		s.bestDepth = depth
		s.bestScore = result.Score
		if s.options.Verbose {
			s.logger.Info().
				Str("state", s.state.String()).
				Int("depth", depth).
				Int("score", result.Score).
				Int64("nodes", result.Nodes).
				Dur("time", result.Time).
				Str("line", lineString(result.Line)).
				Msg("search")
		}
	}
}

func (s *Scheduler) depthLimit() int {
	if s.options.AvgTime <= 0 {
		return common.Min(s.options.DefaultDepth, s.options.MaxDepth)
	}
	return s.options.MaxDepth
}

// bestMove returns the head of the best line, falling back to a shallow
// search that cannot be interrupted. MoveEmpty means the side must resign.
func (s *Scheduler) bestMove() common.Move {
	if len(s.line) > 0 && s.position.IsLegal(s.line[0]) {
		return s.line[0]
	}
	if s.position.IsTerminal() {
		return common.MoveEmpty
	}
	s.logger.Warn().Msg("no searched move, running emergency search")
	var result, err = s.engine.Search(context.Background(), &s.position, 1)
	if err != nil || len(result.Line) == 0 || !s.position.IsLegal(result.Line[0]) {
		return common.MoveEmpty
	}
	s.line = result.Line
	s.bestDepth = 1
	s.bestScore = result.Score
	return result.Line[0]
}

// carryOver keeps the part of the best line that is still valid after m was
// played: when m was the predicted head, the rest of the line predicts the
// next moves one ply shallower. It reports whether the line survived.
func (s *Scheduler) carryOver(m common.Move) bool {
	if len(s.line) > 1 && s.line[0] == m && s.bestDepth > 1 {
		s.line = s.line[1:]
		s.bestDepth--
		s.bestScore = -s.bestScore
		return true
	}
	s.resetLine()
	return false
}

func (s *Scheduler) resetLine() {
	s.line = nil
	s.bestDepth = 0
	s.bestScore = 0
}

func lineString(line []common.Move) string {
	var b []byte
	for i, m := range line {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, m.String()...)
	}
	return string(b)
}
