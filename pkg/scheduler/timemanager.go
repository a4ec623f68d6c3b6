package scheduler

import (
	"context"
	"time"
)

const (
	// minBudget keeps a request answerable when a side has overspent.
	minBudget = 10 * time.Millisecond
	// minPacingDelay is the smallest pause worth sleeping for.
	minPacingDelay = time.Millisecond
)

// clock tracks the thinking time each side spent and how many moves it made.
type clock struct {
	used  [2]time.Duration
	moves [2]int
}

func (c *clock) record(side int, spent time.Duration) {
	c.used[side] += spent
	c.moves[side]++
}

// timeBudget returns how long the side may think on its next move so that
// its average stays within avg. Zero means no time limit.
func timeBudget(avg time.Duration, movesMade int, used time.Duration) time.Duration {
	if avg <= 0 {
		return 0
	}
	var budget = avg*time.Duration(movesMade+1) - used
	return limitDuration(budget, minBudget, avg*time.Duration(movesMade+1))
}

// newSearchContext arms a one-shot deadline for the budget.
func newSearchContext(ctx context.Context, start time.Time,
	budget time.Duration) (context.Context, context.CancelFunc) {
	if budget > 0 {
		return context.WithDeadline(ctx, start.Add(budget))
	}
	return context.WithCancel(ctx)
}

// pacingDelay is how long to wait before answering so that a move never
// comes back faster than avg.
func pacingDelay(avg, elapsed time.Duration) time.Duration {
	if avg <= 0 {
		return 0
	}
	var delay = avg - elapsed
	if delay <= minPacingDelay {
		return 0
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	var timer = time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func limitDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
