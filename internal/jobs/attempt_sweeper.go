package jobs

import (
	"context"
	"log"
	"time"
)

// Expirer completes attempts whose quiz time limit has elapsed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// AttemptSweeper runs Expirer on a fixed interval until its context ends.
type AttemptSweeper struct {
	expirer  Expirer
	interval time.Duration
}

func NewAttemptSweeper(e Expirer, interval time.Duration) *AttemptSweeper {
	return &AttemptSweeper{expirer: e, interval: interval}
}

// Run blocks until ctx is cancelled. A non-positive interval disables the
// sweeper and Run returns immediately.
func (s *AttemptSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Printf("[AttemptSweeper] disabled")
		return
	}
	log.Printf("[AttemptSweeper] every %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many attempts were completed.
func (s *AttemptSweeper) Sweep(ctx context.Context) int {
	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil && ctx.Err() == nil {
		log.Printf("[AttemptSweeper] sweep failed after %d attempts: %v", n, err)
	}
	if n > 0 {
		log.Printf("[AttemptSweeper] completed %d overdue attempts", n)
	}
	return n
}
