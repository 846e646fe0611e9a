package scheduler

import (
	"context"
	"time"

	"PubMedScanner/internal/ports"
)

// DailyScheduler triggers one pipeline run per day with a time.Ticker.
// Runs never overlap: the job executes inline in the ticker goroutine,
// which is what keeps concurrent ledger writes out of the picture.
type DailyScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds a scheduler with a fixed interval.
func NewDailyScheduler() *DailyScheduler {
	return &DailyScheduler{interval: 24 * time.Hour}
}

// Start runs the job once immediately, then on every tick.
func (s *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *DailyScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
