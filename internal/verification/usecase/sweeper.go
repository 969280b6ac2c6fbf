package usecase

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper launches the background loop that purges expired challenges on
// a fixed interval. Correctness never depends on it running promptly since
// reads check expiry lazily; the sweep only keeps the store small.
//
// The loop is owned by the usecase: StopSweeper (or context cancellation)
// shuts it down cleanly. Calling StartSweeper twice is a no-op.
func (s *Usecase) StartSweeper(ctx context.Context) {
	if !s.sweepStarted.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(s.sweepDone)

		interval := s.sweepInterval()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.InfoContext(ctx, "challenge sweeper started", "interval", interval.String())

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.sweepStop:
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	}()
}

// StopSweeper signals the sweep loop to exit and waits until it has finished.
// Safe to call multiple times, and a no-op when the sweeper never started.
func (s *Usecase) StopSweeper() {
	if !s.sweepStarted.Load() {
		return
	}

	s.sweepStopOnce.Do(func() { close(s.sweepStop) })
	<-s.sweepDone
}

// SweptTotal reports how many expired challenges the sweeper has removed
// since the process started.
func (s *Usecase) SweptTotal() int64 {
	return s.sweptTotal.Load()
}

func (s *Usecase) sweepOnce(ctx context.Context) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	removed, err := s.repoStore.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep expired challenges", "error", err)
		return
	}

	s.sweepRuns.Inc()
	s.sweptTotal.Add(removed)

	if removed > 0 {
		slog.InfoContext(ctx, "expired challenges swept", "removed", removed, "total_removed", s.sweptTotal.Load())
	}
}
