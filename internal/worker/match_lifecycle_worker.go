package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper moves match requests whose time has passed into their next status.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// MatchLifecycleWorker expires stale open requests and completes past matches on a
// fixed interval.
type MatchLifecycleWorker struct {
	sweeper  Sweeper
	interval time.Duration
	log      zerolog.Logger
}

// NewMatchLifecycleWorker creates a new MatchLifecycleWorker.
func NewMatchLifecycleWorker(sweeper Sweeper, interval time.Duration, log zerolog.Logger) *MatchLifecycleWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MatchLifecycleWorker{
		sweeper:  sweeper,
		interval: interval,
		log:      log.With().Str("component", "match_lifecycle_worker").Logger(),
	}
}

// Start sweeps once immediately, then on every tick until ctx is cancelled. Call in
// a goroutine.
func (w *MatchLifecycleWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *MatchLifecycleWorker) sweep(ctx context.Context) {
	// A sweep stopped by shutdown is finished by the next instance.
	moved, err := w.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Int("moved", moved).Msg("Sweep failed")
		}
		return
	}
	if moved > 0 {
		w.log.Debug().Int("moved", moved).Msg("Sweep finished")
	}
}
