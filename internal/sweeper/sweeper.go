package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Lifecycle is the slice of the lifecycle service the sweeper needs.
type Lifecycle interface {
	ExpireDue(ctx context.Context) (int, error)
}

// Sweeper periodically retires overdue available spots. It is a safety
// net behind the read-path expiry checks: even with no traffic, an
// abandoned spot leaves the listing within one interval.
type Sweeper struct {
	svc      Lifecycle
	interval time.Duration
	logger   *slog.Logger
}

func New(svc Lifecycle, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Sweeper{
		svc:      svc,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. A failed sweep is logged and the
// loop keeps going, the next tick retries.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.ExpireDue(ctx)
	if err != nil {
		s.logger.Error("expiration sweep failed", "error", err)
		return
	}

	if n > 0 {
		s.logger.Info("expired overdue spots", "count", n)
	}
}
