package slots

import (
	"context"
	"log/slog"
	"time"

	"slotly/pkg/logger"
)

// Reaper runs the periodic sweeps: releasing reservations past their
// TTL and the day-rollover check. It is the only mechanism recovering
// slots from buyers who never complete payment.
type Reaper struct {
	service Service
	config  *ReaperConfig
	done    chan struct{}
}

// ReaperConfig contains the sweep cadence.
type ReaperConfig struct {
	SweepInterval time.Duration
}

// DefaultReaperConfig sweeps every minute, frequent enough for a
// 30 minute reservation TTL.
func DefaultReaperConfig() *ReaperConfig {
	return &ReaperConfig{SweepInterval: time.Minute}
}

// NewReaper creates a stopped reaper.
func NewReaper(service Service, config *ReaperConfig) *Reaper {
	if config == nil {
		config = DefaultReaperConfig()
	}
	return &Reaper{
		service: service,
		config:  config,
		done:    make(chan struct{}),
	}
}

// Start launches the sweep loop. It stops on Stop or context cancel.
func (r *Reaper) Start(ctx context.Context) {
	logger.GetDefault().Info("reservation reaper started",
		slog.Duration("sweep_interval", r.config.SweepInterval),
		slog.Duration("reservation_ttl", r.service.ReservationTTL()),
	)
	go r.run(ctx)
}

// Stop halts the sweep loop.
func (r *Reaper) Stop() {
	close(r.done)
	logger.GetDefault().Info("reservation reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one pass: rollover first so stale counters do not hold
// slots hostage, then expiry. Exported so tests can drive it with a
// fake clock instead of waiting on the ticker.
func (r *Reaper) Sweep(ctx context.Context) {
	r.service.RolloverAll(ctx)
	if released := r.service.SweepExpired(ctx); released > 0 {
		logger.GetDefault().Info("expired reservations reaped",
			slog.Int("released", released),
		)
	}
}
