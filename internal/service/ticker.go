package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ticker drives the countdown of every active timer from a wall-clock
// interval. Elapsed time accumulates across sweeps and only whole seconds
// are ticked, so a 250ms interval ticks one second every fourth sweep.
type Ticker struct {
	timers   *TimerService
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	carry time.Duration
}

func NewTicker(timers *TimerService, interval time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		timers:   timers,
		interval: interval,
		logger:   logger.With("component", "ticker"),
	}
}

// Run sweeps until ctx is cancelled. It returns immediately when the
// interval is not positive.
func (t *Ticker) Run(ctx context.Context) {
	if t.interval <= 0 {
		t.logger.Info("ticker disabled")
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("ticker started", "interval", t.interval.String())
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("ticker stopped")
			return
		case <-ticker.C:
			t.Sweep(ctx)
		}
	}
}

// Sweep accounts for one interval and returns how many timers were ticked.
// It ticks nothing while less than a whole second has accumulated.
func (t *Ticker) Sweep(ctx context.Context) int {
	delta := t.advance()
	if delta == 0 {
		return 0
	}

	ticked, err := t.timers.TickActive(ctx, delta)
	if err != nil && ctx.Err() == nil {
		t.logger.Error("tick sweep failed", "ticked", ticked, "error", err)
	}
	if ticked > 0 {
		t.logger.Debug("tick sweep", "ticked", ticked, "delta_seconds", delta)
	}
	return ticked
}

// advance adds one interval to the carried time and takes out the whole
// seconds.
func (t *Ticker) advance() int {
	if t.interval <= 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.carry += t.interval
	whole := t.carry / time.Second
	t.carry -= whole * time.Second
	return int(whole)
}
