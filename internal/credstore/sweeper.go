package credstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweepable is anything that can purge its expired entries.
type Sweepable interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type target struct {
	name  string
	store Sweepable
}

// Sweeper periodically purges expired entries from a set of stores. Reads
// already check expiry, so sweeping only bounds memory.
type Sweeper struct {
	interval time.Duration
	clock    Clock
	targets  []target

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(interval time.Duration, clock Clock) *Sweeper {
	if clock == nil {
		clock = SystemClock
	}
	return &Sweeper{interval: interval, clock: clock}
}

// Register adds a store. Call before Start.
func (s *Sweeper) Register(name string, store Sweepable) {
	s.targets = append(s.targets, target{name: name, store: store})
}

// SweepOnce sweeps every registered store and returns the removed count per store.
// A failing store is logged and skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) map[string]int {
	now := s.clock.Now()
	removed := make(map[string]int, len(s.targets))
	for _, t := range s.targets {
		n, err := t.store.SweepExpired(ctx, now)
		if err != nil {
			slog.Warn("credential sweep failed", "store", t.name, "err", err)
		}
		removed[t.name] = n
		if n > 0 {
			slog.Info("swept expired credentials", "store", t.name, "removed", n)
		} else {
			slog.Debug("credential sweep found nothing", "store", t.name)
		}
	}
	return removed
}

// Start launches the sweep loop. Calling Start on a running sweeper is a no-op,
// as is starting one with a non-positive interval.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	if s.interval <= 0 {
		slog.Warn("credential sweeper disabled", "interval", s.interval)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop halts the loop and waits for an in-flight sweep to finish. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}
