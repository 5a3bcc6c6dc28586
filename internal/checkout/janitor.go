package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweep evicts sessions idle for longer than the session TTL. Sessions with a
// transition in flight are left for the next sweep.
func (o *Orchestrator) Sweep(now time.Time) int {
	if o.opts.SessionTTL <= 0 {
		return 0
	}
	o.mu.RLock()
	candidates := make([]*session, 0, len(o.sessions))
	for _, s := range o.sessions {
		candidates = append(candidates, s)
	}
	o.mu.RUnlock()

	evicted := 0
	for _, s := range candidates {
		s.mu.Lock()
		idle := now.Sub(s.updated) > o.opts.SessionTTL
		s.mu.Unlock()
		if !idle || !s.gate.TryLock() {
			continue
		}
		o.drop(o.ctx, s)
		s.gate.Unlock()
		evicted++
	}
	return evicted
}

// Janitor periodically sweeps expired checkout sessions.
type Janitor struct {
	orchestrator *Orchestrator
	interval     time.Duration
	logger       *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewJanitor constructs Janitor sweeping every interval.
func NewJanitor(o *Orchestrator, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{orchestrator: o, interval: interval, logger: logger}
}

// Start launches the sweep loop.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go j.run(runCtx)
}

// Stop ends the sweep loop and waits for it.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := j.orchestrator.Sweep(now); n > 0 {
				j.logger.Info("expired checkout sessions evicted", slog.Int("count", n))
			}
		}
	}
}
