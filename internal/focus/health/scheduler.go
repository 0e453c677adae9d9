package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sebas/focusbridge/internal/focus/bridge"
	"github.com/sebas/focusbridge/internal/focus/registry"
	"github.com/sebas/focusbridge/internal/focus/telemetry"
)

// Config carries the scheduler's tunables (§6: healthChecksInterval,
// healthChecksMaxConcurrent — an addition beyond the carried spec options,
// bounding in-flight probes).
type Config struct {
	Interval      time.Duration
	MaxConcurrent int
}

// Scheduler runs one periodic liveness task per bridge known to a
// registry, bounded to at most MaxConcurrent probes in flight at once
// (grounded on the teacher's drain coordinator, which pairs errgroup with
// a semaphore for the same reason).
type Scheduler struct {
	reg    *registry.Registry
	prober Prober
	cfg    Config
	sem    *semaphore.Weighted
	now    func() time.Time

	mu          sync.Mutex
	cancel      map[bridge.Id]context.CancelFunc
	group       *errgroup.Group
	unsubscribe func()

	passed  *telemetry.Counter
	failed  *telemetry.Counter
	skipped *telemetry.Counter
}

// Counters returns the scheduler's pass/fail/skip tallies, for an operator
// to log or export alongside the registry's lostBridges count.
func (s *Scheduler) Counters() (passed, failed, skipped *telemetry.Counter) {
	return s.passed, s.failed, s.skipped
}

// NewScheduler creates a Scheduler. cfg.MaxConcurrent <= 0 defaults to 8.
func NewScheduler(reg *registry.Registry, prober Prober, cfg Config) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Scheduler{
		reg:     reg,
		prober:  prober,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		now:     time.Now,
		cancel:  make(map[bridge.Id]context.CancelFunc),
		passed:  telemetry.NewCounter("healthCheckPassed"),
		failed:  telemetry.NewCounter("healthCheckFailed"),
		skipped: telemetry.NewCounter("healthCheckSkipped"),
	}
}

// Start launches a task for every bridge currently in the registry and
// subscribes so bridges added or removed later start or stop their own
// task. ctx bounds the lifetime of every task; Stop additionally cancels
// them individually so a single removed bridge can be torn down without
// affecting the others.
func (s *Scheduler) Start(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	s.mu.Lock()
	s.group = group
	s.mu.Unlock()

	for _, b := range s.reg.Snapshot() {
		s.startTask(groupCtx, b.Id())
	}

	s.unsubscribe = s.reg.Subscribe(func(ev registry.Event) {
		switch ev.Type {
		case registry.BridgeAdded:
			s.startTask(groupCtx, ev.Id)
		case registry.BridgeRemoved:
			s.stopTask(ev.Id)
		}
	})
}

func (s *Scheduler) startTask(ctx context.Context, id bridge.Id) {
	s.mu.Lock()
	if _, exists := s.cancel[id]; exists {
		s.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(ctx)
	s.cancel[id] = cancel
	group := s.group
	s.mu.Unlock()

	group.Go(func() error {
		s.run(taskCtx, id)
		return nil
	})
}

func (s *Scheduler) stopTask(id bridge.Id) {
	s.mu.Lock()
	cancel, exists := s.cancel[id]
	delete(s.cancel, id)
	s.mu.Unlock()

	if exists {
		cancel()
	}
}

func (s *Scheduler) run(ctx context.Context, id bridge.Id) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probeOnce(ctx, id)
		}
	}
}

// probeOnce runs one liveness check and applies its outcome. Cancellation
// is checked immediately after the probe returns, before any flag change
// or event emission, so a bridge removed mid-probe never produces an event
// after its bridgeRemoved (§5 cancellation discipline).
func (s *Scheduler) probeOnce(ctx context.Context, id bridge.Id) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	outcome, err := s.prober.Probe(ctx, id)
	s.sem.Release(1)

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Warn("[Health] probe error", "bridge_id", string(id), "outcome", outcome.String(), "err", err)
	}

	b, ok := s.reg.Get(id)
	if !ok {
		return
	}

	switch outcome {
	case OutcomePassed:
		s.passed.Inc()
		b.SetOperational(true, s.now())
	case OutcomeFailed, OutcomeTimedOut:
		s.failed.Inc()
		b.SetOperational(false, s.now())
		s.reg.NotifyFailedHealthCheck(id)
	case OutcomeSkipped:
		// Transport lost or an unexpected response condition: no flag
		// change, no event, retried at the next interval.
		s.skipped.Inc()
	}
}

// Stop cancels every outstanding task and waits for them to exit.
func (s *Scheduler) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.cancel))
	for _, c := range s.cancel {
		cancels = append(cancels, c)
	}
	s.cancel = make(map[bridge.Id]context.CancelFunc)
	group := s.group
	s.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	if group != nil {
		_ = group.Wait()
	}
}
