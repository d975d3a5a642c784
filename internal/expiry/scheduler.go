package expiry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
)

// DefaultInterval is how often the list view sweeps while it is active.
const DefaultInterval = time.Minute

var ErrSchedulerRunning = errors.New("expiry scheduler already running")

// Trigger reasons, used in logs.
const (
	ReasonListShown  = "list-shown"
	ReasonInterval   = "interval"
	ReasonForeground = "foreground"
)

// Scheduler runs sweeps on a fixed interval while the list view is active and on
// demand when the app comes to the foreground. Overlapping triggers are harmless
// because a sweep is idempotent.
type Scheduler struct {
	coord    *Coordinator
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	trigger chan string
}

func NewScheduler(coord *Coordinator, interval time.Duration, now func() time.Time, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{coord: coord, interval: interval, now: now, logger: logger}
}

// Start marks the list view active: it sweeps once right away and then every interval
// until Stop or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrSchedulerRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	trigger := make(chan string, 1)
	s.cancel, s.done, s.trigger = cancel, done, trigger

	lifecycle.Go(runCtx, func(ctx context.Context) error {
		defer close(done)
		defer s.release(done)
		s.loop(ctx, trigger)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("expiry scheduler stopped", "error", err)
	}))

	s.logger.Debug("expiry scheduler started", "interval", s.interval)
	return nil
}

// Stop cancels the timer and waits for the loop to exit. A sweep already in
// flight is allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done, s.trigger = nil, nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Debug("expiry scheduler stopped")
}

// release forgets the run that owns done if it ended on its own, for example
// because the ctx given to Start was cancelled. After Stop it does nothing.
func (s *Scheduler) release(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != done {
		return
	}
	s.cancel()
	s.cancel, s.done, s.trigger = nil, nil, nil
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Trigger asks for an immediate sweep. While running, the request is handed to the
// loop and coalesced with one already pending; otherwise the sweep runs inline.
func (s *Scheduler) Trigger(ctx context.Context, reason string) {
	s.mu.Lock()
	trigger := s.trigger
	s.mu.Unlock()

	if trigger == nil {
		s.sweep(ctx, reason)
		return
	}
	select {
	case trigger <- reason:
	default:
	}
}

// Foreground is called when the app returns to the foreground.
func (s *Scheduler) Foreground(ctx context.Context) {
	s.Trigger(ctx, ReasonForeground)
}

func (s *Scheduler) loop(ctx context.Context, trigger <-chan string) {
	s.sweep(ctx, ReasonListShown)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, ReasonInterval)
		case reason := <-trigger:
			s.sweep(ctx, reason)
		}
	}
}

// sweep detaches from ctx cancellation so Stop never aborts a statement mid-flight.
func (s *Scheduler) sweep(ctx context.Context, reason string) SweepResult {
	res := s.coord.Sweep(context.WithoutCancel(ctx), s.now())
	if res.Err == nil && res.Deleted > 0 {
		s.logger.Info("expired memos removed", "deleted", res.Deleted, "reason", reason)
	}
	return res
}

// SchedulerState exposes the scheduler for observability.
type SchedulerState struct {
	Running  bool          `json:"running"`
	Interval time.Duration `json:"interval"`
}

// State implements introspection.Introspectable.
func (s *Scheduler) State() any {
	return SchedulerState{Running: s.Running(), Interval: s.interval}
}

// ComponentType implements introspection.Component.
func (s *Scheduler) ComponentType() string {
	return "expiry-scheduler"
}

var _ introspection.Introspectable = (*Scheduler)(nil)
var _ introspection.Component = (*Scheduler)(nil)
