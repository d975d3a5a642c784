// Package expiry purges expired memos while protecting the one open in an editor.
package expiry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"
)

// Purger is the part of the memo store the coordinator needs.
type Purger interface {
	DeleteExpiredBefore(ctx context.Context, now int64) (int64, error)
	DeleteExpiredBeforeExcept(ctx context.Context, now, protectedID int64) (int64, error)
}

// SweepResult describes one sweep. Err is informational: it has already been logged.
type SweepResult struct {
	Deleted     int64
	ProtectedID int64
	Err         error
}

// Coordinator owns the "currently editing" marker and picks the purge query to run.
// Memo ids start at 1, so 0 means nobody is editing.
type Coordinator struct {
	store   Purger
	logger  *slog.Logger
	editing atomic.Int64

	mu        sync.Mutex
	sweeps    int64
	failures  int64
	deleted   int64
	lastSweep time.Time
	lastErr   error
}

func NewCoordinator(store Purger, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, logger: logger}
}

// SetEditing protects id from sweeps until ClearEditing. A non-positive id clears.
func (c *Coordinator) SetEditing(id int64) {
	if id < 0 {
		id = 0
	}
	c.editing.Store(id)
}

func (c *Coordinator) ClearEditing() {
	c.editing.Store(0)
}

// ReleaseEditing clears the marker only while it still protects id, so closing or
// saving one memo never unprotects another that is open.
func (c *Coordinator) ReleaseEditing(id int64) bool {
	return id > 0 && c.editing.CompareAndSwap(id, 0)
}

func (c *Coordinator) EditingID() (int64, bool) {
	id := c.editing.Load()
	return id, id != 0
}

// Sweep deletes every memo expired at now except the one being edited.
// Storage failures are logged and reported in the result, never returned as a crash;
// the next trigger retries.
func (c *Coordinator) Sweep(ctx context.Context, now time.Time) SweepResult {
	protected := c.editing.Load()
	ms := now.UnixMilli()

	var (
		n   int64
		err error
	)
	if protected != 0 {
		n, err = c.store.DeleteExpiredBeforeExcept(ctx, ms, protected)
	} else {
		n, err = c.store.DeleteExpiredBefore(ctx, ms)
	}

	c.record(now, n, err)
	if err != nil {
		c.logger.Error("expiry sweep failed", "error", err, "protected_id", protected)
		return SweepResult{ProtectedID: protected, Err: err}
	}
	c.logger.Debug("expiry sweep", "deleted", n, "protected_id", protected)
	return SweepResult{Deleted: n, ProtectedID: protected}
}

func (c *Coordinator) record(now time.Time, n int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweeps++
	c.lastSweep = now
	c.lastErr = err
	if err != nil {
		c.failures++
		return
	}
	c.deleted += n
}

// CoordinatorState exposes sweep statistics for observability.
type CoordinatorState struct {
	EditingID int64     `json:"editing_id"`
	Sweeps    int64     `json:"sweeps"`
	Failures  int64     `json:"failures"`
	Deleted   int64     `json:"deleted"`
	LastSweep time.Time `json:"last_sweep"`
	LastError string    `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Coordinator) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := CoordinatorState{
		EditingID: c.editing.Load(),
		Sweeps:    c.sweeps,
		Failures:  c.failures,
		Deleted:   c.deleted,
		LastSweep: c.lastSweep,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (c *Coordinator) ComponentType() string {
	return "expiry-coordinator"
}

var _ introspection.Introspectable = (*Coordinator)(nil)
var _ introspection.Component = (*Coordinator)(nil)
