package memos

import (
	"context"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"
)

// broker fans a "table changed" signal out to subscribers. Each subscriber
// channel holds at most one pending signal, so bursts of writes coalesce.
type broker struct {
	mu     sync.Mutex
	subs   map[string]chan struct{}
	closed bool
}

func newBroker() *broker {
	return &broker{subs: make(map[string]chan struct{})}
}

func (b *broker) subscribe() (string, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan struct{}, 1)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	return id, ch
}

func (b *broker) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broker) publish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Watch streams the memo list, nearest expiry first. The current list is sent
// immediately, then a fresh one after every change made through this repository.
// The channel is closed when ctx is done or the repository is closed.
func (r *Repository) Watch(ctx context.Context) (<-chan []Memo, error) {
	id, signal := r.changes.subscribe()

	first, err := r.ListByExpiry(ctx)
	if err != nil {
		r.changes.unsubscribe(id)
		return nil, err
	}

	out := make(chan []Memo, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer r.changes.unsubscribe(id)

		send := func(list []Memo) bool {
			select {
			case out <- list:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(first) {
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-signal:
				if !ok {
					return nil
				}
				next, err := r.ListByExpiry(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					r.logger.Warn("memo watch refresh failed", "error", err)
					continue
				}
				if !send(next) {
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("memo watch panic", "error", err)
	}))

	return out, nil
}

// RepositoryState exposes the repository for observability.
type RepositoryState struct {
	Subscribers int `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	return RepositoryState{Subscribers: r.changes.count()}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "memo-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
