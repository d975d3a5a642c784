package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"example.com/tempmemo/internal/config"
	"example.com/tempmemo/internal/expiry"
	"example.com/tempmemo/internal/mathx"
	"example.com/tempmemo/internal/memos"
	"example.com/tempmemo/internal/stringsx"
	"example.com/tempmemo/internal/widget"
)

var (
	// ErrMemoRemoved means a save lost the race against a sweep or a delete.
	// The memo is not re-created.
	ErrMemoRemoved   = errors.New("could not save: memo was removed")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Store is the memo table as seen by the service.
// It allows unit-testing the service without a real database.
type Store interface {
	Insert(ctx context.Context, text string, createdAt, deleteAt int64) (int64, error)
	GetByID(ctx context.Context, id int64) (memos.Memo, bool, error)
	ListByExpiry(ctx context.Context) ([]memos.Memo, error)
	Watch(ctx context.Context) (<-chan []memos.Memo, error)
	UpdateGuarded(ctx context.Context, id int64, text string, deleteAt int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	CountValidAsOf(ctx context.Context, now int64) (int64, error)
	TopValidAsOf(ctx context.Context, now int64, limit int) ([]memos.Memo, error)
}

// SettingsSource supplies the current user settings.
type SettingsSource interface {
	Current() config.Settings
}

type staticSettings config.Settings

func (s staticSettings) Current() config.Settings { return config.Settings(s) }

// Service holds the memo rules that sit between callers and the store:
// validation, deletion times, the editor protocol and the undo buffer.
type Service struct {
	store    Store
	coord    *expiry.Coordinator
	settings SettingsSource
	now      func() time.Time
	logger   *slog.Logger

	mu          sync.Mutex
	lastDeleted *memos.Memo
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithSettings(src SettingsSource) Option {
	return func(s *Service) { s.settings = src }
}

func New(store Store, coord *expiry.Coordinator, opts ...Option) *Service {
	s := &Service{
		store:    store,
		coord:    coord,
		settings: staticSettings(config.DefaultSettings()),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coordinator returns the expiry coordinator guarding this service's memos.
func (s *Service) Coordinator() *expiry.Coordinator {
	return s.coord
}

// prepare normalizes text and fits the duration into the configured slider range.
func (s *Service) prepare(text string, d time.Duration) (string, time.Duration, error) {
	text = stringsx.Normalize(text)
	if text == "" {
		return "", 0, fmt.Errorf("%w: text is blank", memos.ErrInvalidInput)
	}
	if d <= 0 {
		return "", 0, fmt.Errorf("%w: duration must be positive", memos.ErrInvalidInput)
	}

	set := s.settings.Current()
	d = mathx.Clamp(d, set.MinDuration(), set.MaxDuration())
	if n := stringsx.RuneLen(text); n > set.MaxTextLength {
		s.logger.Warn("memo text longer than recommended", "length", n, "limit", set.MaxTextLength)
	}
	return text, d, nil
}

// Create stores a new memo that expires d after now.
func (s *Service) Create(ctx context.Context, text string, d time.Duration) (memos.Memo, error) {
	text, d, err := s.prepare(text, d)
	if err != nil {
		return memos.Memo{}, err
	}

	now := s.now()
	m := memos.Memo{Text: text, CreatedAt: now.UnixMilli(), DeleteAt: now.Add(d).UnixMilli()}
	m.ID, err = s.store.Insert(ctx, m.Text, m.CreatedAt, m.DeleteAt)
	if err != nil {
		s.logger.Error("create memo failed", "error", err)
		return memos.Memo{}, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id int64) (memos.Memo, error) {
	m, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		return memos.Memo{}, err
	}
	if !found {
		return memos.Memo{}, memos.ErrNotFound
	}
	return m, nil
}

// List returns every stored memo, nearest expiry first.
func (s *Service) List(ctx context.Context) ([]memos.Memo, error) {
	return s.store.ListByExpiry(ctx)
}

func (s *Service) Watch(ctx context.Context) (<-chan []memos.Memo, error) {
	return s.store.Watch(ctx)
}

// Now is the service clock, exposed so callers label memos against the same instant.
func (s *Service) Now() time.Time {
	return s.now()
}

// Delete removes a memo and remembers its fields for Undo. Deleting a memo that is
// already gone succeeds.
func (s *Service) Delete(ctx context.Context, id int64) error {
	m, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("delete memo failed", "id", id, "error", err)
		return err
	}
	s.coord.ReleaseEditing(id)
	if found {
		s.mu.Lock()
		s.lastDeleted = &m
		s.mu.Unlock()
	}
	return nil
}

// Undo re-inserts the last deleted memo's text and timestamps as a new memo with
// a new id. It is a convenience, not a restore: the old id is gone for good.
func (s *Service) Undo(ctx context.Context) (memos.Memo, error) {
	s.mu.Lock()
	last := s.lastDeleted
	s.lastDeleted = nil
	s.mu.Unlock()

	if last == nil {
		return memos.Memo{}, ErrNothingToUndo
	}

	m := *last
	id, err := s.store.Insert(ctx, m.Text, m.CreatedAt, m.DeleteAt)
	if err != nil {
		s.mu.Lock()
		if s.lastDeleted == nil {
			s.lastDeleted = last
		}
		s.mu.Unlock()
		return memos.Memo{}, err
	}
	m.ID = id
	return m, nil
}

// Sweep runs an expiry pass now. Failures are logged by the coordinator.
func (s *Service) Sweep(ctx context.Context) expiry.SweepResult {
	return s.coord.Sweep(ctx, s.now())
}

// Widget returns the home-screen summary as of now.
func (s *Service) Widget(ctx context.Context) (widget.View, error) {
	now := s.now()
	top, err := s.store.TopValidAsOf(ctx, now.UnixMilli(), widget.MaxItems)
	if err != nil {
		return widget.View{}, err
	}
	count, err := s.store.CountValidAsOf(ctx, now.UnixMilli())
	if err != nil {
		return widget.View{}, err
	}
	return widget.Build(top, count, now), nil
}
