package service

import (
	"context"
	"sync"
	"time"

	"example.com/tempmemo/internal/memos"
)

// BeginEdit protects id from sweeps and loads it. If the memo is already gone the
// protection is dropped again and memos.ErrNotFound is returned; nothing is fabricated.
func (s *Service) BeginEdit(ctx context.Context, id int64) (memos.Memo, error) {
	s.coord.SetEditing(id)

	m, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.coord.ReleaseEditing(id)
		return memos.Memo{}, err
	}
	if !found {
		s.coord.ReleaseEditing(id)
		return memos.Memo{}, memos.ErrNotFound
	}
	return m, nil
}

// SaveEdit replaces the text and restarts the countdown: the new deletion time is
// d after the save instant, never derived from the old one. When the memo vanished
// while it was open, ErrMemoRemoved is returned and the memo stays protected until
// EndEdit. Only the protection of id itself is dropped on success.
func (s *Service) SaveEdit(ctx context.Context, id int64, text string, d time.Duration) (memos.Memo, error) {
	text, d, err := s.prepare(text, d)
	if err != nil {
		return memos.Memo{}, err
	}

	deleteAt := s.now().Add(d).UnixMilli()
	n, err := s.store.UpdateGuarded(ctx, id, text, deleteAt)
	if err != nil {
		s.logger.Error("save memo failed", "id", id, "error", err)
		return memos.Memo{}, err
	}
	if n == 0 {
		s.logger.Warn("save lost race, memo already removed", "id", id)
		return memos.Memo{}, ErrMemoRemoved
	}
	s.coord.ReleaseEditing(id)

	m, found, err := s.store.GetByID(ctx, id)
	if err != nil || !found {
		// The update committed; report what was written. CreatedAt is unknown here.
		s.logger.Warn("reload after save failed", "id", id, "found", found, "error", err)
		return memos.Memo{ID: id, Text: text, DeleteAt: deleteAt}, nil
	}
	return m, nil
}

// EndEdit closes the editor on id without saving. The protection is dropped only
// if it still belongs to id.
func (s *Service) EndEdit(id int64) {
	s.coord.ReleaseEditing(id)
}

// EditSession is one open editor. Close must be called when the editor goes away,
// whatever happened; it is safe after Save or Delete.
type EditSession struct {
	svc  *Service
	memo memos.Memo
	once sync.Once
}

// OpenEditor starts an EditSession on id.
func (s *Service) OpenEditor(ctx context.Context, id int64) (*EditSession, error) {
	m, err := s.BeginEdit(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EditSession{svc: s, memo: m}, nil
}

// Memo is the memo as it was loaded when the editor opened.
func (e *EditSession) Memo() memos.Memo {
	return e.memo
}

func (e *EditSession) Save(ctx context.Context, text string, d time.Duration) (memos.Memo, error) {
	m, err := e.svc.SaveEdit(ctx, e.memo.ID, text, d)
	if err != nil {
		return memos.Memo{}, err
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = e.memo.CreatedAt
	}
	e.memo = m
	return m, nil
}

func (e *EditSession) Delete(ctx context.Context) error {
	if err := e.svc.Delete(ctx, e.memo.ID); err != nil {
		return err
	}
	e.svc.EndEdit(e.memo.ID)
	return nil
}

func (e *EditSession) Close() {
	e.once.Do(func() { e.svc.EndEdit(e.memo.ID) })
}
