package httpapi

import (
	"time"

	"example.com/tempmemo/internal/memos"
)

type CreateMemoRequest struct {
	Text          string `json:"text"`
	DurationHours int    `json:"duration_hours"`
}

type UpdateMemoRequest struct {
	Text          string `json:"text"`
	DurationHours int    `json:"duration_hours"`
}

// SettingsRequest updates only the fields that are present.
type SettingsRequest struct {
	LockEnabled *bool   `json:"lock_enabled"`
	Theme       *string `json:"theme"`
}

// MemoView is a memo plus the labels a list row needs, computed at response time.
type MemoView struct {
	memos.Memo
	Preview   string        `json:"preview"`
	Remaining string        `json:"remaining"`
	Urgency   memos.Urgency `json:"urgency"`
	Expired   bool          `json:"expired"`
}

// listPreviewLines is how much of a memo the list screen shows.
const listPreviewLines = 3

func newMemoView(m memos.Memo, now time.Time) MemoView {
	return MemoView{
		Memo:      m,
		Preview:   m.PreviewText(listPreviewLines),
		Remaining: m.RemainingLabel(now),
		Urgency:   m.Urgency(now),
		Expired:   m.IsExpired(now),
	}
}

func newMemoViews(list []memos.Memo, now time.Time) []MemoView {
	out := make([]MemoView, 0, len(list))
	for _, m := range list {
		out = append(out, newMemoView(m, now))
	}
	return out
}
