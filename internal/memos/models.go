package memos

import (
	"strings"
	"time"

	"example.com/tempmemo/internal/stringsx"
)

// EmptyPreview is shown in place of a memo whose text has no visible lines.
const EmptyPreview = "(empty memo)"

// Memo is a text note that expires at DeleteAt. Both timestamps are epoch milliseconds.
type Memo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	DeleteAt  int64  `json:"delete_at"`
}

// IsExpired reports whether the memo is due for deletion at now.
func (m Memo) IsExpired(now time.Time) bool {
	return now.UnixMilli() >= m.DeleteAt
}

// Remaining is the time left until DeleteAt; zero or negative once expired.
func (m Memo) Remaining(now time.Time) time.Duration {
	return time.Duration(m.DeleteAt-now.UnixMilli()) * time.Millisecond
}

// PreviewText returns the first maxLines non-blank lines of the memo.
func (m Memo) PreviewText(maxLines int) string {
	lines := stringsx.NonBlankLines(m.Text, maxLines)
	if len(lines) == 0 {
		return EmptyPreview
	}
	return strings.Join(lines, "\n")
}

func (m Memo) Created() time.Time { return time.UnixMilli(m.CreatedAt) }

func (m Memo) Deletes() time.Time { return time.UnixMilli(m.DeleteAt) }
