// Package widget builds the home-screen summary: the few memos closest to expiry.
package widget

import (
	"fmt"
	"io"
	"strings"
	"time"

	"example.com/tempmemo/internal/memos"
)

const (
	// MaxItems is how many memos the widget shows.
	MaxItems     = 3
	PreviewLines = 2

	Title      = "Temporary memos"
	EmptyLabel = "No memos"
)

type Item struct {
	ID        int64         `json:"id"`
	Preview   string        `json:"preview"`
	Remaining string        `json:"remaining"`
	Urgency   memos.Urgency `json:"urgency"`
}

type View struct {
	Title string `json:"title"`
	Count int64  `json:"count"`
	Items []Item `json:"items"`
}

// Build turns the valid memos (nearest expiry first) into a view as of now.
// Anything past MaxItems is dropped.
func Build(top []memos.Memo, count int64, now time.Time) View {
	v := View{Title: Title, Count: count, Items: make([]Item, 0, MaxItems)}
	for _, m := range top {
		if len(v.Items) == MaxItems {
			break
		}
		v.Items = append(v.Items, Item{
			ID:        m.ID,
			Preview:   m.PreviewText(PreviewLines),
			Remaining: m.RemainingLabel(now),
			Urgency:   m.Urgency(now),
		})
	}
	return v
}

// Render writes the view as plain text, one block per memo.
func Render(w io.Writer, v View) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n", v.Title, v.Count)
	if len(v.Items) == 0 {
		fmt.Fprintf(&b, "  %s\n", EmptyLabel)
	}
	for _, it := range v.Items {
		lines := strings.Split(it.Preview, "\n")
		fmt.Fprintf(&b, "- %s  [%s, %s]\n", lines[0], it.Remaining, it.Urgency)
		for _, l := range lines[1:] {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
