package widget

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"example.com/tempmemo/internal/memos"
)

var now = time.UnixMilli(1_700_000_000_000)

func memoIn(id int64, text string, left time.Duration) memos.Memo {
	return memos.Memo{ID: id, Text: text, CreatedAt: now.UnixMilli(), DeleteAt: now.Add(left).UnixMilli()}
}

func sampleTop() []memos.Memo {
	return []memos.Memo{
		memoIn(4, "buy milk\n\nand eggs\nand bread", 45*time.Minute),
		memoIn(2, "   ", 3*time.Hour+12*time.Minute),
		memoIn(9, "call dentist", 2*24*time.Hour+5*time.Hour),
		memoIn(1, "dropped", 30*24*time.Hour),
	}
}

func TestBuild(t *testing.T) {
	v := Build(sampleTop(), 5, now)

	require.Equal(t, Title, v.Title)
	require.Equal(t, int64(5), v.Count)
	require.Len(t, v.Items, MaxItems)
	require.Equal(t, Item{ID: 4, Preview: "buy milk\nand eggs", Remaining: "45m left", Urgency: memos.UrgencyCritical}, v.Items[0])
	require.Equal(t, memos.EmptyPreview, v.Items[1].Preview)
	require.Equal(t, memos.UrgencyLow, v.Items[2].Urgency)
}

func TestBuild_Empty(t *testing.T) {
	v := Build(nil, 0, now)
	require.NotNil(t, v.Items)
	require.Empty(t, v.Items)
}

func TestRender_Golden(t *testing.T) {
	tests := []struct {
		name string
		view View
	}{
		{"widget_three", Build(sampleTop(), 5, now)},
		{"widget_empty", Build(nil, 0, now)},
	}

	g := goldie.New(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, tt.view))
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}
