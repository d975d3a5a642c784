package stringsx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"equal", "hello", 5, "hello"},
		{"clip", "hello", 3, "hel"},
		{"zero", "hello", 0, ""},
		{"neg", "hello", -1, ""},
		{"empty", "", 3, ""},
		{"multibyte", "メモを書く", 2, "メモ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clip(tt.in, tt.max))
		})
	}
}

func TestNormalize_And_IsEmpty(t *testing.T) {
	require.Equal(t, "HeLLo", Normalize("  HeLLo  "))
	// "e" + combining acute accent composes to a single rune.
	require.Equal(t, "\u00e9", Normalize("e\u0301"))
	require.True(t, IsEmpty("   \n\t  "))
	require.False(t, IsEmpty(" x "))
}

func TestNonBlankLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want []string
	}{
		{"blank", "  \n\t\n", 3, nil},
		{"skips blank lines", "a\n\n  \nb\nc\nd", 3, []string{"a", "b", "c"}},
		{"crlf", "a\r\nb\r\n", 3, []string{"a", "b"}},
		{"keeps inner space", "  indented  \n", 2, []string{"  indented  "}},
		{"zero max", "a", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NonBlankLines(tt.in, tt.max))
		})
	}
}

func TestRuneLen(t *testing.T) {
	require.Equal(t, 3, RuneLen("メモa"))
}
