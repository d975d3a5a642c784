package mathx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClamp_Table(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{"inside", 5, 1, 10, 5},
		{"below", -2, 1, 10, 1},
		{"above", 200, 1, 168, 168},
		{"lower edge", 1, 1, 10, 1},
		{"upper edge", 10, 1, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clamp(tt.v, tt.lo, tt.hi))
		})
	}
}

func TestClamp_Durations(t *testing.T) {
	require.Equal(t, time.Hour, Clamp(time.Minute, time.Hour, 168*time.Hour))
	require.Equal(t, 168*time.Hour, Clamp(1000*time.Hour, time.Hour, 168*time.Hour))
}
