package points

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForPosition(t *testing.T) {
	tests := []struct {
		position int
		want     int
	}{
		{position: 1, want: 100},
		{position: 2, want: 75},
		{position: 3, want: 50},
		{position: 4, want: 50},
		{position: 5, want: 25},
		{position: 8, want: 25},
		{position: 9, want: 15},
		{position: 16, want: 15},
		{position: 17, want: 0},
		{position: 0, want: 0},
		{position: -1, want: 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ForPosition(tt.position), "position %d", tt.position)
	}
}

func TestDisplayPosition(t *testing.T) {
	tests := []struct {
		position int
		want     string
	}{
		{position: 1, want: "Winner"},
		{position: 2, want: "Runner-Up"},
		{position: 3, want: "Semifinal"},
		{position: 4, want: "Semifinal"},
		{position: 6, want: "Quarter Final"},
		{position: 12, want: "Pre-Quarter"},
		{position: 17, want: "17"},
		{position: 0, want: ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, DisplayPosition(tt.position), "position %d", tt.position)
	}
}
