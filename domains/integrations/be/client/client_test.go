package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePriceCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  int64
	}{
		{"19.99", 1999},
		{"0.00", 0},
		{" 5 ", 500},
		{"2.50", 250},
		{"", 0},
		{"free", 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, parsePriceCents(tc.input))
		})
	}
}
