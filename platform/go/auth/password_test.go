package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3rSecret", hash)

	require.True(t, ComparePassword(hash, "Sup3rSecret"))
	require.False(t, ComparePassword(hash, "sup3rsecret"))
	require.False(t, ComparePassword(hash, ""))
}

func TestHashPasswordRequiresInput(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("")
	require.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		issues   int
	}{
		{"valid", "Sup3rSecret", 0},
		{"too short but complete", "Ab1xyzq", 1},
		{"no uppercase", "sup3rsecret", 1},
		{"no lowercase", "SUP3RSECRET", 1},
		{"no digit", "SuperSecret", 1},
		{"empty fails every rule", "", 4},
		{"digits only", "12345678", 2},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Len(t, ValidatePassword(tc.password), tc.issues)
		})
	}
}
