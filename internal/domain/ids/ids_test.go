package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	first, err := NewULID()
	require.NoError(t, err)
	require.Len(t, first, 26)
	require.NoError(t, ValidateULID(first))

	second, err := NewULID()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestValidateULID(t *testing.T) {
	require.NoError(t, ValidateULID("01HQZX3Y4K6F7G8H9J0K1M2N3P"))
	require.NoError(t, ValidateULID("01hqzx3y4k6f7g8h9j0k1m2n3p"))

	require.ErrorIs(t, ValidateULID(""), ErrInvalidULID)
	require.ErrorIs(t, ValidateULID("not-a-ulid"), ErrInvalidULID)
	require.ErrorIs(t, ValidateULID("01HQZX3Y4K6F7G8H9J0K1M2N3"), ErrInvalidULID)
	// I, L, O, U are not in Crockford Base32.
	require.ErrorIs(t, ValidateULID("01HQZX3Y4K6F7G8H9J0K1M2NIL"), ErrInvalidULID)
}

func TestNewTicketCodeUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		code := NewTicketCode()
		_, dup := seen[code]
		require.False(t, dup, "duplicate ticket code %s", code)
		seen[code] = struct{}{}
	}
}
