package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProducesValidSortedIDs(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	_, err := Parse(a.String())
	require.NoError(t, err)
	_, err = Parse(b.String())
	require.NoError(t, err)

	// Monotonic entropy guarantees strictly increasing IDs within a process.
	require.Less(t, a.String(), b.String())
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "not-a-ulid", "0000"} {
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrInvalid)
	}
}

func TestNewAtEmbedsTimestamp(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	id := NewAt(at)
	require.WithinDuration(t, at, id.Time(), time.Millisecond)
}
