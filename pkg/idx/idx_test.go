package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/accountd/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewIDAndParse(t *testing.T) {
	id := idx.NewID()
	require.NotEmpty(t, id)

	parsed, err := idx.ParseID(id)
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	// Upper case input is normalised
	parsed, err = idx.ParseID(strings.ToUpper(id))
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestNewIDUnique(t *testing.T) {
	require.NotEqual(t, idx.NewID(), idx.NewID())
}

func TestParseIDRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-uuid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"} {
		_, err := idx.ParseID(in)
		require.ErrorIs(t, err, idx.ErrInvalid, in)
		require.False(t, idx.IsID(in))
	}
}

func TestRequestIDOrdering(t *testing.T) {
	a := idx.NewRequestIDAt(time.Unix(1, 0).UTC())
	b := idx.NewRequestIDAt(time.Unix(2, 0).UTC())

	require.Less(t, a, b)
}

func TestRequestTime(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewRequestIDAt(tm)

	require.WithinDuration(t, tm, idx.RequestTime(id), time.Millisecond)
	require.True(t, idx.RequestTime("garbage").IsZero())
}
