package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	want := date(2024, time.March, 5)
	for _, in := range []string{"2024-03-05", "2024/03/05", "05-03-2024", "05/03/2024", "  2024-03-05 "} {
		t.Run(in, func(t *testing.T) {
			got, err := Parse(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got))
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "March 5 2024", "2024-13-01", "5.3.2024"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestContainsInclusive(t *testing.T) {
	r, swapped, err := ParseRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.False(t, swapped)

	assert.False(t, r.Contains(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, r.Contains(date(2024, 1, 1)))
	assert.True(t, r.Contains(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(date(2024, 2, 1)))
}

func TestOpenBounds(t *testing.T) {
	r, _, err := ParseRange("", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, r.Contains(date(1999, 1, 1)))
	assert.False(t, r.Contains(date(2024, 2, 2)))

	var zero Range
	assert.True(t, zero.IsZero())
	assert.True(t, zero.Contains(date(2030, 1, 1)))
	assert.Equal(t, "any to any", zero.String())
}

func TestReversedBoundsAreSwapped(t *testing.T) {
	r, swapped, err := ParseRange("31/01/2024", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Equal(t, "2024-01-01 to 2024-01-31", r.String())

	start, end := r.Bounds()
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, "2024-01-01", *start)
	assert.Equal(t, "2024-01-31", *end)
}

func TestParseRangeErrors(t *testing.T) {
	_, _, err := ParseRange("yesterday", "")
	assert.ErrorContains(t, err, "start date")

	_, _, err = ParseRange("", "tomorrow")
	assert.ErrorContains(t, err, "end date")
}
