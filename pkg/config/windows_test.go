package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindows(t *testing.T) {
	t.Run("multiple_ranges", func(t *testing.T) {
		w, err := ParseWindows("6-7,9-11,21-22")
		require.NoError(t, err)
		require.Len(t, w, 3)
		assert.Equal(t, HourRange{Start: 6, End: 7}, w[0])
		assert.Equal(t, HourRange{Start: 9, End: 11}, w[1])
		assert.Equal(t, HourRange{Start: 21, End: 22}, w[2])
	})

	t.Run("single_hour_without_dash", func(t *testing.T) {
		w, err := ParseWindows("14")
		require.NoError(t, err)
		require.Len(t, w, 1)
		assert.Equal(t, HourRange{Start: 14, End: 14}, w[0])
	})

	t.Run("whitespace_tolerated", func(t *testing.T) {
		w, err := ParseWindows(" 6-7 , 9-11 ")
		require.NoError(t, err)
		assert.Len(t, w, 2)
	})

	t.Run("hour_out_of_range", func(t *testing.T) {
		_, err := ParseWindows("6-24")
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseWindows("six-seven")
		assert.Error(t, err)
	})

	t.Run("empty_spec", func(t *testing.T) {
		_, err := ParseWindows("")
		assert.Error(t, err)
	})
}

func TestHourRangeContains(t *testing.T) {
	t.Run("plain_range", func(t *testing.T) {
		r := HourRange{Start: 6, End: 7}
		assert.True(t, r.Contains(6))
		assert.True(t, r.Contains(7))
		assert.False(t, r.Contains(5))
		assert.False(t, r.Contains(8))
	})

	t.Run("midnight_wrap", func(t *testing.T) {
		r := HourRange{Start: 23, End: 2}
		assert.True(t, r.Contains(23))
		assert.True(t, r.Contains(0))
		assert.True(t, r.Contains(2))
		assert.False(t, r.Contains(3))
		assert.False(t, r.Contains(22))
	})
}

func TestWindowsContains(t *testing.T) {
	w, err := ParseWindows("6-7,9-11,21-22")
	require.NoError(t, err)

	for _, h := range []int{6, 7, 9, 10, 11, 21, 22} {
		assert.True(t, w.Contains(h), "hour %d should be inside", h)
	}
	for _, h := range []int{0, 5, 8, 12, 20, 23} {
		assert.False(t, w.Contains(h), "hour %d should be outside", h)
	}
}
