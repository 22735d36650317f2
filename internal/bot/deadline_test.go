package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadline(t *testing.T) {
	t.Run("date with time", func(t *testing.T) {
		got, ok := parseDeadline("15.08.2008 15:30")
		require.True(t, ok)
		assert.Equal(t, time.Date(2008, time.August, 15, 15, 30, 0, 0, time.Local), got)
	})

	t.Run("date only defaults to midnight", func(t *testing.T) {
		got, ok := parseDeadline("01.09.2026")
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.Local), got)
	})

	t.Run("rejects nonexistent date", func(t *testing.T) {
		_, ok := parseDeadline("31.02.2024")
		assert.False(t, ok)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, input := range []string{"", "завтра", "2024-02-01", "1.2.2024", "15.08.2008 25:00"} {
			_, ok := parseDeadline(input)
			assert.False(t, ok, "input %q", input)
		}
	})
}
