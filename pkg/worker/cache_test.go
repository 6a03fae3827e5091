package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempowatch/tempowatch/pkg/rte"
	"github.com/tempowatch/tempowatch/pkg/types"
)

// tempoDay builds an adjusted-view fixture running from startDay 06:00 to
// the next day 06:00.
func tempoDay(startDay int, value types.Color) types.TempoDay {
	start := time.Date(2024, time.January, startDay, 6, 0, 0, 0, rte.Paris)
	return types.TempoDay{
		Start:   start,
		End:     start.AddDate(0, 0, 1),
		Value:   value,
		Updated: start.AddDate(0, 0, -1),
	}
}

// dateDay builds the matching date-only fixture.
func dateDay(startDay int, value types.Color) types.TempoDay {
	start := time.Date(2024, time.January, startDay, 0, 0, 0, 0, rte.Paris)
	return types.TempoDay{
		Start:   start,
		End:     start.AddDate(0, 0, 1),
		Value:   value,
		Updated: start.AddDate(0, 0, -1),
	}
}

func populatedCache(adjustedDays bool) *Cache {
	c := NewCache(adjustedDays)
	c.Replace(
		[]types.TempoDay{tempoDay(1, types.ColorWhite), tempoDay(2, types.ColorRed), tempoDay(3, types.ColorBlue)},
		[]types.TempoDay{dateDay(1, types.ColorWhite), dateDay(2, types.ColorRed), dateDay(3, types.ColorBlue)},
	)
	return c
}

func TestCacheQueryCurrent(t *testing.T) {
	c := populatedCache(true)

	// inside the second record: 2024-01-02 06:00 <= 07:00 < 2024-01-03 06:00
	day, ok := c.QueryCurrent(time.Date(2024, time.January, 2, 7, 0, 0, 0, rte.Paris))
	require.True(t, ok)
	assert.Equal(t, types.ColorRed, day.Value)

	// boundaries are half-open: the instant a day ends the next one owns it
	day, ok = c.QueryCurrent(time.Date(2024, time.January, 2, 6, 0, 0, 0, rte.Paris))
	require.True(t, ok)
	assert.Equal(t, types.ColorRed, day.Value)

	// before the adjusted start of the first day
	_, ok = c.QueryCurrent(time.Date(2024, time.January, 1, 5, 59, 0, 0, rte.Paris))
	assert.False(t, ok)

	// after everything
	_, ok = c.QueryCurrent(time.Date(2024, time.February, 1, 0, 0, 0, 0, rte.Paris))
	assert.False(t, ok)
}

func TestCacheQueryNext(t *testing.T) {
	c := populatedCache(true)

	day, ok := c.QueryNext(time.Date(2024, time.January, 2, 7, 0, 0, 0, rte.Paris))
	require.True(t, ok)
	assert.Equal(t, types.ColorBlue, day.Value)

	_, ok = c.QueryNext(time.Date(2024, time.January, 3, 7, 0, 0, 0, rte.Paris))
	assert.False(t, ok, "no record starts after the last one")
}

func TestCacheQueryRange(t *testing.T) {
	c := populatedCache(true)

	t.Run("FullyContained", func(t *testing.T) {
		days := c.QueryRange(
			time.Date(2024, time.January, 1, 0, 0, 0, 0, rte.Paris),
			time.Date(2024, time.January, 5, 0, 0, 0, 0, rte.Paris),
		)
		assert.Len(t, days, 3)
	})

	t.Run("OverlapLeftEdge", func(t *testing.T) {
		days := c.QueryRange(
			time.Date(2024, time.January, 2, 12, 0, 0, 0, rte.Paris),
			time.Date(2024, time.January, 5, 0, 0, 0, 0, rte.Paris),
		)
		// record 2 overlaps the range start, record 3 is contained
		require.Len(t, days, 2)
		assert.Equal(t, types.ColorRed, days[0].Value)
		assert.Equal(t, types.ColorBlue, days[1].Value)
	})

	t.Run("OverlapRightEdge", func(t *testing.T) {
		days := c.QueryRange(
			time.Date(2024, time.January, 1, 0, 0, 0, 0, rte.Paris),
			time.Date(2024, time.January, 2, 12, 0, 0, 0, rte.Paris),
		)
		require.Len(t, days, 2)
		assert.Equal(t, types.ColorWhite, days[0].Value)
		assert.Equal(t, types.ColorRed, days[1].Value)
	})

	t.Run("NoOverlap", func(t *testing.T) {
		days := c.QueryRange(
			time.Date(2024, time.February, 1, 0, 0, 0, 0, rte.Paris),
			time.Date(2024, time.February, 5, 0, 0, 0, 0, rte.Paris),
		)
		assert.Empty(t, days)
	})
}

func TestCacheViews(t *testing.T) {
	c := populatedCache(true)

	// adjusted preference serves the shifted view
	assert.Equal(t, 6, c.CalendarDays()[0].Start.Hour())
	assert.True(t, c.UsesAdjustedDays())

	// swapping the preference changes CalendarDays without a refetch
	c.SetAdjustedDays(false)
	assert.Equal(t, 0, c.CalendarDays()[0].Start.Hour())
	assert.False(t, c.UsesAdjustedDays())

	// AdjustedDays is not affected by the preference
	assert.Equal(t, 6, c.AdjustedDays()[0].Start.Hour())
}

func TestCacheReplace(t *testing.T) {
	c := NewCache(true)
	assert.True(t, c.Empty())
	assert.Empty(t, c.CalendarDays())

	c.Replace(
		[]types.TempoDay{tempoDay(1, types.ColorBlue)},
		[]types.TempoDay{dateDay(1, types.ColorBlue)},
	)
	assert.False(t, c.Empty())

	// both views swap together
	assert.Len(t, c.AdjustedDays(), 1)
	c.SetAdjustedDays(false)
	assert.Len(t, c.CalendarDays(), 1)
}
