package worker

import (
	"sync/atomic"
	"time"

	"github.com/tempowatch/tempowatch/pkg/types"
)

// snapshot pairs the two views derived from one fetch. Both slices are
// replaced together so a reader can never see one view newer than the other.
type snapshot struct {
	adjusted []types.TempoDay
	dateonly []types.TempoDay
}

// Cache holds the latest fetched tempo days. The worker loop is the only
// writer; readers grab the current snapshot and never mutate it, so no
// locking is needed beyond the atomic pointer swap.
type Cache struct {
	snap         atomic.Pointer[snapshot]
	adjustedDays atomic.Bool
}

// NewCache returns an empty cache. adjustedDays selects which view
// CalendarDays returns.
func NewCache(adjustedDays bool) *Cache {
	c := &Cache{}
	c.snap.Store(&snapshot{})
	c.adjustedDays.Store(adjustedDays)
	return c
}

// Replace atomically swaps in both views from a new fetch.
func (c *Cache) Replace(adjusted, dateonly []types.TempoDay) {
	c.snap.Store(&snapshot{adjusted: adjusted, dateonly: dateonly})
}

// Empty reports whether no fetch has populated the cache yet.
func (c *Cache) Empty() bool {
	snap := c.snap.Load()
	return len(snap.adjusted) == 0 && len(snap.dateonly) == 0
}

// SetAdjustedDays swaps which view CalendarDays returns, without touching
// the cached data.
func (c *Cache) SetAdjustedDays(v bool) {
	c.adjustedDays.Store(v)
}

// UsesAdjustedDays reports the current CalendarDays preference.
func (c *Cache) UsesAdjustedDays() bool {
	return c.adjustedDays.Load()
}

// CalendarDays returns the view selected by the adjusted-days preference.
func (c *Cache) CalendarDays() []types.TempoDay {
	snap := c.snap.Load()
	if c.adjustedDays.Load() {
		return snap.adjusted
	}
	return snap.dateonly
}

// AdjustedDays always returns the clock-adjusted view, which is the right
// one for "what color is it right now" point queries.
func (c *Cache) AdjustedDays() []types.TempoDay {
	return c.snap.Load().adjusted
}

// QueryCurrent returns the adjusted record whose [Start, End) contains now.
func (c *Cache) QueryCurrent(now time.Time) (types.TempoDay, bool) {
	for _, day := range c.AdjustedDays() {
		if !day.Start.After(now) && now.Before(day.End) {
			return day, true
		}
	}
	return types.TempoDay{}, false
}

// QueryNext returns the first adjusted record starting after now. Records
// are stored in the order the API reported them, sorted by Start.
func (c *Cache) QueryNext(now time.Time) (types.TempoDay, bool) {
	for _, day := range c.AdjustedDays() {
		if day.Start.After(now) {
			return day, true
		}
	}
	return types.TempoDay{}, false
}

// QueryRange returns the calendar-view records within [start, end]: fully
// contained ones plus those overlapping either edge.
func (c *Cache) QueryRange(start, end time.Time) []types.TempoDay {
	var days []types.TempoDay
	for _, day := range c.CalendarDays() {
		switch {
		case !day.Start.Before(start) && !day.End.After(end):
			days = append(days, day)
		case day.Start.Before(start) && start.Before(day.End) && day.End.Before(end):
			days = append(days, day)
		case start.Before(day.Start) && day.Start.Before(end) && end.Before(day.End):
			days = append(days, day)
		}
	}
	return days
}
