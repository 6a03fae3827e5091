package types

import (
	"fmt"
	"time"
)

// CurrentTempoDayVersion is bumped when the persisted day encoding changes,
// so older records can be refetched instead of trusted.
const CurrentTempoDayVersion = 1

// Color is the published tariff color of a tempo day.
type Color string

const (
	ColorRed   Color = "RED"
	ColorWhite Color = "WHITE"
	ColorBlue  Color = "BLUE"
)

// Known reports whether the color is one of the published tempo colors.
func (c Color) Known() bool {
	switch c {
	case ColorRed, ColorWhite, ColorBlue:
		return true
	}
	return false
}

// TempoDay is one day of the tempo calendar. Start and End are either
// clock-adjusted instants (the day really runs from day-change hour to
// day-change hour) or plain calendar-date midnights, depending on which view
// the day belongs to. A TempoDay is never mutated after it is built.
type TempoDay struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Value   Color     `json:"value"`
	Updated time.Time `json:"updated"`
}

// FetchWindow bounds a single calendar request.
type FetchWindow struct {
	Start time.Time
	End   time.Time
}

// NewFetchWindow returns the request window [today-pastDays, today+futureDays]
// anchored on the calendar date of ref in ref's location.
func NewFetchWindow(ref time.Time, pastDays, futureDays int) FetchWindow {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return FetchWindow{
		Start: day.AddDate(0, 0, -pastDays),
		End:   day.AddDate(0, 0, futureDays),
	}
}

func (w FetchWindow) String() string {
	return fmt.Sprintf("%s -> %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
