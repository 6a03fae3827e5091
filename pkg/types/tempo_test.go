package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColorKnown(t *testing.T) {
	assert.True(t, ColorRed.Known())
	assert.True(t, ColorWhite.Known())
	assert.True(t, ColorBlue.Known())
	assert.False(t, Color("").Known())
	assert.False(t, Color("PURPLE").Known())
}

func TestNewFetchWindow(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	assert.NoError(t, err)

	// the window anchors on the calendar date, not the instant
	ref := time.Date(2024, time.January, 1, 9, 30, 0, 0, paris)
	w := NewFetchWindow(ref, 364, 2)

	assert.True(t, w.Start.Equal(time.Date(2023, time.January, 2, 0, 0, 0, 0, paris)))
	assert.True(t, w.End.Equal(time.Date(2024, time.January, 3, 0, 0, 0, 0, paris)))

	// same date, different time of day yields the same window
	later := time.Date(2024, time.January, 1, 23, 59, 0, 0, paris)
	assert.Equal(t, w, NewFetchWindow(later, 364, 2))
}

func TestFetchWindowString(t *testing.T) {
	w := NewFetchWindow(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 1, 1)
	assert.Equal(t, "2023-12-31T00:00:00Z -> 2024-01-02T00:00:00Z", w.String())
}
