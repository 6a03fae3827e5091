package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tempowatch/tempowatch/pkg/rte"
)

func TestComputeWait(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 1, 9, 30, 0, 0, rte.Paris)

	t.Run("FetchFailed", func(t *testing.T) {
		assert.Equal(t, 10*time.Minute, computeWait(ctx, now, time.Time{}))
	})

	t.Run("NextDayKnown", func(t *testing.T) {
		// window reaches two days past today: nothing new until midnight
		latestEnd := time.Date(2024, time.January, 3, 0, 0, 0, 0, rte.Paris)
		wait := computeWait(ctx, now, latestEnd)
		midnight := time.Date(2024, time.January, 2, 0, 0, 0, 0, rte.Paris)
		assert.Equal(t, midnight.Sub(now), wait)
		assert.Equal(t, 14*time.Hour+30*time.Minute, wait)
	})

	t.Run("NextDayUnknown", func(t *testing.T) {
		latestEnd := time.Date(2024, time.January, 2, 0, 0, 0, 0, rte.Paris)
		assert.Equal(t, 30*time.Minute, computeWait(ctx, now, latestEnd))
	})

	t.Run("UnexpectedDiff", func(t *testing.T) {
		// too short
		latestEnd := time.Date(2024, time.January, 1, 0, 0, 0, 0, rte.Paris)
		assert.Equal(t, time.Hour, computeWait(ctx, now, latestEnd))

		// too long
		latestEnd = time.Date(2024, time.January, 5, 0, 0, 0, 0, rte.Paris)
		assert.Equal(t, time.Hour, computeWait(ctx, now, latestEnd))

		// in the past
		latestEnd = time.Date(2023, time.December, 25, 0, 0, 0, 0, rte.Paris)
		assert.Equal(t, time.Hour, computeWait(ctx, now, latestEnd))
	})
}
