package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/tempowatch/tempowatch/pkg/log"
)

const (
	// quick retry after a failed fetch
	fetchFailedWait = 10 * time.Minute
	// tomorrow's color is not published yet, poll more often
	nextDayUnknownWait = 30 * time.Minute
	// conservative fallback for a window size we don't expect
	unexpectedDiffWait = time.Hour
)

// computeWait returns how long to sleep before fetching again, based on how
// far into the future the last response reached. latestEnd is compared
// against the start of today in now's location; a zero latestEnd means the
// fetch failed.
func computeWait(ctx context.Context, now, latestEnd time.Time) time.Duration {
	if latestEnd.IsZero() {
		return fetchFailedWait
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	diff := latestEnd.Sub(today)

	switch days := int(diff / (24 * time.Hour)); days {
	case 2:
		// next day's color is already known, nothing new before midnight
		tomorrow := now.AddDate(0, 0, 1)
		nextCall := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
		wait := nextCall.Sub(now)
		log.Ctx(ctx).InfoContext(ctx, "next day color known, waiting until tomorrow",
			slog.Duration("wait", wait),
		)
		return wait
	case 1:
		log.Ctx(ctx).DebugContext(ctx, "next day color not published yet, retrying soon",
			slog.Duration("wait", nextDayUnknownWait),
		)
		return nextDayUnknownWait
	default:
		log.Ctx(ctx).WarnContext(ctx, "unexpected delta between today and last result, using fallback wait",
			slog.Time("latestEnd", latestEnd),
			slog.Time("today", today),
			slog.Int("diffDays", days),
			slog.Duration("wait", unexpectedDiffWait),
		)
		return unexpectedDiffWait
	}
}
