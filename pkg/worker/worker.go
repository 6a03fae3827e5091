// Package worker drives the periodic tempo calendar synchronization: one
// background loop per configured credential pair that fetches, caches and
// schedules itself based on how fresh the last response was.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/rte"
	"github.com/tempowatch/tempowatch/pkg/storage"
	"github.com/tempowatch/tempowatch/pkg/types"
)

const (
	// the window the source API is queried with each cycle
	fetchPastDays   = 364
	fetchFutureDays = 2
)

// Fetcher fetches one window of the tempo calendar.
type Fetcher interface {
	FetchCalendar(ctx context.Context, window types.FetchWindow) (adjusted, dateonly []types.TempoDay, latestEnd time.Time, err error)
}

// State describes the worker lifecycle.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

// Worker owns the fetch loop. It is the only writer to the cache and to
// storage; everything else only reads the cache's current snapshot.
type Worker struct {
	fetcher Fetcher
	db      storage.Database
	cache   *Cache

	state   atomic.Int32
	refresh chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Configured sets up flags for the worker and returns the instance.
func Configured(f Fetcher, db storage.Database) *Worker {
	w := newWorker(f, db)
	adjusted := lflag.Bool("adjusted-days", true, "Serve the clock-adjusted view to calendar consumers instead of plain dates")
	lflag.Do(func() {
		w.cache.SetAdjustedDays(*adjusted)
	})
	return w
}

// New returns a worker with explicit settings. This is primarily used for
// testing.
func New(f Fetcher, db storage.Database, adjustedDays bool) *Worker {
	w := newWorker(f, db)
	w.cache.SetAdjustedDays(adjustedDays)
	return w
}

func newWorker(f Fetcher, db storage.Database) *Worker {
	return &Worker{
		fetcher: f,
		db:      db,
		cache:   NewCache(true),
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Cache returns the day cache for read-only query access.
func (w *Worker) Cache() *Cache {
	return w.cache
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Refresh wakes the loop for an immediate fetch. It never blocks; a refresh
// already pending is enough.
func (w *Worker) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

// Start launches the background loop. It returns immediately; the loop runs
// until ctx is canceled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	if !w.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		log.Ctx(ctx).WarnContext(ctx, "tempo worker already started")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	go w.run(ctx)
}

// Stop requests an orderly shutdown and blocks until the loop has exited.
// An in-flight fetch is allowed to finish first.
func (w *Worker) Stop(reason string) {
	ctx := context.Background()
	log.Ctx(ctx).InfoContext(ctx, "stopping tempo worker", slog.String("reason", reason))
	w.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.state.Store(int32(StateStopped))

	log.Ctx(ctx).InfoContext(ctx, "starting tempo worker")
	w.seedFromStorage(ctx)

	for {
		latestEnd := w.cycle(ctx)
		wait := computeWait(ctx, time.Now().In(rte.Paris), latestEnd)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.state.Store(int32(StateStopping))
			log.Ctx(ctx).InfoContext(ctx, "tempo worker stopped")
			return
		case <-w.refresh:
			timer.Stop()
			log.Ctx(ctx).DebugContext(ctx, "tempo worker woken for immediate fetch")
		case <-timer.C:
		}
	}
}

// cycle performs one fetch and returns the latest end boundary the response
// covered, or zero when the fetch failed. A panic is contained to the cycle
// and counts as a failed fetch.
func (w *Worker) cycle(ctx context.Context) (latestEnd time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).ErrorContext(ctx, "unexpected panic during fetch cycle", slog.Any("panic", r))
			latestEnd = time.Time{}
		}
	}()

	now := time.Now().In(rte.Paris)
	window := types.NewFetchWindow(now, fetchPastDays, fetchFutureDays)

	// the fetch is never preempted by a stop signal; the HTTP client's own
	// timeout bounds it instead
	fetchCtx := context.WithoutCancel(ctx)

	adjusted, dateonly, latestEnd, err := w.fetcher.FetchCalendar(fetchCtx, window)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch tempo calendar", slog.Any("error", err))
		return time.Time{}
	}

	w.cache.Replace(adjusted, dateonly)
	log.Ctx(ctx).InfoContext(ctx, "tempo calendar updated",
		slog.Int("days", len(adjusted)),
		slog.Time("latestEnd", latestEnd),
	)

	w.persist(fetchCtx, adjusted, dateonly)
	return latestEnd
}

// persist stores the fetched days so a restart can serve data before its
// first successful fetch. Storage failures never fail the cycle.
func (w *Worker) persist(ctx context.Context, adjusted, dateonly []types.TempoDay) {
	if w.db == nil {
		return
	}
	if err := w.db.UpsertTempoDays(ctx, adjusted, dateonly, types.CurrentTempoDayVersion); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to persist tempo days", slog.Any("error", err))
	}
}

// seedFromStorage warm-starts the cache from the last persisted window. The
// first fetch wins if it lands before the load completes.
func (w *Worker) seedFromStorage(ctx context.Context) {
	if w.db == nil {
		return
	}
	now := time.Now().In(rte.Paris)
	window := types.NewFetchWindow(now, fetchPastDays, fetchFutureDays)
	adjusted, dateonly, err := w.db.GetTempoDays(ctx, window.Start, window.End)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to load persisted tempo days", slog.Any("error", err))
		return
	}
	if len(adjusted) == 0 || !w.cache.Empty() {
		return
	}
	w.cache.Replace(adjusted, dateonly)
	log.Ctx(ctx).InfoContext(ctx, "seeded tempo cache from storage", slog.Int("days", len(adjusted)))
}
