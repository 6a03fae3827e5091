package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/rte"
	"github.com/tempowatch/tempowatch/pkg/types"
)

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(rte.Paris)
	day, ok := s.worker.Cache().QueryCurrent(now)
	if !ok {
		writeJSONError(w, "no tempo day covers the current time", http.StatusNotFound)
		return
	}
	writeJSON(w, day)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(rte.Paris)
	day, ok := s.worker.Cache().QueryNext(now)
	if !ok {
		writeJSONError(w, "no upcoming tempo day cached", http.StatusNotFound)
		return
	}
	writeJSON(w, day)
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	cache := s.worker.Cache()
	writeJSON(w, struct {
		AdjustedDays bool             `json:"adjustedDays"`
		Days         []types.TempoDay `json:"days"`
	}{
		AdjustedDays: cache.UsesAdjustedDays(),
		Days:         cache.CalendarDays(),
	})
}

// calendarEvent is a tempo day rendered for calendar-grid consumers.
type calendarEvent struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeJSONError(w, "invalid start parameter, expected RFC3339", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeJSONError(w, "invalid end parameter, expected RFC3339", http.StatusBadRequest)
		return
	}

	days := s.worker.Cache().QueryRange(start, end)
	events := make([]calendarEvent, 0, len(days))
	for _, day := range days {
		events = append(events, forgeCalendarEvent(day))
	}

	log.Ctx(ctx).DebugContext(ctx, "returning calendar events",
		slog.Int("events", len(events)),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	writeJSON(w, struct {
		Events []calendarEvent `json:"events"`
	}{Events: events})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var opts struct {
		AdjustedDays bool `json:"adjusted_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	log.Ctx(ctx).DebugContext(ctx, "new adjusted days option value", slog.Bool("adjustedDays", opts.AdjustedDays))
	s.worker.Cache().SetAdjustedDays(opts.AdjustedDays)
	writeJSON(w, struct {
		AdjustedDays bool `json:"adjustedDays"`
	}{AdjustedDays: opts.AdjustedDays})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.Ctx(ctx).InfoContext(ctx, "refresh requested")
	s.worker.Refresh()
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, struct {
		State string `json:"state"`
	}{State: s.worker.State().String()})
}

func forgeCalendarEvent(day types.TempoDay) calendarEvent {
	return calendarEvent{
		UID:         fmt.Sprintf("tempo_%d_%d_%d", day.Start.Year(), int(day.Start.Month()), day.Start.Day()),
		Summary:     forgeSummary(day.Value),
		Description: fmt.Sprintf("Mis à jour le %s", day.Updated.Format(time.RFC3339)),
		Start:       day.Start,
		End:         day.End,
	}
}

func forgeSummary(value types.Color) string {
	switch value {
	case types.ColorRed:
		return "Jour Tempo Rouge 🔴"
	case types.ColorWhite:
		return "Jour Tempo Blanc ⚪"
	case types.ColorBlue:
		return "Jour Tempo Bleu 🔵"
	}
	return fmt.Sprintf("Jour Tempo inconnu (%s)", value)
}
