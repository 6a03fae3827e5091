package rte

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/types"
)

type tempoValue struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Value       string `json:"value"`
	UpdatedDate string `json:"updated_date"`
}

type tempoCalendars struct {
	Values  []tempoValue `json:"values"`
	EndDate string       `json:"end_date"`
}

type tempoPayload struct {
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Calendars        *tempoCalendars `json:"tempo_like_calendars"`
}

// FetchCalendar fetches the tempo calendar for the given window and returns
// the same days in two views: one with both boundaries shifted by the
// day-change offset (the API reports midnight to midnight while the tariff
// day really starts at the day-change hour) and one truncated to plain
// calendar dates. latestEnd is the raw end boundary reported for the window,
// used to plan the next fetch; it is zero when the response didn't carry a
// usable one.
func (c *Client) FetchCalendar(ctx context.Context, window types.FetchWindow) (adjusted, dateonly []types.TempoDay, latestEnd time.Time, err error) {
	params := url.Values{}
	params.Set("start_date", formatAPIDatetime(window.Start))
	params.Set("end_date", formatAPIDatetime(window.End))

	log.Ctx(ctx).DebugContext(ctx, "fetching tempo calendar",
		slog.String("start", params.Get("start_date")),
		slog.String("end", params.Get("end_date")),
	)

	body, err := c.doGet(ctx, tempoPath, params)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	var payload tempoPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("failed to decode tempo response: %w", err)
	}
	if payload.Error != "" {
		return nil, nil, time.Time{}, &APIError{Code: payload.Error, Description: payload.ErrorDescription}
	}
	if payload.Calendars == nil {
		return nil, nil, time.Time{}, fmt.Errorf("tempo response missing calendars")
	}

	for _, v := range payload.Calendars.Values {
		day, dateDay, err := c.parseTempoDay(v)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping tempo day",
				slog.Any("error", err),
				slog.String("start", v.StartDate),
				slog.String("value", v.Value),
			)
			continue
		}
		adjusted = append(adjusted, day)
		dateonly = append(dateonly, dateDay)
	}

	latestEnd, err = parseAPIDatetime(payload.Calendars.EndDate)
	if err != nil {
		// the days are still good, so keep them; the zero end just makes the
		// planner fall back to a quick retry
		log.Ctx(ctx).WarnContext(ctx, "failed to parse calendar end date",
			slog.String("endDate", payload.Calendars.EndDate),
			slog.Any("error", err),
		)
		latestEnd = time.Time{}
	}

	return adjusted, dateonly, latestEnd, nil
}

// parseTempoDay builds both views of a single day entry.
func (c *Client) parseTempoDay(v tempoValue) (types.TempoDay, types.TempoDay, error) {
	value := types.Color(v.Value)
	if v.Value == "" {
		if v.StartDate != missingValueBlueStart {
			return types.TempoDay{}, types.TempoDay{}, fmt.Errorf("missing value")
		}
		value = types.ColorBlue
	}

	start, err := parseAPIDatetime(v.StartDate)
	if err != nil {
		return types.TempoDay{}, types.TempoDay{}, err
	}
	end, err := parseAPIDatetime(v.EndDate)
	if err != nil {
		return types.TempoDay{}, types.TempoDay{}, err
	}
	updated, err := parseAPIDatetime(v.UpdatedDate)
	if err != nil {
		return types.TempoDay{}, types.TempoDay{}, err
	}
	startDate, err := parseAPIDate(v.StartDate)
	if err != nil {
		return types.TempoDay{}, types.TempoDay{}, err
	}
	endDate, err := parseAPIDate(v.EndDate)
	if err != nil {
		return types.TempoDay{}, types.TempoDay{}, err
	}

	adjusted := types.TempoDay{
		Start:   start.Add(c.dayChangeHour),
		End:     end.Add(c.dayChangeHour),
		Value:   value,
		Updated: updated,
	}
	dateonly := types.TempoDay{
		Start:   startDate,
		End:     endDate,
		Value:   value,
		Updated: updated,
	}
	return adjusted, dateonly, nil
}
