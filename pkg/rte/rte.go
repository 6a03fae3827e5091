// Package rte implements a client for the RTE "Tempo Like Supply Contract"
// open API: OAuth2 client-credentials token handling plus the windowed tempo
// calendar fetch.
//
// https://data.rte-france.com/catalog/-/api/consumption/Tempo-Like-Supply-Contract/v1.1
package rte

import (
	"fmt"
	"time"
)

// Tempo days run in French local time.
var Paris = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(fmt.Errorf("failed to load Europe/Paris location: %w", err))
	}
	return loc
}()

const (
	defaultBaseURL = "https://digital.iservices.rte-france.com"
	tokenPath      = "/token/oauth"
	tempoPath      = "/open_api/tempo_like_supply_contract/v1/tempo_like_calendars"

	// The API wants (and emits) timestamps with a colon inside the zone
	// offset, e.g. 2024-01-02T00:00:00+01:00.
	apiDateLayout = "2006-01-02T15:04:05-07:00"

	// RTE issued a warning that this day is missing its value on their API.
	// It was published as blue.
	missingValueBlueStart = "2022-12-28T00:00:00+01:00"
)

// AuthError reports that a token login failed or returned unusable
// credential data.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("rte auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError is an explicit error payload returned by the tempo endpoint.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rte api error: %s: %s", e.Code, e.Description)
}

func parseAPIDatetime(s string) (time.Time, error) {
	t, err := time.Parse(apiDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse api datetime (%s): %w", s, err)
	}
	return t, nil
}

// parseAPIDate truncates an api datetime to its calendar date, kept as a
// Paris midnight so date-only records still sort and compare as instants.
func parseAPIDate(s string) (time.Time, error) {
	t, err := parseAPIDatetime(s)
	if err != nil {
		return time.Time{}, err
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, Paris), nil
}

func formatAPIDatetime(t time.Time) string {
	return t.Format(apiDateLayout)
}
