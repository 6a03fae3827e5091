package rte

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIDatetime(t *testing.T) {
	got, err := parseAPIDatetime("2024-01-02T00:00:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 2, got.Day())
	assert.Equal(t, 0, got.Hour())
	_, offset := got.Zone()
	assert.Equal(t, 3600, offset, "offset should be +01:00")

	// the API never emits offsets without the colon
	_, err = parseAPIDatetime("2024-01-02T00:00:00+0100")
	assert.Error(t, err)

	_, err = parseAPIDatetime("not-a-date")
	assert.Error(t, err)
}

func TestParseAPIDate(t *testing.T) {
	got, err := parseAPIDate("2024-06-15T00:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, Paris), got)

	// time of day is dropped entirely
	got, err = parseAPIDate("2024-06-15T23:59:59+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, Paris), got)
}

func TestFormatAPIDatetime(t *testing.T) {
	ts := time.Date(2024, time.January, 2, 0, 0, 0, 0, Paris)
	assert.Equal(t, "2024-01-02T00:00:00+01:00", formatAPIDatetime(ts))

	// summer time flips the offset to +02:00
	ts = time.Date(2024, time.July, 2, 0, 0, 0, 0, Paris)
	assert.Equal(t, "2024-07-02T00:00:00+02:00", formatAPIDatetime(ts))
}

// fakeJWT builds a structurally valid token carrying the given claims.
func fakeJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payloadBytes, err := json.Marshal(claims)
	require.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	sig := base64.RawURLEncoding.EncodeToString([]byte("sig"))
	return header + "." + payload + "." + sig
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)
	got, err := tokenExpiry(fakeJWT(t, map[string]interface{}{"exp": exp.Unix()}))
	require.NoError(t, err)
	assert.True(t, got.Equal(exp), "expiry should come from the exp claim")
	assert.Equal(t, Paris.String(), got.Location().String())

	_, err = tokenExpiry("opaque-token")
	assert.Error(t, err, "non-JWT tokens have no readable expiry")

	_, err = tokenExpiry(fakeJWT(t, map[string]interface{}{"sub": "x"}))
	assert.Error(t, err, "missing exp claim should error")
}
