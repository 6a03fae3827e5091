package rte

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/common"
	"github.com/tempowatch/tempowatch/pkg/log"
)

// Client talks to the RTE open API on behalf of one configured credential
// pair. It owns the token state: callers never see the token, they just get
// authenticated requests.
type Client struct {
	client        *http.Client
	baseURL       string
	clientID      string
	clientSecret  string
	dayChangeHour time.Duration

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time // zero means the token must not be trusted
}

// Configured sets up flags for the RTE client and returns the instance.
// It uses lflag to register command-line flags for configuration.
func Configured() *Client {
	c := &Client{}
	baseURL := lflag.String("rte-api-url", defaultBaseURL, "Base URL of the RTE open API")
	clientID := lflag.RequiredString("rte-client-id", "OAuth2 client ID for the RTE API")
	clientSecret := lflag.RequiredString("rte-client-secret", "OAuth2 client secret for the RTE API")
	timeout := lflag.Duration("rte-timeout", 10*time.Second, "Timeout for RTE API requests")
	dayChange := lflag.Duration("tempo-day-change", 6*time.Hour, "Offset of the real tempo day boundary from midnight")

	lflag.Do(func() {
		c.baseURL = *baseURL
		c.clientID = *clientID
		c.clientSecret = *clientSecret
		c.client = common.HTTPClient(*timeout)
		c.dayChangeHour = *dayChange
	})

	return c
}

// NewClient returns a client with explicit settings. This is primarily used
// for testing.
func NewClient(client *http.Client, baseURL, clientID, clientSecret string, dayChange time.Duration) *Client {
	return &Client{
		client:        client,
		baseURL:       baseURL,
		clientID:      clientID,
		clientSecret:  clientSecret,
		dayChangeHour: dayChange,
	}
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.clientID == "" || c.clientSecret == "" {
		return errors.New("rte-client-id and rte-client-secret are required")
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return fmt.Errorf("failed to parse rte url (%s): %w", c.baseURL, err)
	}
	return nil
}

// ensureToken makes sure a usable bearer token is held. A token with no
// recorded expiry counts as never fetched and forces a login, as does one
// whose expiry is in the past.
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !c.tokenExpiry.IsZero() && time.Now().In(Paris).Before(c.tokenExpiry) {
		return nil
	}
	return c.login(ctx)
}

// clearToken drops the held token so the next ensureToken logs in again.
func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// login performs the client-credentials exchange. Must be called with c.mu
// held.
func (c *Client) login(ctx context.Context) error {
	log.Ctx(ctx).DebugContext(ctx, "requesting rte access token")

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+tokenPath, nil)
	if err != nil {
		return &AuthError{Err: err}
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &AuthError{Err: fmt.Errorf("token endpoint returned status %d", resp.StatusCode)}
	}

	var res tokenResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return &AuthError{Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if res.AccessToken == "" {
		return &AuthError{Err: errors.New("token response missing access_token")}
	}

	c.token = res.AccessToken
	expiry, err := tokenExpiry(res.AccessToken)
	if err != nil {
		// an undecodable expiry leaves the token treated as already expired,
		// forcing a fresh login on the next cycle
		log.Ctx(ctx).WarnContext(ctx, "failed to decode token expiry", slog.Any("error", err))
		c.tokenExpiry = time.Time{}
	} else {
		c.tokenExpiry = expiry
		log.Ctx(ctx).DebugContext(ctx, "rte token obtained", slog.Time("expiry", expiry))
	}
	return nil
}

// tokenExpiry extracts the expiry from the token's own exp claim. The token
// endpoint also reports expires_in, but the claim is authoritative.
func tokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("token has %d segments, expected 3", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token claims: %w", err)
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to unmarshal token claims: %w", err)
	}
	if claims.Exp == 0 {
		return time.Time{}, errors.New("token claims missing exp")
	}
	return time.Unix(claims.Exp, 0).In(Paris), nil
}

// doGet issues an authenticated GET. We try up to 2 times because the token
// might have expired between the ensureToken check and the request landing;
// a login failure itself is never retried.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.ensureToken(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = params.Encode()
		req.Header.Set("Authorization", "Bearer "+c.bearer())

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			log.Ctx(ctx).DebugContext(ctx, "rte token expired mid-flight, logging in again")
			c.clearToken()
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("rte api returned status %d", resp.StatusCode)
		}
		if readErr != nil {
			return nil, readErr
		}
		return body, nil
	}
	return nil, errors.New("rte api rejected a freshly obtained token")
}
