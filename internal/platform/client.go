// AngelaMos | 2026
// client.go

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/angelamos/blux-portal/internal/config"
	"github.com/angelamos/blux-portal/internal/core"
)

// Client answers identity questions against the external game platform.
// Both checks degrade to a wrapped core.ErrUpstreamUnavailable instead of
// panicking or hanging; callers decide whether the failure blocks.
type Client interface {
	ValidateUsername(ctx context.Context, username string) (bool, error)
	OwnsGamepass(ctx context.Context, username string) (bool, error)
}

type HTTPClient struct {
	baseURL    string
	gamepassID string
	client     *http.Client
}

func NewHTTPClient(cfg config.PlatformConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		gamepassID: cfg.GamepassID,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ValidateUsername(
	ctx context.Context,
	username string,
) (bool, error) {
	endpoint := fmt.Sprintf(
		"%s/v1/players/%s",
		c.baseURL,
		url.PathEscape(username),
	)

	var payload struct {
		Valid bool `json:"valid"`
	}

	found, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return false, fmt.Errorf("validate username: %w", err)
	}

	return found && payload.Valid, nil
}

func (c *HTTPClient) OwnsGamepass(
	ctx context.Context,
	username string,
) (bool, error) {
	if c.gamepassID == "" {
		return false, nil
	}

	endpoint := fmt.Sprintf(
		"%s/v1/players/%s/gamepasses/%s",
		c.baseURL,
		url.PathEscape(username),
		url.PathEscape(c.gamepassID),
	)

	var payload struct {
		Owned bool `json:"owned"`
	}

	found, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return false, fmt.Errorf("check gamepass: %w", err)
	}

	return found && payload.Owned, nil
}

// getJSON performs a GET with one retry on ambiguous responses (auth
// hiccups, throttling, server errors). A 404 is a definitive "no", not an
// error.
func (c *HTTPClient) getJSON(
	ctx context.Context,
	endpoint string,
	dest any,
) (bool, error) {
	var lastStatus int

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			endpoint,
			nil,
		)
		if err != nil {
			return false, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			lastStatus = 0
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			decodeErr := json.NewDecoder(resp.Body).Decode(dest)
			//nolint:errcheck // body close after full read
			_ = resp.Body.Close()
			if decodeErr != nil {
				return false, fmt.Errorf(
					"decode response: %w",
					core.ErrUpstreamUnavailable,
				)
			}
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			//nolint:errcheck // nothing useful in the body
			_ = resp.Body.Close()
			return false, nil
		default:
			lastStatus = resp.StatusCode
			//nolint:errcheck // retrying, body discarded
			_ = resp.Body.Close()
		}
	}

	return false, fmt.Errorf(
		"platform responded %d: %w",
		lastStatus,
		core.ErrUpstreamUnavailable,
	)
}

var _ Client = (*HTTPClient)(nil)
