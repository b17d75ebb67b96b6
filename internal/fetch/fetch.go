// Package fetch downloads documents over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mcncl/shapeshift/internal/errors"
)

// DefaultTimeout bounds a whole request when the caller sets none.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 64 << 20

// Client fetches URLs with a per-request timeout.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient returns a Client. A zero timeout selects DefaultTimeout.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch GETs url and returns the body text. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.NewFetchError(fmt.Sprintf("invalid URL %q", url), err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, application/toml, application/xml, text/csv, */*")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.NewFetchError(fmt.Sprintf("request to %s failed", url), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewFetchError(fmt.Sprintf("%s returned %s", url, resp.Status), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", errors.NewFetchError(fmt.Sprintf("failed to read response from %s", url), err)
	}
	if len(body) > maxBody {
		return "", errors.NewFetchError(fmt.Sprintf("response from %s exceeds %d bytes", url, maxBody), nil)
	}
	return string(body), nil
}
