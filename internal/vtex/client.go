package vtex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options parameterise the storefront client.
type Options struct {
	BaseURL  string
	AppKey   string
	AppToken string
	Timeout  time.Duration
}

// Client is a stateless helper over the VTEX REST API: static API-key
// headers, fixed timeout, one URL join per call. HTTP failure surfaces as an
// error; nothing past this boundary panics.
type Client struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger
}

// NewClient constructs a storefront client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With().Str("component", "vtex_client").Logger(),
	}
}

// Get issues a GET against the given endpoint path.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, endpoint, body)
}

// Delete issues a DELETE against the given endpoint path.
func (c *Client) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	url := strings.TrimRight(c.opts.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("vtex %s %s: marshal body: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("vtex %s %s: create request: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VTEX-API-AppKey", c.opts.AppKey)
	req.Header.Set("X-VTEX-API-AppToken", c.opts.AppToken)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("vtex request failed")
		return nil, fmt.Errorf("vtex %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vtex %s %s: read body: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("endpoint", endpoint).
			Msg("vtex returned error status")
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return json.RawMessage("{}"), nil
	}
	return payload, nil
}

// StatusError reports a non-2xx storefront response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("vtex api error (%d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("vtex api error (%d)", e.Status)
}

// IsNotFound reports whether err is a storefront 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
