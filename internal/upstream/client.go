package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	// DefaultTimeout bounds a single data API call.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the service to the data API.
	DefaultUserAgent = "skill-recommender/1.0"
	// DefaultConcurrency bounds per-item skill look-ups during catalog loads.
	DefaultConcurrency = 8
	// AdminPasswordHeader carries the shared secret the data API expects.
	AdminPasswordHeader = "admin-password"

	maxBodyBytes = 16 << 20
)

// Options configures the client.
type Options struct {
	BaseURL       string
	AdminPassword string
	Timeout       time.Duration
	UserAgent     string
	// Concurrency bounds parallel per-item requests while loading a catalog.
	Concurrency int
	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the
	// breaker.
	BreakerFailures uint32
}

// DefaultOptions returns sensible defaults for everything but the URL and
// password.
func DefaultOptions() *Options {
	return &Options{
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		Concurrency:     DefaultConcurrency,
		BreakerTimeout:  30 * time.Second,
		BreakerFailures: 5,
	}
}

// Observer receives per-call measurements.
type Observer interface {
	ObserveUpstream(endpoint string, elapsed time.Duration, err error)
}

// Client is a data API client guarded by a circuit breaker.
type Client struct {
	base     *url.URL
	http     *http.Client
	opts     Options
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   zerolog.Logger
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for the data API at opts.BaseURL.
func NewClient(opts *Options, clientOpts ...ClientOption) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	defaults := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = defaults.Timeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaults.UserAgent
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaults.Concurrency
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = defaults.BreakerTimeout
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = defaults.BreakerFailures
	}

	base, err := url.Parse(strings.TrimRight(o.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &Error{Endpoint: o.BaseURL, Message: "invalid base URL", Cause: err}
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		logger: zerolog.Nop(),
	}
	for _, opt := range clientOpts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "data-api",
		MaxRequests: 1,
		Timeout:     o.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			var ue *Error
			if errors.As(err, &ue) && ue.IsClientError() {
				return true
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c, nil
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// getJSON issues a GET for path and decodes the JSON body into out. endpoint
// is a low-cardinality label used in errors, logs and metrics.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, endpoint, path)
	})
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		err = &Error{Endpoint: endpoint, Message: "circuit breaker rejected request", Cause: err}
	}
	if err == nil {
		if uerr := json.Unmarshal(body, out); uerr != nil {
			err = &Error{Endpoint: endpoint, Message: "failed to decode response body", Cause: uerr}
		}
	}

	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, time.Since(start), err)
	}
	return err
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	u := c.base.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.opts.AdminPassword != "" {
		req.Header.Set(AdminPasswordHeader, c.opts.AdminPassword)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Endpoint:   endpoint,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}
