// Package api is the data access layer for the statistics backend. Every
// request goes through FetchJSON, which applies a per-attempt timeout,
// bounded retries with linear backoff and error normalisation, and reports
// final failures to a Notifier (the dashboard-wide banner).
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/metrics"
)

// Defaults match the dashboard's historical behaviour.
const (
	DefaultRetries     = 2
	DefaultTimeout     = 10 * time.Second
	DefaultBackoffStep = time.Second
)

// Notice is a message for the dashboard-wide error banner.
type Notice struct {
	Message    string
	Persistent bool // stays until dismissed instead of expiring
}

// Notifier receives banner notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

// Client talks to the backend REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	retries  int
	step     time.Duration
	notifier Notifier
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. It must not carry a
// cookie jar; requests are sent without credentials.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets the default number of additional attempts.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithBackoffStep sets the linear backoff unit.
func WithBackoffStep(d time.Duration) Option {
	return func(c *Client) {
		c.step = d
	}
}

// WithNotifier sets the banner notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		timeout:  DefaultTimeout,
		retries:  DefaultRetries,
		step:     DefaultBackoffStep,
		notifier: discardNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retries < 0 {
		c.retries = 0
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchOption overrides per-call settings.
type FetchOption func(*fetchSettings)

type fetchSettings struct {
	retries int
	timeout time.Duration
	silent  bool
}

// Retries overrides the number of additional attempts for one call.
func Retries(n int) FetchOption {
	return func(s *fetchSettings) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// Timeout overrides the per-attempt timeout for one call.
func Timeout(d time.Duration) FetchOption {
	return func(s *fetchSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Silent suppresses the banner notice for one call; the caller reports.
func Silent() FetchOption {
	return func(s *fetchSettings) {
		s.silent = true
	}
}

// FetchJSON GETs path (relative to the base URL, or absolute) and decodes
// the JSON body into v. Transport failures and timeouts are retried up to
// the configured number of times, waiting step x attempt between attempts.
// The returned error is always a *RequestError.
func (c *Client) FetchJSON(ctx context.Context, path string, v any, opts ...FetchOption) error {
	s := fetchSettings{retries: c.retries, timeout: c.timeout}
	for _, opt := range opts {
		opt(&s)
	}
	target := c.resolve(path)

	attempt := 0
	op := func() error {
		attempt++
		debug.Log("GET %s (attempt %d/%d)", target, attempt, s.retries+1)
		body, err := c.do(ctx, target, s.timeout)
		if err != nil {
			if !err.Retryable() || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			return backoff.Permanent(&RequestError{
				URL:     target,
				Message: fmt.Sprintf("invalid response from %s: %v", target, err),
				Err:     err,
			})
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: c.step}, uint64(s.retries)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		metrics.FetchRetries.Inc()
		debug.Log("retrying %s in %v: %v", target, wait, err)
	})
	if err == nil {
		return nil
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = &RequestError{URL: target, Message: fmt.Sprintf("request to %s aborted: %v", target, err), Err: err}
	}
	metrics.FetchFailures.Inc()
	debug.Log("GET %s failed after %d attempt(s): %s", target, attempt, reqErr.Message)
	if !s.silent {
		c.notifier.Notify(Notice{Message: "Failed to load data: " + reqErr.Message})
	}
	return reqErr
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// do performs a single attempt bounded by timeout.
func (c *Client) do(ctx context.Context, target string, timeout time.Duration) ([]byte, *RequestError) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	timedOut := func(err error) *RequestError {
		return &RequestError{
			URL:     target,
			Timeout: true,
			Message: fmt.Sprintf("request to %s timed out after %v", target, timeout),
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{URL: target, Message: fmt.Sprintf("invalid request URL %s: %v", target, err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, timedOut(err)
		}
		return nil, &RequestError{URL: target, Message: fmt.Sprintf("network error fetching %s: %v", target, err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, timedOut(err)
		}
		return nil, &RequestError{URL: target, Message: fmt.Sprintf("reading response from %s: %v", target, err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			URL:     target,
			Status:  resp.StatusCode,
			Message: statusMessage(resp.StatusCode, body),
		}
	}
	return body, nil
}

// linearBackOff waits step x n before the n-th retry.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	return l.step * time.Duration(l.attempt)
}

func (l *linearBackOff) Reset() {
	l.attempt = 0
}
