// Package upstream is the HTTP client shared by every tool family. It adds
// per-attempt timeouts, exponential backoff and credential redaction on top
// of net/http.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"oddsy/internal/logger"
	"oddsy/internal/metrics"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
	DefaultTimeout   = 15 * time.Second

	maxErrorBody = 300
	redacted     = "***"
)

// Config controls retry and timeout behaviour.
type Config struct {
	Attempts  int
	BaseDelay time.Duration
	Timeout   time.Duration
}

// DefaultConfig returns the standard retry policy: three attempts, one second
// base delay and a fifteen second per-attempt timeout.
func DefaultConfig() Config {
	return Config{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		Timeout:   DefaultTimeout,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client performs JSON requests against a single upstream API.
type Client struct {
	http    *http.Client
	cfg     Config
	sleep   SleepFunc
	log     *logger.Logger
	secrets []string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConfig sets the retry and timeout policy. Zero fields keep defaults.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		if cfg.Attempts > 0 {
			c.cfg.Attempts = cfg.Attempts
		}
		if cfg.BaseDelay > 0 {
			c.cfg.BaseDelay = cfg.BaseDelay
		}
		if cfg.Timeout > 0 {
			c.cfg.Timeout = cfg.Timeout
		}
	}
}

// WithSleep replaces the backoff sleeper.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithLogger sets the logger used for attempt tracing.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithSecret registers values that must never appear in logs or errors.
func WithSecret(secrets ...string) Option {
	return func(c *Client) {
		for _, s := range secrets {
			if s != "" {
				c.secrets = append(c.secrets, s)
			}
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:  &http.Client{},
		cfg:   DefaultConfig(),
		sleep: Sleep,
		log:   logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Sleep is the default context-aware sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the delay before attempt+1: base * 2^attempt.
func Backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(float64(base) * math.Pow(2, float64(attempt)))
}

// Request describes one logical upstream call.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   any
}

// Do performs req with retries and decodes the JSON payload into out. out
// may be nil or a *json.RawMessage.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	target, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid upstream url: %s", c.redact(err.Error()))
	}
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}
	host := target.Host

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		c.log.Debug("upstream %s %s (attempt %d/%d)", methodOf(req), c.redact(target.String()), attempt+1, c.cfg.Attempts)

		payload, err := c.attempt(ctx, req, target, body)
		if err == nil {
			metrics.RecordUpstreamAttempt(host, "ok")
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(payload, out); err != nil {
				return fmt.Errorf("decode %s response: %w", host, err)
			}
			return nil
		}

		lastErr = err
		if ctx.Err() != nil {
			metrics.RecordUpstreamAttempt(host, "canceled")
			return ctx.Err()
		}
		if errors.Is(err, ErrTimeout) {
			metrics.RecordUpstreamAttempt(host, "timeout")
		} else {
			metrics.RecordUpstreamAttempt(host, "error")
		}

		if attempt < c.cfg.Attempts-1 {
			delay := Backoff(c.cfg.BaseDelay, attempt)
			c.log.Warn("upstream %s attempt %d failed: %v; retrying in %s", host, attempt+1, err, delay)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	return &Error{Host: host, Attempts: c.cfg.Attempts, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, req Request, target *url.URL, body []byte) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, methodOf(req), target.String(), reader)
	if err != nil {
		return nil, errors.New(c.redact(err.Error()))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
		}
		return nil, c.scrub(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
		}
		return nil, c.scrub(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   c.redact(snippet(data)),
		}
	}

	if embedded := embeddedErrors(data); embedded != "" {
		return nil, fmt.Errorf("%w: %s", ErrEmbedded, c.redact(embedded))
	}

	return json.RawMessage(data), nil
}

// scrub strips credentials from transport errors, which embed the full URL.
func (c *Client) scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %s", ue.Op, c.redact(ue.Err.Error()))
	}
	return errors.New(c.redact(err.Error()))
}

func (c *Client) redact(s string) string {
	for _, secret := range c.secrets {
		s = strings.ReplaceAll(s, secret, redacted)
		s = strings.ReplaceAll(s, url.QueryEscape(secret), redacted)
	}
	return s
}

func methodOf(req Request) string {
	if req.Method == "" {
		return http.MethodGet
	}
	return req.Method
}

// embeddedErrors returns the non-empty "errors" member of a JSON object
// payload, as API-Sports and The Odds API report failures with HTTP 200.
func embeddedErrors(data []byte) string {
	var probe struct {
		Errors json.RawMessage `json:"errors"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return ""
	}

	switch v := strings.TrimSpace(string(probe.Errors)); v {
	case "", "null", "[]", "{}", `""`:
		return ""
	default:
		return v
	}
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
