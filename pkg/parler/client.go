package parler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"parler/pkg/config"
	apierrors "parler/pkg/errors"
	"parler/pkg/logger"
	"parler/pkg/ratelimit"
	"parler/pkg/retry"
)

const (
	// DefaultBaseURL is the root of the v1 API
	DefaultBaseURL = config.DefaultBaseURL

	// DefaultRetryDelay is the pause after a 429 or 502 response
	DefaultRetryDelay = 2 * time.Second

	// DefaultTimeout bounds a single HTTP exchange
	DefaultTimeout = 30 * time.Second
)

// Client talks to the Parler v1 API on behalf of one session.
//
// A Client keeps a reconnect counter that is shared by all of its calls, so
// it is not safe for concurrent use. Use one Client per goroutine.
type Client struct {
	http      *resty.Client
	baseURL   string
	userAgent string
	budget    *retry.Budget
	backoff   *retry.StatusBackoff
	limiter   ratelimit.Limiter
	logger    logger.Logger
}

// NewClient creates a client for the session identified by the jst and mst
// tokens. debug lowers the log level from error to debug.
func NewClient(jst, mst string, debug bool, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		level := "error"
		if debug {
			level = "debug"
		}
		log, err := logger.New(&config.LoggingConfig{Level: level}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		o.logger = log
	}

	return newClient(jst, mst, o)
}

// NewClientWithConfig creates a client from a loaded configuration. Options
// are applied after the configuration and override it.
func NewClientWithConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	o := defaultOptions()
	o.baseURL = cfg.Parler.BaseURL
	o.userAgent = cfg.Parler.UserAgent
	o.retryDelay = cfg.Connection.RetryDelayDuration()
	if cfg.Connection.MaxReconnects > 0 {
		o.maxReconnects = cfg.Connection.MaxReconnects
	}
	if cfg.Connection.Timeout > 0 {
		o.timeout = cfg.Connection.Timeout
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Algorithm, cfg.RateLimit.RequestsPerMinute)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	o.limiter = limiter

	for _, opt := range opts {
		opt(o)
	}

	// The named strategy is built from the final retry delay so that
	// WithRetryDelay applies to it. WithBackoff replaces it entirely.
	if o.backoff == nil {
		strategy, err := retry.ParseStrategy(cfg.Connection.Backoff, o.retryDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid connection config: %w", err)
		}
		o.backoff = strategy
	}

	if o.logger == nil {
		logging := cfg.Logging
		if cfg.Parler.Debug {
			logging.Level = "debug"
		}
		log, err := logger.New(&logging, &cfg.LogToFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		o.logger = log
	}

	return newClient(cfg.Parler.JST, cfg.Parler.MST, o)
}

func newClient(jst, mst string, o *options) (*Client, error) {
	if jst == "" || mst == "" {
		return nil, fmt.Errorf("both jst and mst tokens are required")
	}
	if o.baseURL == "" {
		o.baseURL = DefaultBaseURL
	}
	if o.userAgent == "" {
		o.userAgent = randomUserAgent(o.rand())
	}

	c := &Client{
		http:      newSession(o),
		baseURL:   strings.TrimRight(o.baseURL, "/"),
		userAgent: o.userAgent,
		budget:    retry.NewBudget(o.maxReconnects),
		backoff:   o.statusBackoff(),
		limiter:   o.limiter,
		logger:    o.logger,
	}

	c.http.
		SetBaseURL(c.baseURL).
		SetHeader("User-Agent", c.userAgent).
		SetCookies([]*http.Cookie{
			{Name: "mst", Value: mst},
			{Name: "jst", Value: jst},
		})

	c.logger.DebugWithFields("parler client created", map[string]interface{}{
		"base_url":       c.baseURL,
		"user_agent":     c.userAgent,
		"max_reconnects": c.budget.Max(),
	})

	return c, nil
}

func newSession(o *options) *resty.Client {
	var session *resty.Client
	if o.httpClient != nil {
		session = resty.NewWithClient(o.httpClient)
	} else {
		session = resty.New()
	}
	if o.timeout > 0 {
		session.SetTimeout(o.timeout)
	}
	if o.logger != nil {
		session.SetLogger(restyLogger{o.logger})
	}
	return session
}

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Reconnects returns the current number of consecutive transient failures.
func (c *Client) Reconnects() int {
	return c.budget.Used()
}

// ResetReconnects rearms a client after it aborted.
func (c *Client) ResetReconnects() {
	c.budget.Reset()
}

// handleResponse applies the status rules shared by every endpoint. It
// returns an error for statuses that end the call and sleeps before
// returning nil for statuses that should be retried.
func (c *Client) handleResponse(ctx context.Context, resp *resty.Response) error {
	code := resp.StatusCode()

	switch {
	case c.budget.Exhausted():
		return c.abort()

	case apierrors.IsUnauthorizedStatusCode(code):
		return apierrors.NewUnauthorized(code, statusReason(resp))

	case code == http.StatusBadGateway:
		return c.backOff(ctx, code, "Bad Gateway Error")

	case code == http.StatusTooManyRequests:
		return c.backOff(ctx, code, "Too many requests Error")

	default:
		c.budget.Reset()
		return nil
	}
}

func (c *Client) backOff(ctx context.Context, code int, reason string) error {
	attempt := c.budget.Spend()
	delay := c.backoff.For(code).NextDelay(attempt)

	retriesTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	c.logger.WarnWithFields(fmt.Sprintf("%s, retry in %s", reason, delay), map[string]interface{}{
		"status":     code,
		"reconnects": attempt,
	})

	return retry.Wait(ctx, delay)
}

func (c *Client) abort() error {
	abortsTotal.Inc()
	c.logger.ErrorWithFields("reconnect budget exhausted", map[string]interface{}{
		"max_reconnects": c.budget.Max(),
	})
	return apierrors.NewFatalAbort(c.budget.Max())
}

// request describes one logical API call.
type request struct {
	method  string
	path    string
	query   query
	headers map[string]string
	body    interface{}
}

// do sends r until the API answers 200, the call is rejected, or the retry
// bounds are hit. The decoded JSON object is returned unchanged.
func (c *Client) do(ctx context.Context, r request) (map[string]interface{}, error) {
	target := r.path + r.query.encode()
	unexpected := 0
	// failures counts every non-200 answer of this call and is never reset,
	// so alternating transient and unexpected statuses still terminate.
	failures := 0
	maxFailures := 2 * c.budget.Max()

	for {
		if c.budget.Exhausted() {
			return nil, c.abort()
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req := c.http.R().SetContext(ctx)
		if len(r.headers) > 0 {
			req.SetHeaders(r.headers)
		}
		if r.body != nil {
			req.SetBody(r.body)
		}

		c.logger.DebugWithFields("sending request", map[string]interface{}{
			"method": r.method,
			"url":    target,
		})

		resp, err := req.Execute(r.method, target)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			requestsTotal.WithLabelValues(r.path, "error").Inc()
			c.logger.WithError(err).ErrorWithFields("request failed", map[string]interface{}{
				"method": r.method,
				"url":    target,
			})
			return nil, &apierrors.Error{
				Type:    apierrors.ErrorTypeNetwork,
				Message: fmt.Sprintf("%s %s: %v", r.method, r.path, err),
			}
		}

		code := resp.StatusCode()
		requestsTotal.WithLabelValues(r.path, strconv.Itoa(code)).Inc()
		c.logger.DebugWithFields("response received", map[string]interface{}{
			"method":   r.method,
			"url":      target,
			"status":   code,
			"duration": resp.Time(),
		})

		if err := c.handleResponse(ctx, resp); err != nil {
			return nil, err
		}
		if code == http.StatusOK {
			return decodeObject(resp)
		}

		c.logger.Warn(fmt.Sprintf("Status: %d", code))
		failures++
		if failures >= maxFailures {
			return nil, apierrors.NewStatusError(code, statusReason(resp),
				fmt.Sprintf("%s %s gave up after %d failed attempts", r.method, r.path, failures))
		}
		if apierrors.IsRetryableStatusCode(code) {
			unexpected = 0
			continue
		}

		// Other statuses reset the reconnect counter, so bound them here.
		unexpected++
		if unexpected >= c.budget.Max() {
			return nil, apierrors.NewStatusError(code, statusReason(resp),
				fmt.Sprintf("%s %s answered %d consecutive times with an unexpected status", r.method, r.path, unexpected))
		}
		retriesTotal.WithLabelValues("unexpected").Inc()
		if err := retry.Wait(ctx, c.backoff.For(code).NextDelay(unexpected)); err != nil {
			return nil, err
		}
	}
}

func decodeObject(resp *resty.Response) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode(),
		}
	}
	if payload == nil {
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeParsing,
			Message: "response body is not a JSON object",
			Code:    resp.StatusCode(),
		}
	}
	return payload, nil
}

// statusReason extracts the reason phrase from a status line like "404 Not Found".
func statusReason(resp *resty.Response) string {
	code := resp.StatusCode()
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status(), strconv.Itoa(code)))
	if reason == "" {
		reason = http.StatusText(code)
	}
	return reason
}

// restyLogger routes resty's own diagnostics into the client logger.
type restyLogger struct {
	log logger.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
