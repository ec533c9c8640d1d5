package parler

import (
	"math/rand"
	"net/http"
	"time"

	"parler/pkg/logger"
	"parler/pkg/ratelimit"
	"parler/pkg/retry"
)

// Option configures a Client or an Authenticator.
type Option func(*options)

type options struct {
	logger        logger.Logger
	baseURL       string
	userAgent     string
	retryDelay    time.Duration
	maxReconnects int
	backoff       retry.BackoffStrategy
	limiter       ratelimit.Limiter
	timeout       time.Duration
	httpClient    *http.Client
	randSource    rand.Source
}

func defaultOptions() *options {
	return &options{
		retryDelay:    DefaultRetryDelay,
		maxReconnects: retry.DefaultMaxReconnects,
		timeout:       DefaultTimeout,
	}
}

// WithLogger sets the logger. It takes precedence over the debug flag.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithBaseURL points the client at another API root.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithUserAgent fixes the User-Agent instead of picking a random one.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithRetryDelay sets the pause after a 429 or 502 response.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *options) {
		o.retryDelay = delay
	}
}

// WithMaxReconnects sets how many consecutive transient failures abort a call.
func WithMaxReconnects(n int) Option {
	return func(o *options) {
		o.maxReconnects = n
	}
}

// WithBackoff replaces the constant retry delay with strategy.
func WithBackoff(strategy retry.BackoffStrategy) Option {
	return func(o *options) {
		o.backoff = strategy
	}
}

// WithLimiter paces outgoing requests.
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

// WithTimeout bounds each HTTP exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithRandSource seeds user agent and device id selection.
func WithRandSource(src rand.Source) Option {
	return func(o *options) {
		o.randSource = src
	}
}

func (o *options) rand() *rand.Rand {
	if o.randSource == nil {
		o.randSource = rand.NewSource(time.Now().UnixNano())
	}
	return rand.New(o.randSource)
}

func (o *options) statusBackoff() *retry.StatusBackoff {
	strategy := o.backoff
	if strategy == nil {
		strategy = &retry.ConstantBackoff{Delay: o.retryDelay}
	}
	return retry.NewStatusBackoff(strategy)
}
