package parler

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	apierrors "parler/pkg/errors"
	"parler/pkg/logger"
)

// DefaultLoginURL is the root of the v2 API that issues sessions.
const DefaultLoginURL = "https://api.parler.com/v2"

// Authenticator drives the v2 login and captcha calls that precede a
// session. Responses are returned as decoded JSON whatever their status.
type Authenticator struct {
	http   *resty.Client
	rand   *rand.Rand
	logger logger.Logger
}

// NewAuthenticator creates an Authenticator. WithBaseURL, WithHTTPClient,
// WithTimeout, WithRandSource and WithLogger are honoured.
func NewAuthenticator(opts ...Option) *Authenticator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.GetLogger()
	}
	if o.baseURL == "" {
		o.baseURL = DefaultLoginURL
	}

	session := newSession(o).
		SetBaseURL(strings.TrimRight(o.baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if o.userAgent != "" {
		session.SetHeader("User-Agent", o.userAgent)
	}

	return &Authenticator{
		http:   session,
		rand:   o.rand(),
		logger: o.logger,
	}
}

// RequestLoginKey starts a login for email and password from a fresh
// random device id.
func (a *Authenticator) RequestLoginKey(ctx context.Context, email, password string) (map[string]interface{}, error) {
	return a.post(ctx, "/login/new", map[string]string{
		"identifier": email,
		"password":   password,
		"deviceId":   newDeviceID(a.rand),
	})
}

// RequestCaptcha asks for a captcha image for the login identified by key.
func (a *Authenticator) RequestCaptcha(ctx context.Context, key string) (map[string]interface{}, error) {
	return a.post(ctx, "/login/captcha/new", map[string]string{
		"identifier": key,
	})
}

// SubmitCaptcha answers the captcha for the login identified by key.
func (a *Authenticator) SubmitCaptcha(ctx context.Context, key, solution string) (map[string]interface{}, error) {
	return a.post(ctx, "/login/captcha/submit", map[string]string{
		"identifier": key,
		"solution":   solution,
	})
}

func (a *Authenticator) post(ctx context.Context, path string, body map[string]string) (map[string]interface{}, error) {
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apierrors.Error{
			Type:    apierrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("%s %s: %v", http.MethodPost, path, err),
		}
	}

	requestsTotal.WithLabelValues(path, fmt.Sprint(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		a.logger.WarnWithFields(fmt.Sprintf("Status: %d", resp.StatusCode()), map[string]interface{}{
			"path": path,
		})
	}

	return decodeObject(resp)
}
