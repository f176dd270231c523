// Package upstream is the HTTP plumbing shared by the provider clients:
// bounded reads, retry of transient statuses with linear backoff, and
// redaction of credentials in logged URLs.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/logging"
)

const (
	maxBodyBytes   = 8 << 20
	maxBodyInErr   = 240
	defaultBackoff = time.Second
)

// Doer is the subset of *http.Client used here.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Requester sends requests with retry. The zero value is not usable; build
// one with NewRequester.
type Requester struct {
	client     Doer
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
	name       string
	secrets    []string
}

// Options configures a Requester.
type Options struct {
	Client     Doer
	MaxRetries int
	// Backoff is the base delay; attempt n waits n*Backoff. Defaults to 1s.
	Backoff time.Duration
	Logger  *logging.Logger
	// Name labels log lines, e.g. "opendota".
	Name string
	// Secrets are replaced with REDACTED in logged URLs and errors.
	Secrets []string
}

func NewRequester(opts Options) *Requester {
	r := &Requester{
		client:     opts.Client,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
		name:       opts.Name,
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.maxRetries < 0 {
		r.maxRetries = 0
	}
	if r.backoff <= 0 {
		r.backoff = defaultBackoff
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	for _, s := range opts.Secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// Request describes one call. Body is re-sent on every attempt.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
}

// StatusError is returned for non-2xx responses that are not retried (or ran
// out of retries).
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.Status, e.Body)
}

// Do sends req, retrying transport errors, 429 and 5xx up to MaxRetries
// times. It returns the raw 2xx body. Failures are marked ErrUpstreamFetchFailed.
func (r *Requester) Do(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}

		retryable := true
		resp, err := r.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("send request: %s", r.redact(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response body: %w", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			default:
				lastErr = &StatusError{Status: resp.StatusCode, Body: abbreviate(raw)}
				retryable = IsRetryableStatus(resp.StatusCode)
			}
		}

		if ctx.Err() != nil {
			return nil, apperr.Upstream(ctx.Err(), "%s request", r.name)
		}
		if !retryable || attempt == r.maxRetries {
			break
		}

		wait := time.Duration(attempt+1) * r.backoff
		r.logger.WarnContext(ctx, "upstream request retry",
			"provider", r.name, "url", r.redact(req.URL), "attempt", attempt+1, "wait", wait, "error", lastErr)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperr.Upstream(ctx.Err(), "%s request", r.name)
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	r.logger.WarnContext(ctx, "upstream request failed", "provider", r.name, "url", r.redact(req.URL), "error", lastErr)
	return nil, apperr.Upstream(lastErr, "%s request", r.name)
}

// IsRetryableStatus reports whether a status is worth another attempt.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// StatusOf extracts the HTTP status from an error returned by Do, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if crerr.As(err, &se) {
		return se.Status
	}
	return 0
}

func (r *Requester) redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, "REDACTED")
		if esc := url.QueryEscape(secret); esc != secret {
			s = strings.ReplaceAll(s, esc, "REDACTED")
		}
	}
	return s
}

func abbreviate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxBodyInErr {
		return s[:maxBodyInErr] + "..."
	}
	return s
}
