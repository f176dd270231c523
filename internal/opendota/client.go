// Package opendota is a small client for the OpenDota REST API: match
// retrieval and the replay parse workflow.
package opendota

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sethvargo/go-retry"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/upstream"
)

const defaultBaseURL = "https://api.opendota.com/api"

// Parse polling defaults.
const (
	DefaultParseAttempts = 30
	DefaultParseDelay    = 2 * time.Second
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Logger     *logging.Logger
}

// Client is an OpenDota API client.
type Client struct {
	baseURL string
	apiKey  string
	req     *upstream.Requester
	logger  *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
		req: upstream.NewRequester(upstream.Options{
			Client:     httpClient,
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.Backoff,
			Logger:     logger,
			Name:       "opendota",
			Secrets:    []string{cfg.APIKey},
		}),
	}
}

func (c *Client) url(path string) string {
	u := c.baseURL + path
	if c.apiKey != "" {
		u += "?api_key=" + url.QueryEscape(c.apiKey)
	}
	return u
}

// FetchMatch returns the decoded match and the raw payload. A 404 or an
// empty body is ErrInputNotFound.
func (c *Client) FetchMatch(ctx context.Context, matchID int64) (*Match, []byte, error) {
	raw, err := c.req.Do(ctx, upstream.Request{URL: c.url("/matches/" + strconv.FormatInt(matchID, 10))})
	if err != nil {
		if upstream.StatusOf(err) == http.StatusNotFound {
			return nil, nil, apperr.NotFoundf("match %d not found on opendota", matchID)
		}
		return nil, nil, err
	}
	m, err := DecodeMatch(raw)
	if err != nil {
		return nil, nil, err
	}
	if m.MatchID == 0 {
		return nil, nil, apperr.NotFoundf("match %d not found on opendota", matchID)
	}
	return m, raw, nil
}

// DecodeMatch decodes a /matches/{id} payload, as fetched or as stored.
func DecodeMatch(raw []byte) (*Match, error) {
	var m Match
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return nil, apperr.Upstream(err, "decode opendota match")
	}
	return &m, nil
}

// RequestParse asks OpenDota to parse the replay and returns the job id.
func (c *Client) RequestParse(ctx context.Context, matchID int64) (int64, error) {
	raw, err := c.req.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		URL:    c.url("/request/" + strconv.FormatInt(matchID, 10)),
	})
	if err != nil {
		return 0, err
	}
	var job ParseJob
	if err := sonic.Unmarshal(raw, &job); err != nil {
		return 0, apperr.Upstream(err, "decode parse job")
	}
	return job.Job.JobID, nil
}

// JobStatus returns the pending job, or nil once the job has finished.
func (c *Client) JobStatus(ctx context.Context, jobID int64) (*JobStatus, error) {
	raw, err := c.req.Do(ctx, upstream.Request{URL: c.url("/request/" + strconv.FormatInt(jobID, 10))})
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var st JobStatus
	if err := sonic.Unmarshal(trimmed, &st); err != nil {
		return nil, apperr.Upstream(err, "decode job status")
	}
	return &st, nil
}

var errJobPending = apperr.Upstream(nil, "parse job still pending")

// WaitForParse polls the job until it finishes. It returns false when the
// attempts run out; transient status errors count as a pending attempt.
func (c *Client) WaitForParse(ctx context.Context, jobID int64, attempts int, delay time.Duration) (bool, error) {
	if attempts <= 0 {
		attempts = DefaultParseAttempts
	}
	if delay <= 0 {
		delay = DefaultParseDelay
	}
	n := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n++
		st, err := c.JobStatus(ctx, jobID)
		if err != nil {
			c.logger.WarnContext(ctx, "parse status check failed", "job_id", jobID, "attempt", n, "error", err)
			return retry.RetryableError(err)
		}
		if st != nil {
			c.logger.DebugContext(ctx, "parse job pending", "job_id", jobID, "attempt", n, "of", attempts)
			return retry.RetryableError(errJobPending)
		}
		return nil
	})
	if err == nil {
		c.logger.InfoContext(ctx, "parse job completed", "job_id", jobID, "attempts", n)
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	c.logger.WarnContext(ctx, "parse job timed out", "job_id", jobID, "attempts", n)
	return false, nil
}
