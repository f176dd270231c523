// Package stratz queries the Stratz GraphQL API for match details and hero
// benchmark averages.
package stratz

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/oauth2"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/upstream"
)

const defaultURL = "https://api.stratz.com/graphql"

type ClientConfig struct {
	HTTPClient *http.Client
	URL        string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Logger     *logging.Logger
}

// Client is a Stratz GraphQL client.
type Client struct {
	url    string
	req    *upstream.Requester
	logger *logging.Logger
}

// NewClient builds a client. When Token is set, requests carry it as an
// OAuth2 bearer token.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
		httpClient.Timeout = timeout
	}
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		u = defaultURL
	}
	return &Client{
		url:    u,
		logger: logger,
		req: upstream.NewRequester(upstream.Options{
			Client:     httpClient,
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.Backoff,
			Logger:     logger,
			Name:       "stratz",
			Secrets:    []string{cfg.Token},
		}),
	}
}

// query posts a GraphQL document and returns the raw response after
// checking for GraphQL-level errors.
func (c *Client) query(ctx context.Context, doc string, vars map[string]any) ([]byte, error) {
	body, err := sonic.Marshal(map[string]any{"query": doc, "variables": vars})
	if err != nil {
		return nil, fmt.Errorf("encode graphql request: %w", err)
	}
	raw, err := c.req.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		URL:    c.url,
		Body:   body,
		Headers: map[string]string{
			"Content-Type":              "application/json",
			"User-Agent":                "STRATZ_API",
			"GraphQL-Require-Preflight": "true",
		},
	})
	if err != nil {
		return nil, err
	}
	var probe struct {
		Errors []gqlError `json:"errors"`
	}
	if err := sonic.Unmarshal(raw, &probe); err != nil {
		return nil, apperr.Upstream(err, "decode stratz response")
	}
	if len(probe.Errors) > 0 {
		msgs := make([]string, 0, len(probe.Errors))
		for _, e := range probe.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, apperr.Upstream(nil, "stratz graphql errors: %s", strings.Join(msgs, "; "))
	}
	return raw, nil
}

const matchQuery = `query Match($id: Long!) {
  match(id: $id) {
    id didRadiantWin durationSeconds startDateTime gameMode rank bracket
    players {
      playerSlot steamAccountId isRadiant position lane
      hero { id displayName shortName }
      kills deaths assists numLastHits numDenies networth goldPerMinute experiencePerMinute level
      heroDamage towerDamage heroHealing imp
      stats {
        goldPerMinute experiencePerMinute level lastHitsPerMinute deniesPerMinute campStack networthPerMinute
      }
      heroAverage {
        time position matchCount winCount kills deaths assists networth level cs dn
        goldPerMinute xp campsStacked heroDamage damage towerDamage healingAllies
      }
    }
  }
}`

// FetchMatch returns the match and the raw response. A null match is
// ErrInputNotFound.
func (c *Client) FetchMatch(ctx context.Context, matchID int64) (*Match, []byte, error) {
	raw, err := c.query(ctx, matchQuery, map[string]any{"id": matchID})
	if err != nil {
		return nil, nil, err
	}
	m, err := DecodeMatch(raw)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, apperr.NotFoundf("match %d not found on stratz", matchID)
	}
	return m, raw, nil
}

// DecodeMatch decodes a match response body, as fetched or as stored.
// It returns nil when the match is null.
func DecodeMatch(raw []byte) (*Match, error) {
	var resp gqlResponse[struct {
		Match *Match `json:"match"`
	}]
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.Upstream(err, "decode stratz match")
	}
	return resp.Data.Match, nil
}
