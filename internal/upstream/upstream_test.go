package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/logging"
)

func newTestRequester(retries int) *Requester {
	return NewRequester(Options{
		MaxRetries: retries,
		Backoff:    time.Millisecond,
		Logger:     logging.NewNop(),
		Name:       "test",
		Secrets:    []string{"s3cret"},
	})
}

func TestDoRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	body, err := newTestRequester(2).Do(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoStopsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestRequester(3).Do(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrUpstreamFetchFailed))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestDoExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestRequester(1).Do(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.EqualValues(t, 2, calls.Load())
}

func TestDoSendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		buf := make([]byte, 5)
		n, _ := r.Body.Read(buf)
		_, _ = w.Write(buf[:n])
	}))
	t.Cleanup(srv.Close)

	body, err := newTestRequester(0).Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Body:    []byte("hello"),
		Headers: map[string]string{"X-Test": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestRedact(t *testing.T) {
	r := newTestRequester(0)
	assert.Equal(t, "https://x/y?api_key=REDACTED", r.redact("https://x/y?api_key=s3cret"))
}
