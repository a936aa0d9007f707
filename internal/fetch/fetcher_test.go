package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T, baseURL string, maxAttempts int) *CollyFetcher {
	t.Helper()
	f, err := New(Config{
		BaseURL:     baseURL,
		UserAgent:   "permitbot-test/1.0",
		Timeout:     2 * time.Second,
		MaxAttempts: maxAttempts,
	}, zap.NewNop())
	require.NoError(t, err)
	// Shrink backoff so retry tests stay fast.
	f.policy.baseDelay = time.Millisecond
	f.policy.maxDelay = 5 * time.Millisecond
	return f
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/permit/12345", r.URL.Path)
		_, _ = w.Write([]byte("<html>permit</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL+"/permit/", 4)
	body, err := f.Fetch(context.Background(), 12345)
	require.NoError(t, err)
	require.Equal(t, "<html>permit</html>", string(body))
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL+"/permit/", 4)
	body, err := f.Fetch(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL+"/permit/", 4)
	_, err := f.Fetch(context.Background(), 2)
	require.Error(t, err)
	require.Equal(t, int32(4), calls.Load())
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(t, srv.URL+"/permit/", 4)
	_, err := f.Fetch(ctx, 3)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicyBounds(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(4)
	require.Equal(t, 4, p.MaxAttempts())

	err := errors.New("boom")
	require.True(t, p.ShouldRetry(err, 1))
	require.True(t, p.ShouldRetry(err, 3))
	require.False(t, p.ShouldRetry(err, 4))
	require.False(t, p.ShouldRetry(nil, 1))
	require.False(t, p.ShouldRetry(context.Canceled, 1))

	for attempt := 1; attempt < 10; attempt++ {
		d := p.Backoff(attempt)
		require.Positive(t, d)
		require.LessOrEqual(t, d, p.maxDelay)
	}
}

func TestURLBuildsPermalink(t *testing.T) {
	t.Parallel()

	f, err := New(Config{BaseURL: "https://registry.example/search?rsn="}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "https://registry.example/search?rsn=12353184", f.URL(12353184))
}
