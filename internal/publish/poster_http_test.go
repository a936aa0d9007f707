package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPPosterPostsText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req postRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Hotel at Downtown Tower", req.Text)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p, err := NewHTTPPoster(HTTPPosterConfig{Endpoint: srv.URL, Token: "secret"})
	require.NoError(t, err)

	outcome, err := p.Post(context.Background(), "Hotel at Downtown Tower")
	require.NoError(t, err)
	require.Equal(t, OutcomePosted, outcome)
}

func TestHTTPPosterDuplicateRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"Status is a duplicate."}`))
	}))
	defer srv.Close()

	p, err := NewHTTPPoster(HTTPPosterConfig{Endpoint: srv.URL})
	require.NoError(t, err)

	outcome, err := p.Post(context.Background(), "already posted")
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, outcome)
}

func TestHTTPPosterOtherErrorsSurface(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	p, err := NewHTTPPoster(HTTPPosterConfig{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = p.Post(context.Background(), "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestHTTPPosterRequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPPoster(HTTPPosterConfig{})
	require.Error(t, err)
}
