package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewSession(t *testing.T) {
	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "id-token"})))
	require.NoError(t, c.NewSession(context.Background()))

	got := <-reqs
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, NewSessionPath, got.URL.Path)
	assert.Equal(t, "Bearer id-token", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
}

func TestNewSession_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL).NewSession(context.Background())
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, "session store unavailable", serr.Body)
	assert.Contains(t, err.Error(), "503")
}

func TestNewSession_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url).NewSession(context.Background())
	require.Error(t, err)
	var serr *StatusError
	assert.False(t, errors.As(err, &serr))
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errors.New("signed out") }

func TestNewSession_TokenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent without a token")
	}))
	defer srv.Close()

	err := New(srv.URL, WithTokenSource(failingSource{})).NewSession(context.Background())
	assert.ErrorContains(t, err, "signed out")
}
