package conferencing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

func testCredentials() *models.Credentials {
	return &models.Credentials{
		VideoLibraryID:           "lib",
		VideoAPIKey:              "key",
		ConferencingAccountID:    "acct-1",
		ConferencingClientID:     "client-1",
		ConferencingClientSecret: "secret-1",
	}
}

func TestTokenBroker_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-1", user)
		assert.Equal(t, "secret-1", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "acct-1", r.PostForm.Get("account_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"zoom-token","token_type":"bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	tok, err := NewTokenBroker(srv.URL, srv.Client(), time.Second, nil).Exchange(context.Background(), testCredentials())
	require.NoError(t, err)
	assert.Equal(t, "zoom-token", tok)
}

func TestTokenBroker_AuthFailedCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"reason":"Invalid client_id or client_secret","error":"invalid_client"}`))
	}))
	defer srv.Close()

	_, err := NewTokenBroker(srv.URL, srv.Client(), time.Second, nil).Exchange(context.Background(), testCredentials())
	var authErr *AuthFailedError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "invalid_client")
	assert.Contains(t, err.Error(), "401")
}

func TestTokenBroker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewTokenBroker(url, nil, time.Second, nil).Exchange(context.Background(), testCredentials())
	var authErr *AuthFailedError
	require.True(t, errors.As(err, &authErr))
	assert.Zero(t, authErr.StatusCode)
}

func TestTokenBroker_TimesOutOnHungEndpoint(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewTokenBroker(srv.URL, srv.Client(), 50*time.Millisecond, nil).Exchange(context.Background(), testCredentials())
	var authErr *AuthFailedError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
