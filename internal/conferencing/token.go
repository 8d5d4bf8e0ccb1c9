package conferencing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

// AuthFailedError is returned when the client-credential exchange is rejected
// or cannot be completed. StatusCode is 0 when no response was received.
type AuthFailedError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthFailedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("conferencing auth failed: %v", e.Err)
	}
	return fmt.Sprintf("conferencing auth failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *AuthFailedError) Unwrap() error { return e.Err }

// TokenBroker exchanges server-to-server credentials for a short-lived bearer token.
type TokenBroker struct {
	tokenURL   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewTokenBroker creates a token broker. httpClient may be nil. timeout bounds
// each exchange; zero leaves it to the caller's context.
func NewTokenBroker(tokenURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *TokenBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenBroker{tokenURL: tokenURL, httpClient: httpClient, timeout: timeout, logger: logger}
}

// Exchange performs one account-credentials grant using HTTP Basic auth of the
// client id and secret. The token is not cached beyond the caller's run.
func (b *TokenBroker) Exchange(ctx context.Context, creds *models.Credentials) (string, error) {
	conf := clientcredentials.Config{
		ClientID:     creds.ConferencingClientID,
		ClientSecret: creds.ConferencingClientSecret,
		TokenURL:     b.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {creds.ConferencingAccountID},
		},
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	tok, err := conf.Token(ctx)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return "", &AuthFailedError{StatusCode: rErr.Response.StatusCode, Body: string(rErr.Body), Err: err}
		}
		return "", &AuthFailedError{Err: err}
	}
	b.logger.Debug("conferencing token acquired", zap.Time("expiry", tok.Expiry))
	return tok.AccessToken, nil
}
