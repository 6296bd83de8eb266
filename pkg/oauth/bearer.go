package oauth

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// TokenSourceFunc adapts a plain function to oauth2.TokenSource
type TokenSourceFunc func() (*oauth2.Token, error)

// Token implements oauth2.TokenSource
func (f TokenSourceFunc) Token() (*oauth2.Token, error) {
	return f()
}

// NewBearerClient returns an HTTP client that sets "Authorization: Bearer"
// from src on every request. The source is consulted per request, so a
// logout or refresh takes effect immediately.
func NewBearerClient(base http.RoundTripper, src oauth2.TokenSource, timeout time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: src,
			Base:   base,
		},
		Timeout: timeout,
	}
}

// BearerToken builds the token handed to oauth2.Transport
func BearerToken(access string, expiry time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}
}
