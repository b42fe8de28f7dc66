// Package auth supplies backend credentials at runtime.
//
// Nothing here carries built-in usernames or passwords: Basic takes them from
// configuration, TokenProvider exchanges them for a short-lived bearer token.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrMissingCredentials is returned when a provider is built without credentials.
var ErrMissingCredentials = errors.New("auth: username and password are required")

// Provider attaches credentials to outgoing backend requests.
type Provider interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// Basic sends HTTP basic credentials.
type Basic struct {
	username string
	password string
}

// NewBasic returns a basic-auth provider.
func NewBasic(username, password string) (*Basic, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	return &Basic{username: username, password: password}, nil
}

// Authorize sets the Authorization header.
func (b *Basic) Authorize(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(b.username, b.password)
	return nil
}

// None leaves requests untouched, for backends without authentication.
type None struct{}

// Authorize does nothing.
func (None) Authorize(context.Context, *http.Request) error {
	return nil
}
