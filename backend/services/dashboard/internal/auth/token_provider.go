package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultRefreshSkew = 30 * time.Second
	defaultTokenTTL    = 5 * time.Minute
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenProvider logs in against a token endpoint and sends the resulting bearer token.
// The token is reused until its exp claim is within the refresh skew.
type TokenProvider struct {
	loginURL string
	username string
	password string
	client   HTTPDoer
	skew     time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenProvider returns provider for the given login endpoint.
func NewTokenProvider(loginURL, username, password string, client HTTPDoer, logger *zap.Logger) (*TokenProvider, error) {
	if strings.TrimSpace(loginURL) == "" {
		return nil, errors.New("auth: token url is required")
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenProvider{
		loginURL: loginURL,
		username: username,
		password: password,
		client:   client,
		skew:     defaultRefreshSkew,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Authorize sets a bearer Authorization header, logging in first when needed.
func (p *TokenProvider) Authorize(ctx context.Context, req *http.Request) error {
	token, err := p.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token returns a valid token, refreshing it when it is missing or about to expire.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Add(p.skew).Before(p.expiresAt) {
		return p.token, nil
	}

	token, err := p.login(ctx)
	if err != nil {
		return "", err
	}
	p.token = token
	p.expiresAt = p.expiry(token)
	p.logger.Debug("backend token refreshed", zap.Time("expires_at", p.expiresAt))
	return token, nil
}

// Invalidate drops the cached token so the next request logs in again.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiresAt = time.Time{}
}

func (p *TokenProvider) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": p.username,
		"password": p.password,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.loginURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("auth: read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth: login rejected with status %d", resp.StatusCode)
	}

	var out struct {
		Access string `json:"access"`
		Token  string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("auth: decode login response: %w", err)
	}
	token := out.Access
	if token == "" {
		token = out.Token
	}
	if token == "" {
		return "", errors.New("auth: login response carries no token")
	}
	return token, nil
}

// expiry reads the exp claim without verifying the signature; the backend verifies it.
// Opaque or exp-less tokens get a conservative default lifetime.
func (p *TokenProvider) expiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return p.now().Add(defaultTokenTTL)
	}
	return claims.ExpiresAt.Time
}
