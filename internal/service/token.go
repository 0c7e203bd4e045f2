package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/api"
	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/util"
)

var (
	ErrRefreshFailed = errors.New("token refresh failed")
	ErrEmptyToken    = errors.New("refresh returned an empty token")
)

const refreshTimeout = 15 * time.Second

// TokenService is the refresh coordinator: it collapses concurrent "I need
// a valid token" calls into one network refresh. The refresh request runs
// on the raw (unauthenticated) client so it can never be routed back
// through the interceptor, and it relies on the http-only refresh cookie
// in the shared jar rather than the access token.
type TokenService struct {
	client *api.Client
	store  *session.Store
	grace  time.Duration
	log    *zap.SugaredLogger

	mu       sync.Mutex
	inflight *refreshCall
}

// refreshCall is the singleton in-flight refresh. All callers that arrive
// while it exists attach to done and observe the same outcome.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

func NewTokenService(client *api.Client, store *session.Store, cfg *util.SessionConfig, log *zap.SugaredLogger) *TokenService {
	return &TokenService{
		client: client,
		store:  store,
		grace:  cfg.RefreshGrace,
		log:    log,
	}
}

// Refresh returns a freshly obtained access token. If a refresh is already
// in flight (or settled within the grace window), the caller attaches to
// it instead of starting another network call.
func (ts *TokenService) Refresh(ctx context.Context) (string, error) {
	ts.mu.Lock()
	if c := ts.inflight; c != nil {
		ts.mu.Unlock()
		return c.wait(ctx)
	}

	c := &refreshCall{done: make(chan struct{})}
	ts.inflight = c
	ts.mu.Unlock()

	go ts.run(c)

	return c.wait(ctx)
}

// run performs the network refresh on its own bounded context, so a caller
// cancelling cannot abort the shared call and attached waiters always
// settle.
func (ts *TokenService) run(c *refreshCall) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	var out models.RefreshResponse
	err := ts.client.Post(ctx, api.RefreshPath, nil, &out)

	switch {
	case err != nil:
		c.err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		ts.store.ClearAuthData()
		ts.log.Infow("Token refresh failed", "error", err)
	case out.AccessToken == "":
		c.err = ErrEmptyToken
		ts.store.ClearAuthData()
	default:
		c.token = out.AccessToken
		ts.store.SetAccessToken(out.AccessToken, ts.TokenTTL(out.AccessToken, out.ExpiresIn))
		ts.log.Debugw("Token refreshed", "expiresIn", out.ExpiresIn)
	}

	close(c.done)

	// Keep the settled call around briefly so 401s that fail at nearly the
	// same instant attach to it instead of bursting duplicate refreshes.
	time.AfterFunc(ts.grace, func() {
		ts.mu.Lock()
		if ts.inflight == c {
			ts.inflight = nil
		}
		ts.mu.Unlock()
	})
}

func (c *refreshCall) wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.token, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// TokenTTL derives the token lifetime from the server-declared expires_in,
// falling back to the token's own exp claim when the server omits it.
// Zero means the lifetime is unknown.
func (ts *TokenService) TokenTTL(token string, expiresIn int64) time.Duration {
	if expiresIn > 0 {
		return time.Duration(expiresIn) * time.Second
	}

	exp, err := tokenExpiry(token)
	if err != nil {
		ts.log.Debugw("Token lifetime unknown", "error", err)
		return 0
	}
	return time.Until(exp)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client has no key and only needs the instant for scheduling.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token claims: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}

	return claims.ExpiresAt.Time, nil
}
