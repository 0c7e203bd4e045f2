package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/session"
)

// TokenRefresher obtains a fresh access token, collapsing concurrent
// callers into one network refresh (see service.TokenService).
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

type retryMarkerKey struct{}

// AuthTransport is the request interceptor pipeline: it attaches the
// current bearer token to outgoing requests and, on a 401 response,
// refreshes the token and replays the original request exactly once.
// The refresh call itself never passes through this transport; it runs on
// the raw client, so a failing refresh cannot recurse.
type AuthTransport struct {
	base   http.RoundTripper
	store  *session.Store
	tokens TokenRefresher
	log    *zap.SugaredLogger
}

func NewAuthTransport(base http.RoundTripper, store *session.Store, tokens TokenRefresher, log *zap.SugaredLogger) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{
		base:   base,
		store:  store,
		tokens: tokens,
		log:    log,
	}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if token, _, ok := t.store.AccessToken(); ok {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// The refresh endpoint rejecting its own credential is unrecoverable.
	if isRefreshRequest(req) {
		t.unauthorized(resp)
		return resp, nil
	}

	// One replay per original request, even if the replay fails auth again.
	if alreadyRetried(req.Context()) {
		t.unauthorized(resp)
		return resp, nil
	}

	token, refreshErr := t.tokens.Refresh(req.Context())
	if refreshErr != nil {
		t.unauthorized(resp)
		return resp, nil
	}

	replay, replayErr := t.cloneForReplay(req, token)
	if replayErr != nil {
		t.unauthorized(resp)
		return resp, nil
	}

	resp.Body.Close()
	t.log.Debugw("Replaying request with refreshed token", "method", req.Method, "path", req.URL.Path)

	resp2, err := t.base.RoundTrip(replay)
	if err == nil && resp2.StatusCode == http.StatusUnauthorized {
		t.unauthorized(resp2)
	}
	return resp2, err
}

// cloneForReplay rebuilds the original request with a fresh body and the
// new token, marking it so a second 401 cannot trigger another refresh.
func (t *AuthTransport) cloneForReplay(req *http.Request, token string) (*http.Request, error) {
	ctx := context.WithValue(req.Context(), retryMarkerKey{}, true)
	replay := req.Clone(ctx)
	replay.Header.Set("Authorization", "Bearer "+token)

	if req.Body == nil || req.Body == http.NoBody {
		return replay, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	replay.Body = body
	return replay, nil
}

// unauthorized clears the session and broadcasts the signal the rest of
// the application reacts to. The original caller still sees the rejection.
func (t *AuthTransport) unauthorized(resp *http.Response) {
	t.log.Infow("Unrecoverable authentication failure", "status", resp.StatusCode)
	t.store.ForceLogout()
}

func alreadyRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retryMarkerKey{}).(bool)
	return retried
}

func isRefreshRequest(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, RefreshPath)
}
