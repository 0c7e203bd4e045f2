package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/api"
	"github.com/classboard/classboard-cli/internal/service"
	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/util"
)

// pipelineBackend plays the server side of the token lifecycle: a refresh
// rotates the accepted token, and protected routes reject anything else.
type pipelineBackend struct {
	srv *httptest.Server

	refreshCalls atomic.Int32
	pingCalls    atomic.Int32

	mu          sync.Mutex
	validToken  string
	refreshFail bool
	refreshDud  bool
	seenAuth    []string
	seenBodies  []string
}

func newPipelineBackend(t *testing.T) *pipelineBackend {
	t.Helper()

	b := &pipelineBackend{validToken: "token-1"}

	e := echo.New()
	e.POST("/auth/refresh", func(c echo.Context) error {
		b.refreshCalls.Add(1)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.refreshFail {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"code": 401, "message": "refresh session expired",
			})
		}
		if b.refreshDud {
			// A granted token the server no longer honors, e.g. revoked
			// between the refresh and the replay.
			return c.JSON(http.StatusOK, map[string]interface{}{
				"code": 0,
				"data": map[string]interface{}{"access_token": "dud-token", "expires_in": 300},
			})
		}
		b.validToken = "token-2"
		return c.JSON(http.StatusOK, map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"access_token": b.validToken, "expires_in": 300},
		})
	})

	authed := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")

			b.mu.Lock()
			b.seenAuth = append(b.seenAuth, auth)
			valid := auth == "Bearer "+b.validToken
			b.mu.Unlock()

			if !valid {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"code": 401, "message": "token expired",
				})
			}
			return next(c)
		}
	}

	e.GET("/ping", func(c echo.Context) error {
		b.pingCalls.Add(1)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"pong": true},
		})
	}, authed)

	e.POST("/echo", func(c echo.Context) error {
		var body map[string]string
		if err := c.Bind(&body); err != nil {
			return err
		}
		b.mu.Lock()
		b.seenBodies = append(b.seenBodies, body["value"])
		b.mu.Unlock()
		return c.JSON(http.StatusOK, map[string]interface{}{"code": 0})
	}, authed)

	b.srv = httptest.NewServer(e)
	t.Cleanup(b.srv.Close)
	return b
}

// newPipeline wires the full request path the way cmd/main.go does: a raw
// client for the coordinator, and an intercepted client for everything else.
func newPipeline(t *testing.T, b *pipelineBackend) (*api.Client, *session.Store) {
	t.Helper()

	log := zap.NewNop().Sugar()
	store := session.NewStore(log)

	rawHTTP := &http.Client{Timeout: 5 * time.Second}
	rawClient := api.NewClient(b.srv.URL, rawHTTP, rawHTTP, log)

	cfg := &util.SessionConfig{
		RefreshLead:  time.Minute,
		RefreshFloor: time.Minute,
		RefreshGrace: 200 * time.Millisecond,
	}
	tokens := service.NewTokenService(rawClient, store, cfg, log)

	authHTTP := &http.Client{
		Transport: api.NewAuthTransport(nil, store, tokens, log),
		Timeout:   5 * time.Second,
	}
	return api.NewClient(b.srv.URL, authHTTP, authHTTP, log), store
}

func TestTransportAttachesBearerToken(t *testing.T) {
	backend := newPipelineBackend(t)
	client, store := newPipeline(t, backend)
	store.SetAccessToken("token-1", time.Minute)

	var out struct {
		Pong bool `json:"pong"`
	}
	require.NoError(t, client.Get(context.Background(), "/ping", nil, &out))
	assert.True(t, out.Pong)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.seenAuth, 1)
	assert.Equal(t, "Bearer token-1", backend.seenAuth[0])
}

func TestTransportOmitsHeaderWithoutToken(t *testing.T) {
	backend := newPipelineBackend(t)
	backend.mu.Lock()
	backend.refreshFail = true
	backend.mu.Unlock()

	client, _ := newPipeline(t, backend)

	err := client.Get(context.Background(), "/ping", nil, nil)
	require.Error(t, err)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.NotEmpty(t, backend.seenAuth)
	assert.Empty(t, backend.seenAuth[0])
}

func TestExpiredTokenRefreshesAndReplaysOnce(t *testing.T) {
	backend := newPipelineBackend(t)
	client, store := newPipeline(t, backend)
	store.SetAccessToken("stale-token", time.Minute)

	var out struct {
		Pong bool `json:"pong"`
	}
	require.NoError(t, client.Get(context.Background(), "/ping", nil, &out))
	assert.True(t, out.Pong)

	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	assert.EqualValues(t, 1, backend.pingCalls.Load())

	token, _, ok := store.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "token-2", token)
}

func TestConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	backend := newPipelineBackend(t)
	client, store := newPipeline(t, backend)
	store.SetAccessToken("stale-token", time.Minute)

	const callers = 8
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/ping", nil, nil)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
	assert.EqualValues(t, 1, backend.refreshCalls.Load(), "one refresh serves every rejected request")
	assert.EqualValues(t, callers, backend.pingCalls.Load())
}

func TestReplayRejectionIsTerminal(t *testing.T) {
	backend := newPipelineBackend(t)
	client, store := newPipeline(t, backend)
	store.SetAccessToken("stale-token", time.Minute)

	// The refresh grants a token the server then rejects, so the replay
	// fails auth again. That must not trigger a second refresh cycle.
	backend.mu.Lock()
	backend.refreshDud = true
	backend.mu.Unlock()

	var unauthorized atomic.Int32
	unsub := store.Subscribe(func(e session.Event) {
		if e.Kind == session.EventUnauthorized {
			unauthorized.Add(1)
		}
	})
	defer unsub()

	err := client.Get(context.Background(), "/ping", nil, nil)
	require.Error(t, err)

	var apiErr *util.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)

	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	assert.GreaterOrEqual(t, unauthorized.Load(), int32(1))

	_, _, ok := store.AccessToken()
	assert.False(t, ok)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Len(t, backend.seenAuth, 2, "exactly one replay, then give up")
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	backend := newPipelineBackend(t)
	backend.mu.Lock()
	backend.refreshFail = true
	backend.mu.Unlock()

	client, store := newPipeline(t, backend)
	store.SetAccessToken("stale-token", time.Minute)

	err := client.Get(context.Background(), "/ping", nil, nil)
	require.Error(t, err)

	var apiErr *util.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)

	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	_, _, ok := store.AccessToken()
	assert.False(t, ok)
}

// failingRefresher fails the test if the pipeline ever asks it to refresh.
type failingRefresher struct{ t *testing.T }

func (f *failingRefresher) Refresh(context.Context) (string, error) {
	f.t.Error("a rejected refresh request must not trigger another refresh")
	return "", errors.New("unexpected refresh")
}

func TestRefreshEndpointIsExemptFromReplay(t *testing.T) {
	backend := newPipelineBackend(t)
	backend.mu.Lock()
	backend.refreshFail = true
	backend.mu.Unlock()

	log := zap.NewNop().Sugar()
	store := session.NewStore(log)
	store.SetAccessToken("whatever", time.Minute)

	authHTTP := &http.Client{
		Transport: api.NewAuthTransport(nil, store, &failingRefresher{t: t}, log),
		Timeout:   5 * time.Second,
	}
	client := api.NewClient(backend.srv.URL, authHTTP, authHTTP, log)

	err := client.Post(context.Background(), api.RefreshPath, nil, nil)
	require.Error(t, err)

	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	_, _, ok := store.AccessToken()
	assert.False(t, ok, "a rejected refresh clears the session")
}

func TestReplayRewindsRequestBody(t *testing.T) {
	backend := newPipelineBackend(t)
	client, store := newPipeline(t, backend)
	store.SetAccessToken("stale-token", time.Minute)

	require.NoError(t, client.Post(context.Background(), "/echo", map[string]string{"value": "hello"}, nil))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"hello"}, backend.seenBodies, "the replay carries the full original body")
}
