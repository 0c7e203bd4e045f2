package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/api"
	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/storage"
)

// AuthService owns the session lifecycle: login, logout, and the one-time
// startup rehydration. The profile repository persists only the user
// profile; tokens stay in the in-memory store.
type AuthService struct {
	client   *api.Client
	tokens   *TokenService
	store    *session.Store
	profiles storage.ProfileRepository
	log      *zap.SugaredLogger

	initMu   sync.Mutex
	initDone chan struct{}
	initErr  error
}

func NewAuthService(client *api.Client, tokens *TokenService, store *session.Store, profiles storage.ProfileRepository, log *zap.SugaredLogger) *AuthService {
	a := &AuthService{
		client:   client,
		tokens:   tokens,
		store:    store,
		profiles: profiles,
		log:      log,
	}

	// A forced logout must also drop the persisted profile, otherwise the
	// next start would retry rehydration with a dead refresh cookie.
	store.Subscribe(func(e session.Event) {
		if e.Kind == session.EventUnauthorized {
			if err := a.profiles.DeleteProfile(); err != nil {
				a.log.Warnw("Failed to delete persisted profile", "error", err)
			}
		}
	})

	return a
}

// Login authenticates and stores user and token atomically. On failure the
// session state is left untouched.
func (a *AuthService) Login(ctx context.Context, creds models.LoginRequest) (*models.User, error) {
	var out models.LoginResponse
	if err := a.client.Post(ctx, "/auth/login", creds, &out); err != nil {
		return nil, err
	}

	a.store.SetAuthenticated(out.User, out.AccessToken, a.tokens.TokenTTL(out.AccessToken, out.ExpiresIn))

	if err := a.profiles.SaveProfile(out.User); err != nil {
		// The session still works for this run; only rehydration is lost.
		a.log.Warnw("Failed to persist profile", "error", err)
	}

	a.log.Infow("Logged in", "user", out.User.Name(), "role", out.User.Role)
	return out.User, nil
}

// Logout tells the server to invalidate the refresh cookie, best-effort,
// then clears local state regardless of the outcome.
func (a *AuthService) Logout(ctx context.Context) {
	if err := a.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		a.log.Warnw("Logout API failed, continuing with local cleanup", "error", err)
	}

	if err := a.profiles.DeleteProfile(); err != nil {
		a.log.Warnw("Failed to delete persisted profile", "error", err)
	}

	a.store.Logout()
	a.log.Infow("Logged out")
}

// InitAuth is the idempotent startup bootstrap: when a persisted profile
// exists but no token is in memory, it attempts exactly one silent refresh
// and demotes to logged-out on failure. Concurrent callers share the same
// in-flight initialization and observe the same completion.
func (a *AuthService) InitAuth(ctx context.Context) error {
	a.initMu.Lock()
	if a.initDone != nil {
		done := a.initDone
		a.initMu.Unlock()

		select {
		case <-done:
			return a.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	a.initDone = done
	a.initMu.Unlock()

	a.initErr = a.initAuth(ctx)
	a.store.MarkInitialized()
	close(done)

	return a.initErr
}

func (a *AuthService) initAuth(ctx context.Context) error {
	user, err := a.profiles.LoadProfile()
	if err != nil {
		if !errors.Is(err, storage.ErrProfileNotFound) {
			a.log.Warnw("Failed to load persisted profile", "error", err)
		}
		return nil
	}

	a.store.SetUser(user)
	if _, _, ok := a.store.AccessToken(); ok {
		return nil
	}
	a.log.Debugw("Rehydrated profile, attempting silent refresh", "user", user.Name())

	if _, err := a.tokens.Refresh(ctx); err != nil {
		// Stale profile with no way to act on it: demote to logged out.
		a.store.ClearAuthData()
		if derr := a.profiles.DeleteProfile(); derr != nil {
			a.log.Warnw("Failed to delete persisted profile", "error", derr)
		}
		a.log.Infow("Silent refresh failed, session demoted", "error", err)
	}

	return nil
}

// RefreshUserInfo re-fetches the authenticated profile, keeping store and
// persistence in sync. A failure forces a logout, mirroring Login's
// atomicity in reverse.
func (a *AuthService) RefreshUserInfo(ctx context.Context) (*models.User, error) {
	if a.store.CurrentUser() == nil {
		return nil, nil
	}

	var user models.User
	if err := a.client.Get(ctx, "/users/me", nil, &user); err != nil {
		a.log.Errorw("Failed to refresh user info", "error", err)
		a.Logout(ctx)
		return nil, err
	}

	a.store.SetUser(&user)
	if err := a.profiles.SaveProfile(&user); err != nil {
		a.log.Warnw("Failed to persist profile", "error", err)
	}
	return &user, nil
}
