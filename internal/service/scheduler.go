package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/util"
)

// RefreshScheduler refreshes the access token ahead of its expiry so
// normal use never runs into an expired token. It moves between three
// states: idle (no session), armed (timer pending) and firing (refresh in
// progress). Success re-arms relative to the new expiry via the store's
// refresh event; failure drops back to idle with the session cleared.
type RefreshScheduler struct {
	tokens TokenRefresher
	store  *session.Store
	lead   time.Duration
	floor  time.Duration
	log    *zap.SugaredLogger

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	unsub   func()
}

func NewRefreshScheduler(tokens TokenRefresher, store *session.Store, cfg *util.SessionConfig, log *zap.SugaredLogger) *RefreshScheduler {
	return &RefreshScheduler{
		tokens: tokens,
		store:  store,
		lead:   cfg.RefreshLead,
		floor:  cfg.RefreshFloor,
		log:    log,
	}
}

// Start begins watching the session. Safe to call once; Stop undoes it.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.unsub = s.store.Subscribe(func(e session.Event) {
		switch e.Kind {
		case session.EventLoggedIn, session.EventTokenRefreshed:
			s.arm()
		case session.EventLoggedOut, session.EventUnauthorized:
			s.disarm()
		}
	})

	// A session may already exist when the scheduler starts.
	s.arm()
}

func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	s.started = false
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.disarm()
}

// arm schedules the next refresh relative to the current token expiry.
// With no token, or an unknown lifetime, the scheduler stays idle; the
// 401 path still recovers on demand.
func (s *RefreshScheduler) arm() {
	_, expiresAt, ok := s.store.AccessToken()
	if !ok || expiresAt.IsZero() {
		s.disarm()
		return
	}

	delay := s.refreshDelay(time.Until(expiresAt))

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, s.fire)
	s.log.Debugw("Proactive refresh armed", "delay", delay)
}

// disarm cancels any pending timer so no refresh fires for a session that
// no longer exists.
func (s *RefreshScheduler) disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *RefreshScheduler) fire() {
	if s.store.CurrentUser() == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := s.tokens.Refresh(ctx); err != nil {
		// The coordinator already cleared the session; stay idle.
		s.log.Infow("Proactive refresh failed", "error", err)
		s.disarm()
	}
	// On success the store's refresh event re-arms with the new expiry.
}

// refreshDelay fires one lead interval before expiry, but never sooner
// than the floor, so very short-lived tokens cannot cause a tight loop.
func (s *RefreshScheduler) refreshDelay(expiresIn time.Duration) time.Duration {
	delay := expiresIn - s.lead
	if delay < s.floor {
		return s.floor
	}
	return delay
}
