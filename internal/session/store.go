package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/models"
)

type EventKind int

const (
	EventLoggedIn EventKind = iota + 1
	EventLoggedOut
	EventTokenRefreshed
	// EventUnauthorized is emitted when the session is forcibly cleared
	// after an unrecoverable authentication failure. Subscribers (the CLI,
	// the realtime client) react by dropping back to the login entry point.
	EventUnauthorized
)

type Event struct {
	Kind EventKind
	User *models.User
}

// Store is the single source of truth for session state. The access token
// is held only in memory; persistence of the user profile is the caller's
// concern (see storage). Every mutation is one atomic set under the lock,
// so no reader can observe a token without its expiry or vice versa.
type Store struct {
	mu      sync.RWMutex
	session models.Session
	log     *zap.SugaredLogger

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func NewStore(log *zap.SugaredLogger) *Store {
	return &Store{
		log:  log,
		subs: make(map[int]func(Event)),
	}
}

func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session
}

// AccessToken returns the current token and its expiry. ok is false when
// no token is held.
func (s *Store) AccessToken() (token string, expiresAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.AccessToken == "" {
		return "", time.Time{}, false
	}
	return s.session.AccessToken, s.session.TokenExpiresAt, true
}

func (s *Store) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.CurrentUser
}

// SetAuthenticated stores the user and token in one atomic update.
// Used on login, where both arrive in the same response.
func (s *Store) SetAuthenticated(user *models.User, token string, ttl time.Duration) {
	s.mu.Lock()
	s.session.CurrentUser = user
	s.session.AccessToken = token
	s.session.TokenExpiresAt = expiry(ttl)
	s.mu.Unlock()

	s.log.Debugw("Session authenticated", "userID", user.ID, "ttl", ttl)
	s.emit(Event{Kind: EventLoggedIn, User: user})
}

// SetAccessToken overwrites the token unconditionally. A non-positive ttl
// means the lifetime is unknown and the expiry is left unset.
func (s *Store) SetAccessToken(token string, ttl time.Duration) {
	s.mu.Lock()
	s.session.AccessToken = token
	s.session.TokenExpiresAt = expiry(ttl)
	s.mu.Unlock()

	s.log.Debugw("Access token updated", "ttl", ttl)
	s.emit(Event{Kind: EventTokenRefreshed})
}

// SetUser replaces the profile without touching the token.
func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	s.session.CurrentUser = user
	s.mu.Unlock()
}

// ClearAuthData resets token, expiry and user. Idempotent and silent;
// callers that need a signal use Logout or ForceLogout.
func (s *Store) ClearAuthData() {
	s.mu.Lock()
	s.session.AccessToken = ""
	s.session.TokenExpiresAt = time.Time{}
	s.session.CurrentUser = nil
	s.mu.Unlock()
}

// Logout clears the session and announces a voluntary logout.
func (s *Store) Logout() {
	user := s.CurrentUser()
	s.ClearAuthData()
	s.emit(Event{Kind: EventLoggedOut, User: user})
}

// ForceLogout clears the session and broadcasts the unauthorized signal.
// Called when a refresh fails or a replayed request is rejected again.
func (s *Store) ForceLogout() {
	s.ClearAuthData()
	s.log.Infow("Session forcibly cleared")
	s.emit(Event{Kind: EventUnauthorized})
}

func (s *Store) MarkInitialized() {
	s.mu.Lock()
	s.session.Initialized = true
	s.mu.Unlock()
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Initialized
}

// Subscribe registers fn for session events and returns an unsubscribe
// function. Events are delivered synchronously; handlers must not call
// back into the store's mutating methods.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) emit(e Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
