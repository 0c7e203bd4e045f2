package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/models"
)

func newTestStore() *Store {
	return NewStore(zap.NewNop().Sugar())
}

func TestSetAuthenticatedIsAtomic(t *testing.T) {
	s := newTestStore()
	user := &models.User{ID: "u1", Username: "alice"}

	s.SetAuthenticated(user, "tok", time.Minute)

	snap := s.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Equal(t, "tok", snap.AccessToken)
	assert.Equal(t, user, snap.CurrentUser)
	assert.WithinDuration(t, time.Now().Add(time.Minute), snap.TokenExpiresAt, 5*time.Second)
}

func TestAccessTokenAbsent(t *testing.T) {
	s := newTestStore()

	_, _, ok := s.AccessToken()
	assert.False(t, ok)
}

func TestSetAccessTokenUnknownLifetime(t *testing.T) {
	s := newTestStore()

	s.SetAccessToken("tok", 0)

	token, expiresAt, ok := s.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.True(t, expiresAt.IsZero())
}

func TestClearAuthDataIsIdempotentAndSilent(t *testing.T) {
	s := newTestStore()
	s.SetAuthenticated(&models.User{ID: "u1"}, "tok", time.Minute)

	var events int
	unsub := s.Subscribe(func(Event) { events++ })
	defer unsub()

	s.ClearAuthData()
	s.ClearAuthData()

	assert.Equal(t, 0, events)
	assert.False(t, s.Snapshot().Authenticated())
	assert.Nil(t, s.CurrentUser())
}

func TestLogoutCarriesTheUser(t *testing.T) {
	s := newTestStore()
	s.SetAuthenticated(&models.User{ID: "u1", Username: "alice"}, "tok", time.Minute)

	var got Event
	unsub := s.Subscribe(func(e Event) { got = e })
	defer unsub()

	s.Logout()

	assert.Equal(t, EventLoggedOut, got.Kind)
	require.NotNil(t, got.User)
	assert.Equal(t, "alice", got.User.Username)
}

func TestForceLogoutBroadcastsUnauthorized(t *testing.T) {
	s := newTestStore()
	s.SetAuthenticated(&models.User{ID: "u1"}, "tok", time.Minute)

	var kinds []EventKind
	unsub := s.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })
	defer unsub()

	s.ForceLogout()

	assert.Equal(t, []EventKind{EventUnauthorized}, kinds)
	assert.False(t, s.Snapshot().Authenticated())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := newTestStore()

	var events int
	unsub := s.Subscribe(func(Event) { events++ })

	s.SetAccessToken("tok", time.Minute)
	unsub()
	s.SetAccessToken("tok2", time.Minute)

	assert.Equal(t, 1, events)
}

func TestSubscribersSeeEveryEventInOrder(t *testing.T) {
	s := newTestStore()

	var kinds []EventKind
	unsub := s.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })
	defer unsub()

	s.SetAuthenticated(&models.User{ID: "u1"}, "tok", time.Minute)
	s.SetAccessToken("tok2", time.Minute)
	s.Logout()

	assert.Equal(t, []EventKind{EventLoggedIn, EventTokenRefreshed, EventLoggedOut}, kinds)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetAccessToken("tok", time.Minute)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := s.Snapshot()
				if snap.AccessToken != "" && !snap.HasToken() {
					t.Error("snapshot is internally inconsistent")
					return
				}
				s.AccessToken()
			}
		}()
	}
	wg.Wait()
}
