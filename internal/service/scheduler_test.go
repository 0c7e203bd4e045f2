package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/util"
)

// fakeRefresher counts Refresh calls and can feed a new token back into the
// store the way the real coordinator does.
type fakeRefresher struct {
	calls atomic.Int32
	store *session.Store
	ttl   time.Duration
}

func (f *fakeRefresher) Refresh(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.store != nil {
		f.store.SetAccessToken("scheduled-token", f.ttl)
	}
	return "scheduled-token", nil
}

func TestRefreshDelayMath(t *testing.T) {
	s := &RefreshScheduler{lead: time.Minute, floor: time.Minute}

	tests := []struct {
		name      string
		expiresIn time.Duration
		want      time.Duration
	}{
		{"typical token", 300 * time.Second, 240 * time.Second},
		{"short-lived token hits the floor", 30 * time.Second, time.Minute},
		{"already expired still waits the floor", -10 * time.Second, time.Minute},
		{"exactly lead plus floor", 2 * time.Minute, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.refreshDelay(tt.expiresIn))
		})
	}
}

func TestSchedulerFiresAheadOfExpiry(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := session.NewStore(log)
	refresher := &fakeRefresher{store: store, ttl: 0}

	cfg := &util.SessionConfig{RefreshLead: 40 * time.Millisecond, RefreshFloor: 10 * time.Millisecond}
	s := NewRefreshScheduler(refresher, store, cfg, log)
	s.Start()
	defer s.Stop()

	// 100ms lifetime with a 40ms lead: the refresh lands around the 60ms
	// mark. The fake hands back a token with unknown lifetime, so the
	// scheduler does not re-arm and the count stays at one.
	store.SetAuthenticated(&models.User{ID: "u1", Username: "alice"}, "tok", 100*time.Millisecond)

	assert.Eventually(t, func() bool { return refresher.calls.Load() == 1 },
		time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, refresher.calls.Load())
}

func TestSchedulerRearmsAfterRefresh(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := session.NewStore(log)
	refresher := &fakeRefresher{store: store, ttl: 80 * time.Millisecond}

	cfg := &util.SessionConfig{RefreshLead: 40 * time.Millisecond, RefreshFloor: 10 * time.Millisecond}
	s := NewRefreshScheduler(refresher, store, cfg, log)
	s.Start()
	defer s.Stop()

	store.SetAuthenticated(&models.User{ID: "u1", Username: "alice"}, "tok", 80*time.Millisecond)

	// Each refresh yields a new expiry, which re-arms the timer.
	assert.Eventually(t, func() bool { return refresher.calls.Load() >= 2 },
		time.Second, 5*time.Millisecond)
}

func TestSchedulerDisarmsOnLogout(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := session.NewStore(log)
	refresher := &fakeRefresher{}

	cfg := &util.SessionConfig{RefreshLead: 10 * time.Millisecond, RefreshFloor: 30 * time.Millisecond}
	s := NewRefreshScheduler(refresher, store, cfg, log)
	s.Start()
	defer s.Stop()

	store.SetAuthenticated(&models.User{ID: "u1", Username: "alice"}, "tok", time.Hour)
	store.Logout()

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 0, refresher.calls.Load())
}

func TestSchedulerIgnoresTokenWithUnknownLifetime(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := session.NewStore(log)
	refresher := &fakeRefresher{}

	cfg := &util.SessionConfig{RefreshLead: 10 * time.Millisecond, RefreshFloor: 10 * time.Millisecond}
	s := NewRefreshScheduler(refresher, store, cfg, log)
	s.Start()
	defer s.Stop()

	store.SetAuthenticated(&models.User{ID: "u1", Username: "alice"}, "tok", 0)

	time.Sleep(80 * time.Millisecond)
	assert.EqualValues(t, 0, refresher.calls.Load())
}
