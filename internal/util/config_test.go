package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "45s")
	assert.Equal(t, 45*time.Second, parseDurationOrDefault("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, parseDurationOrDefault("TEST_DURATION", time.Minute))

	assert.Equal(t, time.Minute, parseDurationOrDefault("TEST_DURATION_UNSET", time.Minute))
}

func TestNewSessionConfigDefaults(t *testing.T) {
	cfg := NewSessionConfig()

	assert.Equal(t, 60*time.Second, cfg.RefreshLead)
	assert.Equal(t, 60*time.Second, cfg.RefreshFloor)
	assert.Equal(t, 100*time.Millisecond, cfg.RefreshGrace)
	assert.NotEmpty(t, cfg.ProfilePath)
}

func TestNewSessionConfigOverrides(t *testing.T) {
	t.Setenv("TOKEN_REFRESH_LEAD", "30s")
	t.Setenv("PROFILE_PATH", "/tmp/profile.json")

	cfg := NewSessionConfig()

	assert.Equal(t, 30*time.Second, cfg.RefreshLead)
	assert.Equal(t, "/tmp/profile.json", cfg.ProfilePath)
}

func TestErrorMessageFallbacks(t *testing.T) {
	assert.Equal(t, "wrong username or password", ErrorMessage(CodeAuthFailed, "server text"))
	assert.Equal(t, "server text", ErrorMessage(9999, "server text"))
	assert.Equal(t, "operation failed, try again later", ErrorMessage(9999, ""))
}

func TestAPIErrorString(t *testing.T) {
	err := NewAPIError(CodeNotFound, "class %s not found", "c1")
	assert.Equal(t, "api error 404: class c1 not found", err.Error())
}
