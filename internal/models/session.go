package models

import "time"

// Session is a point-in-time snapshot of the client session state.
// The access token lives only in memory; after a restart CurrentUser may be
// present (rehydrated from disk) while AccessToken is empty, until a silent
// refresh succeeds.
type Session struct {
	AccessToken    string
	TokenExpiresAt time.Time
	CurrentUser    *User
	Initialized    bool
}

// Authenticated reports whether a user is attached to the session.
// It deliberately does not require a token: the post-restart state has a
// user but no token yet.
func (s Session) Authenticated() bool {
	return s.CurrentUser != nil
}

// HasToken reports whether a bearer token is available for requests.
func (s Session) HasToken() bool {
	return s.AccessToken != ""
}
