// Standalone stub backend for developing the CLI against: issues
// short-lived opaque access tokens, keeps refresh sessions behind an
// http-only cookie, and serves a couple of envelope-shaped endpoints.
// Not part of the client itself.
package main

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	stubAccessTTL  = 2 * time.Minute
	stubRefreshTTL = 24 * time.Hour

	refreshCookieName = "refresh_token"
)

type envelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

type stubUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	password    string
}

type stubState struct {
	mu      sync.Mutex
	users   map[string]*stubUser
	access  map[string]time.Time // token -> expiry
	refresh map[string]string    // cookie value -> username
}

func newStubState() *stubState {
	return &stubState{
		users: map[string]*stubUser{
			"student": {ID: "1", Username: "student", DisplayName: "Demo Student", Role: "user", Status: "active", password: "student123"},
			"teacher": {ID: "2", Username: "teacher", DisplayName: "Demo Teacher", Role: "teacher", Status: "active", password: "teacher123"},
		},
		access:  make(map[string]time.Time),
		refresh: make(map[string]string),
	}
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope{Code: 0, Message: "ok", Data: data, Timestamp: time.Now().Format(time.RFC3339)})
}

func fail(c echo.Context, status, code int, msg string) error {
	return c.JSON(status, envelope{Code: code, Message: msg, Timestamp: time.Now().Format(time.RFC3339)})
}

func (s *stubState) issueAccess() (string, int64) {
	token := uuid.NewString()
	s.access[token] = time.Now().Add(stubAccessTTL)
	return token, int64(stubAccessTTL / time.Second)
}

func (s *stubState) login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, 400, "bad request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, found := s.users[req.Username]
	if !found || user.password != req.Password {
		return fail(c, http.StatusOK, 1001, "wrong username or password")
	}

	token, expiresIn := s.issueAccess()

	cookie := uuid.NewString()
	s.refresh[cookie] = req.Username
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    cookie,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(stubRefreshTTL),
	})

	return ok(c, map[string]interface{}{
		"user":         user,
		"access_token": token,
		"expires_in":   expiresIn,
	})
}

func (s *stubState) refreshToken(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return fail(c, http.StatusUnauthorized, 401, "missing refresh cookie")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.refresh[cookie.Value]; !found {
		return fail(c, http.StatusUnauthorized, 401, "refresh session expired")
	}

	token, expiresIn := s.issueAccess()
	return ok(c, map[string]interface{}{
		"access_token": token,
		"expires_in":   expiresIn,
	})
}

func (s *stubState) logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		s.mu.Lock()
		delete(s.refresh, cookie.Value)
		s.mu.Unlock()
	}
	c.SetCookie(&http.Cookie{Name: refreshCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	return ok(c, nil)
}

// requireBearer rejects requests without a live access token.
func (s *stubState) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if len(auth) < 8 || auth[:7] != "Bearer " {
			return fail(c, http.StatusUnauthorized, 401, "missing bearer token")
		}
		token := auth[7:]

		s.mu.Lock()
		expiry, found := s.access[token]
		s.mu.Unlock()

		if !found || time.Now().After(expiry) {
			return fail(c, http.StatusUnauthorized, 401, "token expired")
		}
		return next(c)
	}
}

func (s *stubState) me(c echo.Context) error {
	// The stub has no per-token identity; always answer as the student.
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.users["student"])
}

func (s *stubState) listClasses(c echo.Context) error {
	return ok(c, map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": "101", "name": "Algebra II", "teacher_id": "2", "member_count": 24, "created_at": time.Now().Format(time.RFC3339)},
			{"id": "102", "name": "Physics", "teacher_id": "2", "member_count": 19, "created_at": time.Now().Format(time.RFC3339)},
		},
	})
}

func main() {
	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	state := newStubState()

	e := echo.New()
	e.HideBanner = true

	g := e.Group("/api/v1")
	g.POST("/auth/login", state.login)
	g.POST("/auth/refresh", state.refreshToken)
	g.POST("/auth/logout", state.logout)
	g.GET("/users/me", state.me, state.requireBearer)
	g.GET("/classes", state.listClasses, state.requireBearer)

	e.Logger.Fatal(e.Start(addr))
}
