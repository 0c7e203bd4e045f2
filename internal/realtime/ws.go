package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/session"
	"github.com/classboard/classboard-cli/internal/util"
)

var ErrNoSession = errors.New("no authenticated session")

type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Client maintains the notification stream: it dials with the current
// bearer token, sends a ping heartbeat, and reconnects with exponential
// backoff up to a bounded number of attempts. A logout (voluntary or
// forced) ends the stream.
type Client struct {
	cfg     *util.RealtimeConfig
	store   *session.Store
	handler func(Message)
	log     *zap.SugaredLogger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(cfg *util.RealtimeConfig, store *session.Store, handler func(Message), log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:     cfg,
		store:   store,
		handler: handler,
		log:     log,
	}
}

// Run blocks until the context is cancelled, the session ends, or the
// reconnect budget is exhausted.
func (c *Client) Run(ctx context.Context) error {
	unsub := c.store.Subscribe(func(e session.Event) {
		if e.Kind == session.EventLoggedOut || e.Kind == session.EventUnauthorized {
			c.closeConn()
		}
	})
	defer unsub()
	defer c.closeConn()

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.store.CurrentUser() == nil {
			return ErrNoSession
		}

		err := c.runOnce(ctx, &attempts)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if c.store.CurrentUser() == nil {
			return ErrNoSession
		}

		attempts++
		if attempts > c.cfg.MaxReconnectAttempts {
			return fmt.Errorf("giving up after %d reconnect attempts: %w", c.cfg.MaxReconnectAttempts, err)
		}

		delay := c.reconnectDelay(attempts)
		c.log.Infow("Connection lost, reconnecting", "attempt", attempts, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) runOnce(ctx context.Context, attempts *int) error {
	token, _, ok := c.store.AccessToken()
	if !ok {
		return ErrNoSession
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.WSBaseURL+"/ws", header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	// A successful connect resets the backoff.
	*attempts = 0
	c.log.Infow("Connected to notification stream")

	heartbeatDone := make(chan struct{})
	go c.heartbeat(conn, heartbeatDone)
	defer close(heartbeatDone)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if msg.Type == "pong" {
			continue
		}
		if c.handler != nil {
			c.handler(msg)
		}
	}
}

func (c *Client) heartbeat(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(Message{Type: "ping"}); err != nil {
				c.log.Debugw("Heartbeat failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// reconnectDelay doubles the base interval per attempt, capped at the
// configured maximum.
func (c *Client) reconnectDelay(attempt int) time.Duration {
	delay := c.cfg.ReconnectInterval
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.cfg.MaxReconnectInterval {
			return c.cfg.MaxReconnectInterval
		}
	}
	if delay > c.cfg.MaxReconnectInterval {
		return c.cfg.MaxReconnectInterval
	}
	return delay
}
