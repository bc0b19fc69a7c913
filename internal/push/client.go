// Package push maintains the persistent websocket connection to the
// assistant's real-time broker: connect with a short-lived token,
// subscribe to the active workspace's channel, and hand every received
// publication to the reconciler unmodified. Drops are retried with
// bounded exponential backoff.
package push

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	readLimit    = 1 << 20 // 1MB, far above any single event
)

// TokenSource issues short-lived push tokens. The API client satisfies it.
type TokenSource interface {
	PushToken(ctx context.Context) (string, error)
}

// StatusSink receives connection status transitions. The workspace state
// store satisfies it.
type StatusSink interface {
	SetConnectionStatus(status state.ConnectionStatus)
}

// Options configures a Client. URL, Tokens, Status and OnFrame are
// required; the rest default sensibly.
type Options struct {
	URL          string
	Tokens       TokenSource
	Status       StatusSink
	OnFrame      func(data json.RawMessage)
	Policy       Policy
	PingInterval time.Duration
	Dialer       *websocket.Dialer
}

// Client is the broker connection. Run drives the connect/read/reconnect
// loop; SetChannel switches the single active subscription.
type Client struct {
	opts   Options
	logger *logrus.Entry

	mu      sync.Mutex // guards conn, channel, token
	conn    *websocket.Conn
	channel string
	token   string

	writeMu sync.Mutex
	nextID  uint32
}

// NewClient creates a broker client. It does not connect; call Run.
func NewClient(opts Options) *Client {
	if opts.PingInterval <= 0 {
		opts.PingInterval = time.Duration(config.DefaultPingIntervalMs) * time.Millisecond
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = PolicyFromConfig(config.PushConfig{})
	}
	return &Client{
		opts:   opts,
		logger: logging.NewLogger("push"),
	}
}

// Run connects and keeps the connection alive until the context is
// cancelled or the retry budget is exhausted. Each failed attempt waits
// per the backoff policy; a successful connect resets the attempt count.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			c.setStatus(state.StatusDisconnected)
			return ctx.Err()
		}

		connected, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			c.setStatus(state.StatusDisconnected)
			return ctx.Err()
		}
		if err != nil {
			c.logger.WithError(err).Warn("Push connection lost")
		}
		if connected {
			attempt = 0
		}
		c.setStatus(state.StatusDisconnected)

		attempt++
		if attempt > c.opts.Policy.MaxAttempts {
			c.logger.Errorf("Giving up after %d reconnect attempts", c.opts.Policy.MaxAttempts)
			return errors.PushExhausted(c.opts.Policy.MaxAttempts)
		}

		c.setStatus(state.StatusReconnecting)
		delay := c.opts.Policy.Delay(attempt)
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Info("Reconnecting to push broker")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			c.setStatus(state.StatusDisconnected)
			return ctx.Err()
		}
	}
}

// runOnce performs a single connect-and-read cycle. It returns whether
// the connection was fully established before failing.
func (c *Client) runOnce(ctx context.Context) (bool, error) {
	c.setStatus(state.StatusConnecting)

	token, err := c.ensureToken(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to obtain push token")
		return false, err
	}

	conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	c.mu.Lock()
	c.conn = conn
	channel := c.channel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	if err := c.connect(conn, token); err != nil {
		return false, err
	}
	c.setStatus(state.StatusConnected)
	c.logger.Info("Connected to push broker")

	if channel != "" {
		if err := c.write(conn, command{ID: c.id(), Subscribe: &subscribeRequest{Channel: channel}}); err != nil {
			return true, err
		}
		c.logger.WithField("channel", channel).Debug("Subscribed")
	}

	done := make(chan error, 1)
	go func() { done <- c.readLoop(conn) }()

	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case err := <-done:
			return true, err
		case <-ticker.C:
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return true, err
			}
		}
	}
}

// connect sends the connect command and waits for its reply. A rejected
// token is discarded so the next attempt fetches a fresh one.
func (c *Client) connect(conn *websocket.Conn, token string) error {
	if err := c.write(conn, command{ID: c.id(), Connect: &connectRequest{Token: token, Name: "helmwright"}}); err != nil {
		return err
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return errors.Wrap(err, errors.ErrCodePushDisconnected, "malformed connect reply")
	}
	if r.Error != nil {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return errors.TokenRejected(r.Error.Message)
	}
	return nil
}

// readLoop consumes broker messages until the connection fails.
func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.handleMessage(conn, raw)
	}
}

func (c *Client) handleMessage(conn *websocket.Conn, raw []byte) {
	if isAppPing(raw) {
		c.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{}"))
		c.writeMu.Unlock()
		return
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.WithError(err).Warn("Dropping unparseable broker message")
		return
	}

	switch {
	case r.Push != nil:
		if r.Push.Pub == nil {
			return
		}
		c.mu.Lock()
		current := c.channel
		c.mu.Unlock()
		// A publication racing an unsubscribe can still arrive for the
		// old channel.
		if current != "" && r.Push.Channel != current {
			c.logger.WithField("channel", r.Push.Channel).Debug("Dropping publication for inactive channel")
			return
		}
		if c.opts.OnFrame != nil {
			c.opts.OnFrame(r.Push.Pub.Data)
		}
	case r.Error != nil:
		c.logger.WithFields(logrus.Fields{
			"code":    r.Error.Code,
			"message": r.Error.Message,
		}).Warn("Broker command failed")
	}
}

// SetChannel switches the single active subscription. When connected,
// the old channel is unsubscribed before the new one is subscribed so a
// stale subscription never lingers. The new channel also applies to
// future reconnects.
func (c *Client) SetChannel(channel string) error {
	c.mu.Lock()
	old := c.channel
	c.channel = channel
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || old == channel {
		return nil
	}

	if old != "" {
		if err := c.write(conn, command{ID: c.id(), Unsubscribe: &unsubscribeRequest{Channel: old}}); err != nil {
			return err
		}
		c.logger.WithField("channel", old).Debug("Unsubscribed")
	}
	if channel != "" {
		if err := c.write(conn, command{ID: c.id(), Subscribe: &subscribeRequest{Channel: channel}}); err != nil {
			return err
		}
		c.logger.WithField("channel", channel).Debug("Subscribed")
	}
	return nil
}

// ensureToken returns the cached push token, fetching a fresh one when
// none is held. Fetch failures surface to the reconnect loop and count
// against the same retry budget as connection failures.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	token, err := c.opts.Tokens.PushToken(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) write(conn *websocket.Conn, cmd command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(cmd)
}

func (c *Client) id() uint32 {
	return atomic.AddUint32(&c.nextID, 1)
}

func (c *Client) setStatus(status state.ConnectionStatus) {
	if c.opts.Status != nil {
		c.opts.Status.SetConnectionStatus(status)
	}
}
