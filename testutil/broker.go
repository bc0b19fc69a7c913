package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Broker is an in-process stand-in for the push broker. It speaks the
// same JSON command/reply protocol the client does: connect with a
// token, subscribe/unsubscribe to channels, publications pushed down.
type Broker struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu         sync.Mutex
	conns      map[*brokerConn]struct{}
	validToken string
	connects   int
}

type brokerConn struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	channels map[string]struct{}
}

type brokerCommand struct {
	ID          uint32 `json:"id,omitempty"`
	Connect     *struct {
		Token string `json:"token"`
	} `json:"connect,omitempty"`
	Subscribe *struct {
		Channel string `json:"channel"`
	} `json:"subscribe,omitempty"`
	Unsubscribe *struct {
		Channel string `json:"channel"`
	} `json:"unsubscribe,omitempty"`
}

// NewBroker starts a broker accepting the given token. Close is
// registered on the test's cleanup.
func NewBroker(t *testing.T, validToken string) *Broker {
	t.Helper()

	b := &Broker{
		conns:      make(map[*brokerConn]struct{}),
		validToken: validToken,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.Close)
	return b
}

// URL returns the ws:// address clients dial.
func (b *Broker) URL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

// SetValidToken changes the token the broker accepts.
func (b *Broker) SetValidToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validToken = token
}

// Connects returns how many connect commands the broker has received.
func (b *Broker) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

// Publish delivers data as a publication on a channel to every
// subscribed connection.
func (b *Broker) Publish(channel string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	msg := map[string]interface{}{
		"push": map[string]interface{}{
			"channel": channel,
			"pub":     map[string]interface{}{"data": json.RawMessage(payload)},
		},
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		if _, ok := c.channels[channel]; ok {
			c.writeJSON(msg)
		}
	}
}

// Subscribed reports whether any connection is subscribed to channel.
func (b *Broker) Subscribed(channel string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		if _, ok := c.channels[channel]; ok {
			return true
		}
	}
	return false
}

// DropConnections forcibly closes every live connection, simulating a
// broker-side drop.
func (b *Broker) DropConnections() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		c.conn.Close()
	}
}

// Close shuts the broker down.
func (b *Broker) Close() {
	b.DropConnections()
	b.server.Close()
}

func (b *Broker) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &brokerConn{conn: conn, channels: make(map[string]struct{})}

	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
		conn.Close()
	}()

	conn.SetPingHandler(func(appData string) error {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return conn.WriteMessage(websocket.PongMessage, []byte(appData))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd brokerCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			continue
		}

		switch {
		case cmd.Connect != nil:
			b.mu.Lock()
			b.connects++
			valid := cmd.Connect.Token == b.validToken
			b.mu.Unlock()
			if !valid {
				c.writeJSON(map[string]interface{}{
					"id":    cmd.ID,
					"error": map[string]interface{}{"code": 109, "message": "token rejected"},
				})
				return
			}
			c.writeJSON(map[string]interface{}{"id": cmd.ID, "connect": map[string]interface{}{}})
		case cmd.Subscribe != nil:
			b.mu.Lock()
			c.channels[cmd.Subscribe.Channel] = struct{}{}
			b.mu.Unlock()
			c.writeJSON(map[string]interface{}{"id": cmd.ID, "subscribe": map[string]interface{}{}})
		case cmd.Unsubscribe != nil:
			b.mu.Lock()
			delete(c.channels, cmd.Unsubscribe.Channel)
			b.mu.Unlock()
			c.writeJSON(map[string]interface{}{"id": cmd.ID, "unsubscribe": map[string]interface{}{}})
		}
	}
}

func (c *brokerConn) writeJSON(v interface{}) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteJSON(v)
}
