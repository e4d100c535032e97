// Package gateway owns the two real-time connections behind the dashboard:
// the framed event socket of the queue backend (primary) and the raw chat
// gateway socket (secondary). Transport events are republished on the bus;
// nothing in this package is surfaced to panels as a returned error.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/config"
)

// Frame is one message on the primary event socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrNotConnected is returned by SendChat when the chat socket is down.
var ErrNotConnected = errors.New("gateway: not connected")

const (
	primaryName   = "primary"
	secondaryName = "secondary"
)

// conn tracks one connection's reconnect state machine. The two instances
// are fully independent; they share nothing but the bus.
type conn struct {
	name     string
	url      string
	header   http.Header
	backoff  func(attempt int) time.Duration
	upTopic  string
	dnTopic  string
	errTopic string

	running     bool
	connected   bool
	attempts    int
	manualRetry bool
	sock        Socket
	stop        chan struct{}
}

// Manager connects, supervises and tears down both sockets.
type Manager struct {
	cfg    config.GatewayConfig
	bus    *bus.Bus
	dialer Dialer

	mu        sync.Mutex
	primary   *conn
	secondary *conn
}

// NewManager creates a manager publishing on b. The default dialer speaks
// websocket; tests may replace it.
func NewManager(cfg config.GatewayConfig, b *bus.Bus) *Manager {
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 10
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	return &Manager{cfg: cfg, bus: b, dialer: &wsDialer{}}
}

// SetDialer replaces the transport dialer. Must be called before connecting.
func (m *Manager) SetDialer(d Dialer) { m.dialer = d }

// ConnectPrimary starts the queue event socket. Calling while the connection
// is up (or still retrying) is a no-op.
func (m *Manager) ConnectPrimary(authToken string) {
	header := http.Header{}
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}
	m.connect(&m.primary, &conn{
		name:     primaryName,
		url:      m.cfg.QueueSocketURL,
		header:   header,
		backoff:  m.linearBackoff,
		upTopic:  bus.TopicPrimaryUp,
		dnTopic:  bus.TopicPrimaryDown,
		errTopic: bus.TopicPrimaryError,
	})
}

// ConnectSecondary starts the chat gateway socket. Idempotent like
// ConnectPrimary.
func (m *Manager) ConnectSecondary() {
	m.connect(&m.secondary, &conn{
		name:     secondaryName,
		url:      m.cfg.ChatSocketURL,
		backoff:  m.exponentialBackoff,
		upTopic:  bus.TopicSecondaryUp,
		dnTopic:  bus.TopicSecondaryDown,
		errTopic: bus.TopicSecondaryErr,
	})
}

func (m *Manager) connect(slot **conn, c *conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := *slot; existing != nil && existing.running {
		slog.Debug("Socket already connected", "conn", c.name)
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	*slot = c
	go m.run(c)
}

// linearBackoff waits a fixed delay per attempt (delay, 2*delay, ...).
func (m *Manager) linearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * m.cfg.ReconnectDelay
}

// exponentialBackoff doubles per attempt (delay, 2*delay, 4*delay, ...).
func (m *Manager) exponentialBackoff(attempt int) time.Duration {
	return m.cfg.ReconnectDelay << uint(attempt-1)
}

// run is the per-connection supervise loop: dial, pump, decide whether to
// retry. It exits when the retry budget is spent or the manager disconnects.
func (m *Manager) run(c *conn) {
	defer func() {
		m.mu.Lock()
		c.running = false
		m.mu.Unlock()
	}()

	for {
		sock, err := m.dialer.Dial(c.url, c.header)
		if err != nil {
			slog.Warn("Socket connect failed", "conn", c.name, "error", err)
			if !m.retry(c, fmt.Sprintf("connect failed: %v", err)) {
				return
			}
			continue
		}

		m.mu.Lock()
		if !c.running || isClosed(c.stop) {
			m.mu.Unlock()
			sock.Close()
			return
		}
		c.sock = sock
		c.connected = true
		c.attempts = 0
		c.manualRetry = false
		m.mu.Unlock()

		slog.Info("Socket connected", "conn", c.name, "url", c.url)
		m.bus.Publish(c.upTopic, nil)
		if c.name == primaryName {
			// Ask the backend to start streaming queue events.
			data, _ := json.Marshal(Frame{Event: "subscribe:queue"})
			if err := sock.WriteMessage(data); err != nil {
				slog.Warn("Queue subscribe failed", "error", err)
			}
		}

		serverClose := m.pump(c, sock)

		m.mu.Lock()
		c.connected = false
		c.sock = nil
		stopped := isClosed(c.stop)
		m.mu.Unlock()

		m.bus.Publish(c.dnTopic, nil)
		if stopped {
			return
		}

		// A forced server disconnect on the queue socket earns one manual
		// reconnect attempt outside the automatic budget. The chat socket
		// follows its normal backoff policy.
		if serverClose && c.name == primaryName && !c.manualRetry {
			c.manualRetry = true
			slog.Info("Server closed socket, reconnecting once", "conn", c.name)
			if !m.wait(c, m.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		if !m.retry(c, "connection lost") {
			return
		}
	}
}

// retry consumes one automatic attempt. It returns false once the budget is
// exhausted, after publishing the terminal error event exactly once.
func (m *Manager) retry(c *conn, reason string) bool {
	m.mu.Lock()
	c.attempts++
	attempts := c.attempts
	m.mu.Unlock()

	if attempts >= m.cfg.MaxReconnectAttempts {
		slog.Error("Socket retry budget exhausted", "conn", c.name, "attempts", attempts)
		m.bus.Publish(c.errTopic, reason)
		return false
	}
	return m.wait(c, c.backoff(attempts))
}

func (m *Manager) wait(c *conn, d time.Duration) bool {
	select {
	case <-c.stop:
		return false
	case <-time.After(d):
		return true
	}
}

// pump reads until the socket drops. It reports whether the peer closed the
// connection deliberately (close frame) rather than the link failing.
func (m *Manager) pump(c *conn, sock Socket) (serverClose bool) {
	for {
		data, err := sock.ReadMessage()
		if err != nil {
			sock.Close()
			return isServerClose(err)
		}
		if c.name == primaryName {
			var frame Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				slog.Warn("Unreadable event frame", "error", err)
				continue
			}
			if frame.Event == "" {
				continue
			}
			m.bus.Publish(frame.Event, frame.Data)
		} else {
			var msg json.RawMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				slog.Warn("Unreadable chat message", "error", err)
				continue
			}
			m.bus.Publish(bus.TopicChatMessage, msg)
		}
	}
}

// SendChat marshals one JSON object onto the chat socket. Failures are also
// published as secondary:error so subscribers can react.
func (m *Manager) SendChat(v any) error {
	m.mu.Lock()
	var sock Socket
	if m.secondary != nil && m.secondary.connected {
		sock = m.secondary.sock
	}
	m.mu.Unlock()

	if sock == nil {
		m.bus.Publish(bus.TopicSecondaryErr, "not connected")
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := sock.WriteMessage(data); err != nil {
		m.bus.Publish(bus.TopicSecondaryErr, err.Error())
		return err
	}
	return nil
}

// PrimaryConnected reports the queue socket state.
func (m *Manager) PrimaryConnected() bool { return m.connState(&m.primary) }

// SecondaryConnected reports the chat socket state.
func (m *Manager) SecondaryConnected() bool { return m.connState(&m.secondary) }

func (m *Manager) connState(slot **conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *slot != nil && (*slot).connected
}

// DisconnectAll tears down both connections and clears the socket
// references. Safe to call when already disconnected.
func (m *Manager) DisconnectAll() {
	type teardown struct {
		stop chan struct{}
		sock Socket
	}

	m.mu.Lock()
	var downs []teardown
	for _, c := range []*conn{m.primary, m.secondary} {
		if c != nil {
			downs = append(downs, teardown{stop: c.stop, sock: c.sock})
		}
	}
	m.primary = nil
	m.secondary = nil
	m.mu.Unlock()

	for _, d := range downs {
		if !isClosed(d.stop) {
			close(d.stop)
		}
		if d.sock != nil {
			d.sock.Close()
		}
	}
}

func isClosed(ch chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
