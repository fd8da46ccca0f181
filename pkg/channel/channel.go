// Package channel maintains one logical WebSocket session to the AI
// pipeline. The endpoint is resolved through a side channel before each
// dial, unexpected closes trigger bounded exponential-backoff
// reconnection, and all lifecycle transitions are reported through
// callbacks rather than escaping as panics.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State represents the channel connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Resolver supplies the WebSocket URL to dial. It is consulted before
// every dial, including reconnects, so the endpoint can move between
// attempts.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticResolver resolves to a fixed URL.
type StaticResolver string

// Resolve implements Resolver.
func (s StaticResolver) Resolve(context.Context) (string, error) {
	return string(s), nil
}

// MessageHandler receives each raw inbound frame.
type MessageHandler func(data []byte)

// ErrorHandler receives transport and lifecycle errors.
type ErrorHandler func(err error)

// StatusHandler observes state transitions.
type StatusHandler func(state State)

// Reconnection parameters.
const (
	DefaultMaxAttempts  = 5
	DefaultBaseDelay    = 1 * time.Second
	DefaultDelayCeiling = 10 * time.Second
	DefaultDialTimeout  = 10 * time.Second
)

// Channel owns at most one underlying WebSocket transport at a time.
type Channel struct {
	resolver Resolver
	logger   *slog.Logger

	maxAttempts  int
	baseDelay    time.Duration
	delayCeiling time.Duration
	dialTimeout  time.Duration

	mu         sync.RWMutex
	conn       *websocket.Conn
	state      State
	attempts   int
	closed     bool
	cancelRead context.CancelFunc

	onMessage MessageHandler
	onError   ErrorHandler
	onStatus  StatusHandler

	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) { c.logger = logger }
}

// WithMaxAttempts overrides the reconnect attempt bound.
func WithMaxAttempts(n int) Option {
	return func(c *Channel) { c.maxAttempts = n }
}

// WithBackoff overrides the reconnect delay parameters.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(c *Channel) {
		c.baseDelay = base
		c.delayCeiling = ceiling
	}
}

// WithDialTimeout overrides the handshake timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Channel) { c.dialTimeout = d }
}

// WithStatusHandler sets the state transition observer.
func WithStatusHandler(fn StatusHandler) Option {
	return func(c *Channel) { c.onStatus = fn }
}

// New creates a channel that dials endpoints from resolver.
func New(resolver Resolver, opts ...Option) *Channel {
	c := &Channel{
		resolver:     resolver,
		logger:       slog.Default().With("component", "channel"),
		maxAttempts:  DefaultMaxAttempts,
		baseDelay:    DefaultBaseDelay,
		delayCeiling: DefaultDelayCeiling,
		dialTimeout:  DefaultDialTimeout,
		state:        Disconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect resolves the endpoint and opens the transport. It returns once
// the handshake completes, or an error if it fails. The callbacks are
// retained for automatic reconnection.
func (c *Channel) Connect(ctx context.Context, onMessage MessageHandler, onError ErrorHandler) error {
	c.mu.Lock()
	if c.state == Connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.onMessage = onMessage
	c.onError = onError
	c.closed = false
	c.mu.Unlock()

	return c.dial(ctx)
}

// dial performs one resolve+handshake cycle.
func (c *Channel) dial(ctx context.Context) error {
	c.setState(Connecting)

	endpoint, err := c.resolver.Resolve(ctx)
	if err != nil {
		c.setState(Disconnected)
		return NewConnectionError("endpoint lookup failed", err, true)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.dialTimeout,
	}

	c.logger.Info("connecting", "endpoint", endpoint)

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.setState(Disconnected)
		if resp != nil {
			return NewConnectionError(
				fmt.Sprintf("dial failed with status %d", resp.StatusCode),
				err,
				resp.StatusCode >= 500,
			)
		}
		return NewConnectionError("dial failed", err, true)
	}

	readCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.attempts = 0
	c.cancelRead = cancel
	c.mu.Unlock()
	c.setState(Connected)

	go c.readLoop(readCtx, conn)

	c.logger.Info("connected", "endpoint", endpoint)
	return nil
}

// Send serializes the payload to a text frame and writes it. Strings and
// byte slices are sent as-is; anything else is JSON-marshalled. When the
// channel is not open the error is reported and returned — nothing is
// queued.
func (c *Channel) Send(payload any) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state != Connected || conn == nil {
		c.emitError(ErrNotConnected)
		return ErrNotConnected
	}

	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return fmt.Errorf("channel: marshal failed: %w", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return NewConnectionError("send failed", err, true)
	}

	c.messagesSent.Add(1)
	return nil
}

// Disconnect closes the transport and marks reconnection as exhausted,
// so no automatic reconnect follows. Calling it while a reconnect is
// pending cancels that reconnect.
func (c *Channel) Disconnect() error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.attempts = c.maxAttempts
	if c.cancelRead != nil {
		c.cancelRead()
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.setState(Closing)

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		conn.Close()
	}

	c.setState(Closed)
	c.logger.Info("disconnected")
	return nil
}

// IsConnected returns true only when the transport is fully open.
func (c *Channel) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Connected && c.conn != nil
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Attempts returns the reconnect attempts consumed so far.
func (c *Channel) Attempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempts
}

// BackoffDelay returns the wait before reconnect attempt n (0-based):
// the base delay doubled per attempt, bounded by the ceiling.
func (c *Channel) BackoffDelay(attempt int) time.Duration {
	delay := c.baseDelay << attempt
	if delay <= 0 || delay > c.delayCeiling {
		delay = c.delayCeiling
	}
	return delay
}

// readLoop pumps inbound frames until the transport fails or is closed.
func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				// Explicit disconnect already handled state.
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("connection closed by peer")
			} else {
				c.logger.Warn("read error", "error", err)
				c.emitError(NewConnectionError("read failed", err, true))
			}
			c.handleClose()
			return
		}

		c.messagesReceived.Add(1)
		c.emitMessage(data)
	}
}

// handleClose schedules a reconnect after an unexpected close, with
// exponential backoff bounded by maxAttempts.
func (c *Channel) handleClose() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.attempts >= c.maxAttempts {
		c.mu.Unlock()
		c.setState(Closed)
		c.logger.Warn("reconnect attempts exhausted", "attempts", c.maxAttempts)
		c.emitError(ErrReconnectExhausted)
		return
	}

	delay := c.BackoffDelay(c.attempts)
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	c.setState(Disconnected)
	c.logger.Info("scheduling reconnect",
		"attempt", attempt,
		"max_attempts", c.maxAttempts,
		"delay", delay,
	)

	time.AfterFunc(delay, func() {
		c.mu.RLock()
		stop := c.closed || (c.attempts >= c.maxAttempts && c.state == Closed)
		c.mu.RUnlock()
		if stop {
			return
		}
		if err := c.dial(context.Background()); err != nil {
			c.emitError(err)
			// A failed handshake consumes the next attempt.
			c.handleClose()
		}
	})
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	fn := c.onStatus
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (c *Channel) emitMessage(data []byte) {
	c.mu.RLock()
	fn := c.onMessage
	c.mu.RUnlock()
	if fn != nil {
		fn(data)
	}
}

func (c *Channel) emitError(err error) {
	c.mu.RLock()
	fn := c.onError
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
