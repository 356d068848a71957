package modaics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/modaics/modaics-go/internal/transport"
	"github.com/modaics/modaics-go/internal/types"
	"github.com/pkg/errors"
)

// ConnState is the realtime channel's connection state.
type ConnState int

const (
	// StateDisconnected means no connection exists and none is wanted.
	StateDisconnected ConnState = iota

	// StateConnecting means a handshake is in progress.
	StateConnecting

	// StateConnected means the channel is live.
	StateConnected

	// StateFailed means the transport errored; reconnects may be pending.
	StateFailed
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// EventKind tags a realtime event delivered to subscribers.
type EventKind int

const (
	// EventMessage carries a server frame.
	EventMessage EventKind = iota

	// EventError reports a transport failure.
	EventError

	// EventDisconnected reports an explicit disconnect.
	EventDisconnected
)

// Event is delivered to realtime subscribers.
type Event struct {
	Kind    EventKind
	Message *Message
	Err     error
}

// RealtimeOptions configures the realtime channel.
type RealtimeOptions struct {
	// URL is the websocket endpoint.
	URL string

	// Tokens supplies the bearer token attached on dial. Optional.
	Tokens transport.TokenProvider

	// Logger for diagnostics. Optional.
	Logger types.Logger

	// PingInterval is the keepalive cadence. Defaults to 30s.
	PingInterval time.Duration

	// ReconnectBase is the first reconnect delay. Defaults to 1s.
	ReconnectBase time.Duration

	// ReconnectMax caps the reconnect delay. Defaults to 30s.
	ReconnectMax time.Duration

	// MaxReconnectAttempts bounds automatic reconnects before the channel
	// stays failed until an explicit Reconnect. Defaults to 5.
	MaxReconnectAttempts int

	// Dialer overrides the websocket dialer. Test hook.
	Dialer *websocket.Dialer
}

// RealtimeClient maintains a single persistent duplex connection delivering
// push events, with keepalive pings and reconnect-with-backoff on failure.
type RealtimeClient struct {
	url    string
	tokens transport.TokenProvider
	logger types.Logger
	dialer *websocket.Dialer

	pingInterval  time.Duration
	reconnectBase time.Duration
	reconnectMax  time.Duration
	maxReconnects int

	mu                sync.Mutex
	state             ConnState
	failReason        error
	conn              *websocket.Conn
	gen               uint64
	stopKeepalive     chan struct{}
	reconnectTimer    *time.Timer
	reconnectAttempts int
	subscribers       map[uint64]chan Event
	nextSub           uint64
	writeMu           sync.Mutex
}

// NewRealtimeClient creates a realtime channel client. The channel is not
// connected until Connect is called.
func NewRealtimeClient(opts *RealtimeOptions) *RealtimeClient {
	if opts == nil {
		opts = &RealtimeOptions{}
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.ReconnectBase <= 0 {
		opts.ReconnectBase = 1 * time.Second
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30 * time.Second
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = 5
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &RealtimeClient{
		url:           opts.URL,
		tokens:        opts.Tokens,
		logger:        opts.Logger,
		dialer:        dialer,
		pingInterval:  opts.PingInterval,
		reconnectBase: opts.ReconnectBase,
		reconnectMax:  opts.ReconnectMax,
		maxReconnects: opts.MaxReconnectAttempts,
		state:         StateDisconnected,
		subscribers:   make(map[uint64]chan Event),
	}
}

// State returns the current connection state and, when failed, the reason.
func (c *RealtimeClient) State() (ConnState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.failReason
}

// Subscribe registers an event channel. The returned cancel func removes
// the subscription. Slow subscribers drop events rather than blocking the
// receive loop.
func (c *RealtimeClient) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSub++
	id := c.nextSub
	ch := make(chan Event, 64)
	c.subscribers[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Connect opens the channel. It is a no-op when already connecting or
// connected.
func (c *RealtimeClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.failReason = nil
	c.mu.Unlock()

	header := http.Header{}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.fail(errors.Wrap(err, "failed to obtain token"))
			return err
		}
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		wrapped := errors.Wrap(err, "websocket dial failed")
		c.fail(wrapped)
		return wrapped
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnected while the dial was in flight.
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	c.reconnectAttempts = 0
	c.gen++
	gen := c.gen
	c.stopKeepalive = make(chan struct{})
	stop := c.stopKeepalive
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("Realtime channel connected", "url", c.url)
	}

	go c.readLoop(conn, gen)
	go c.keepalive(gen, stop)

	return nil
}

// Reconnect resets the attempt counter and connects again. Used after the
// channel has exhausted automatic reconnects.
func (c *RealtimeClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.reconnectAttempts = 0
	c.state = StateDisconnected
	c.mu.Unlock()

	return c.Connect(ctx)
}

// Disconnect closes the channel, cancels keepalive and reconnect timers,
// and publishes a disconnected event. Idempotent: a second call emits no
// second event.
func (c *RealtimeClient) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}

	c.teardownLocked()
	c.state = StateDisconnected
	c.failReason = nil
	c.reconnectAttempts = 0
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("Realtime channel disconnected")
	}
	c.publish(Event{Kind: EventDisconnected})
}

// Send transmits a message. When not connected it logs and drops the
// message rather than failing the caller.
func (c *RealtimeClient) Send(msg *Message) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	gen := c.gen
	c.mu.Unlock()

	if !connected || conn == nil {
		if c.logger != nil {
			c.logger.Debug("Dropping send: channel not connected", "type", msg.Type)
		}
		return
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = Timestamp{Time: time.Now().UTC()}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("Failed to encode outbound message", "type", msg.Type, "error", err)
		}
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()

	if err != nil {
		c.transportError(gen, errors.Wrap(err, "websocket write failed"))
	}
}

// readLoop receives frames until the connection dies. Incoming pings are
// answered with a pong and not published; everything else is delivered to
// subscribers in arrival order.
func (c *RealtimeClient) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.transportError(gen, errors.Wrap(err, "websocket read failed"))
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if c.logger != nil {
				c.logger.Warn("Dropping unparseable frame", "error", err)
			}
			continue
		}

		if msg.Type == MessagePing {
			c.Send(&Message{Type: MessagePong})
			continue
		}

		c.publish(Event{Kind: EventMessage, Message: &msg})
	}
}

// keepalive sends a ping frame on a fixed cadence until stopped.
func (c *RealtimeClient) keepalive(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			stale := c.gen != gen || c.state != StateConnected
			c.mu.Unlock()
			if stale {
				return
			}
			c.Send(&Message{Type: MessagePing})
		}
	}
}

// transportError handles a read or write failure: transition to failed,
// publish the error, schedule a reconnect with backoff.
func (c *RealtimeClient) transportError(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateConnected {
		// Stale connection or already handled.
		c.mu.Unlock()
		return
	}

	c.teardownLocked()
	c.state = StateFailed
	c.failReason = err
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Error("Realtime transport error", "error", err)
	}
	c.publish(Event{Kind: EventError, Err: err})
	c.scheduleReconnect()
}

// fail records a connect-time failure and schedules a reconnect. An
// explicit Disconnect during the dial wins: the channel stays disconnected.
func (c *RealtimeClient) fail(err error) {
	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = StateFailed
	c.failReason = err
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Error("Realtime connect failed", "error", err)
	}
	c.publish(Event{Kind: EventError, Err: err})
	c.scheduleReconnect()
}

// scheduleReconnect arms a backoff timer unless the attempt budget is
// spent, in which case the channel stays failed until explicit Reconnect.
func (c *RealtimeClient) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateFailed {
		return
	}

	if c.reconnectAttempts >= c.maxReconnects {
		if c.logger != nil {
			c.logger.Warn("Reconnect attempts exhausted", "attempts", c.reconnectAttempts)
		}
		return
	}

	c.reconnectAttempts++
	delay := c.reconnectBase
	for i := 1; i < c.reconnectAttempts; i++ {
		delay *= 2
		if delay >= c.reconnectMax {
			delay = c.reconnectMax
			break
		}
	}

	if c.logger != nil {
		c.logger.Info("Scheduling reconnect", "attempt", c.reconnectAttempts, "delay", delay)
	}

	c.reconnectTimer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), types.DefaultTimeout)
		defer cancel()
		_ = c.Connect(ctx)
	})
}

// teardownLocked closes the connection and stops timers. Caller holds mu.
func (c *RealtimeClient) teardownLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.stopKeepalive != nil {
		close(c.stopKeepalive)
		c.stopKeepalive = nil
	}
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
		c.conn = nil
	}
	c.gen++
}

// publish delivers an event to every subscriber, dropping when a buffer is
// full so one slow consumer cannot stall the channel. Sends happen under mu
// so they cannot race a subscription cancel's close.
func (c *RealtimeClient) publish(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			if c.logger != nil {
				c.logger.Warn("Dropping event for slow subscriber", "kind", ev.Kind)
			}
		}
	}
}

