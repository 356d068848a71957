package modaics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWSServer(t *testing.T, handler func(conn *websocket.Conn)) (srv *httptest.Server, url string) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func writeFrame(conn *websocket.Conn, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func TestRealtimeClient_DeliversMessagesInOrder(t *testing.T) {
	_, url := newWSServer(t, func(conn *websocket.Conn) {
		_ = writeFrame(conn, &Message{Type: MessageNewPost, Payload: MessagePayload{PostID: "post-1"}})
		_ = writeFrame(conn, &Message{Type: MessagePollUpdate, Payload: MessagePayload{PostID: "post-1"}})
		time.Sleep(time.Second)
	})

	client := NewRealtimeClient(&RealtimeOptions{URL: url})
	events, cancel := client.Subscribe()
	defer cancel()

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	first := waitEvent(t, events)
	require.Equal(t, EventMessage, first.Kind)
	assert.Equal(t, MessageNewPost, first.Message.Type)
	assert.Equal(t, "post-1", first.Message.Payload.PostID)

	second := waitEvent(t, events)
	require.Equal(t, EventMessage, second.Kind)
	assert.Equal(t, MessagePollUpdate, second.Message.Type)
}

func TestRealtimeClient_PingAnsweredNotPublished(t *testing.T) {
	gotPong := make(chan *Message, 1)

	_, url := newWSServer(t, func(conn *websocket.Conn) {
		_ = writeFrame(conn, &Message{Type: MessagePing})

		// The ping reply comes back before anything else is sent.
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		gotPong <- &msg

		_ = writeFrame(conn, &Message{Type: MessageNewPost})
		time.Sleep(time.Second)
	})

	client := NewRealtimeClient(&RealtimeOptions{URL: url})
	events, cancel := client.Subscribe()
	defer cancel()

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	select {
	case pong := <-gotPong:
		assert.Equal(t, MessagePong, pong.Type)
		assert.NotEmpty(t, pong.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received a pong")
	}

	// Only the post reaches subscribers; the ping frame is swallowed.
	ev := waitEvent(t, events)
	require.Equal(t, EventMessage, ev.Kind)
	assert.Equal(t, MessageNewPost, ev.Message.Type)
}

func TestRealtimeClient_Keepalive(t *testing.T) {
	pings := make(chan struct{}, 8)

	_, url := newWSServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg Message
			if json.Unmarshal(data, &msg) == nil && msg.Type == MessagePing {
				pings <- struct{}{}
			}
		}
	})

	client := NewRealtimeClient(&RealtimeOptions{URL: url, PingInterval: 20 * time.Millisecond})
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	for i := 0; i < 2; i++ {
		select {
		case <-pings:
		case <-time.After(2 * time.Second):
			t.Fatal("keepalive ping never arrived")
		}
	}
}

func TestRealtimeClient_SendsBearerToken(t *testing.T) {
	var gotAuth atomic.Value

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(time.Second)
	}))
	t.Cleanup(srv.Close)

	client := NewRealtimeClient(&RealtimeOptions{
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		Tokens: tokenFunc(func(context.Context) (string, error) { return "ws-token", nil }),
	})
	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	assert.Equal(t, "Bearer ws-token", gotAuth.Load())
}

func TestRealtimeClient_DisconnectIdempotent(t *testing.T) {
	_, url := newWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client := NewRealtimeClient(&RealtimeOptions{URL: url})
	events, cancel := client.Subscribe()
	defer cancel()

	require.NoError(t, client.Connect(context.Background()))

	client.Disconnect()
	client.Disconnect()

	ev := waitEvent(t, events)
	assert.Equal(t, EventDisconnected, ev.Kind)

	select {
	case extra := <-events:
		t.Fatalf("unexpected second event: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}

	state, reason := client.State()
	assert.Equal(t, StateDisconnected, state)
	assert.NoError(t, reason)
}

func TestRealtimeClient_DisconnectDuringDialWins(t *testing.T) {
	// The handshake stalls long enough for Disconnect to land mid-dial,
	// then gets rejected.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewRealtimeClient(&RealtimeOptions{
		URL:           "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReconnectBase: 5 * time.Millisecond,
		ReconnectMax:  20 * time.Millisecond,
	})
	events, cancel := client.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = client.Connect(context.Background())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	client.Disconnect()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dial never returned")
	}

	ev := waitEvent(t, events)
	assert.Equal(t, EventDisconnected, ev.Kind)

	// The failed dial must not resurrect the channel or start redialing.
	select {
	case extra := <-events:
		t.Fatalf("unexpected event after disconnect: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}

	state, reason := client.State()
	assert.Equal(t, StateDisconnected, state)
	assert.NoError(t, reason)
}

func TestRealtimeClient_ReconnectsAfterDrop(t *testing.T) {
	var upgrades atomic.Int32

	_, url := newWSServer(t, func(conn *websocket.Conn) {
		n := upgrades.Add(1)
		if n == 1 {
			// First connection dies immediately; the client should come back.
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client := NewRealtimeClient(&RealtimeOptions{
		URL:           url,
		ReconnectBase: 5 * time.Millisecond,
		ReconnectMax:  20 * time.Millisecond,
	})
	events, cancel := client.Subscribe()
	defer cancel()

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	ev := waitEvent(t, events)
	assert.Equal(t, EventError, ev.Kind)
	assert.Error(t, ev.Err)

	require.Eventually(t, func() bool {
		state, _ := client.State()
		return state == StateConnected
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, upgrades.Load(), int32(2))
}

func TestRealtimeClient_ReconnectAttemptsExhausted(t *testing.T) {
	// Nothing listens here; every dial fails fast.
	client := NewRealtimeClient(&RealtimeOptions{
		URL:                  "ws://127.0.0.1:1",
		ReconnectBase:        5 * time.Millisecond,
		ReconnectMax:         20 * time.Millisecond,
		MaxReconnectAttempts: 2,
	})
	events, cancel := client.Subscribe()
	defer cancel()

	assert.Error(t, client.Connect(context.Background()))

	// Initial failure plus two automatic retries.
	for i := 0; i < 3; i++ {
		ev := waitEvent(t, events)
		assert.Equal(t, EventError, ev.Kind)
	}

	select {
	case extra := <-events:
		t.Fatalf("unexpected event after attempts exhausted: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}

	state, reason := client.State()
	assert.Equal(t, StateFailed, state)
	assert.Error(t, reason)
}

func TestRealtimeClient_SendDroppedWhenDisconnected(t *testing.T) {
	client := NewRealtimeClient(&RealtimeOptions{URL: "ws://127.0.0.1:1"})

	// Must not panic or block.
	client.Send(&Message{Type: MessageNotification})

	state, _ := client.State()
	assert.Equal(t, StateDisconnected, state)
}

// tokenFunc adapts a func to the transport.TokenProvider interface.
type tokenFunc func(ctx context.Context) (string, error)

func (f tokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }
