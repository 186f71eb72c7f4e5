package keypad

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/bhkiosk/internal/keyboard"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) HandleKeypad(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingSink) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func dial(t *testing.T, server *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/keypad"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	var hello Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, TypeHello, hello.Type)
	_, err = uuid.Parse(hello.Session)
	require.NoError(t, err, "session id should be a uuid")

	return conn, hello.Session
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Message {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	var reply Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestKeypad_ForwardsEvents(t *testing.T) {
	sink := &recordingSink{}
	srv := New(Config{}, sink)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	conn, session := dial(t, server)

	assert.Equal(t, TypeAck, roundTrip(t, conn, `{"type":"focus","field":"ownerfirstname"}`).Type)
	assert.Equal(t, TypeAck, roundTrip(t, conn, `{"type":"key","key":"J"}`).Type)
	assert.Equal(t, TypeAck, roundTrip(t, conn, `{"type":"key","key":"Backspace"}`).Type)
	assert.Equal(t, TypeAck, roundTrip(t, conn, `{"type":"close"}`).Type)

	events := sink.all()
	require.Len(t, events, 4)
	assert.Equal(t, Event{SessionID: session, Type: TypeFocus, Field: "ownerfirstname"}, events[0])
	assert.Equal(t, keyboard.Char('J'), events[1].Key)
	assert.Equal(t, keyboard.KeyDelete, events[2].Key.Type)
	assert.Equal(t, TypeClose, events[3].Type)
}

func TestKeypad_RejectsBadMessages(t *testing.T) {
	sink := &recordingSink{}
	server := httptest.NewServer(New(Config{}, sink).Handler())
	defer server.Close()

	conn, _ := dial(t, server)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"not json", `hello`, "invalid message"},
		{"unknown type", `{"type":"dance"}`, `unknown message type "dance"`},
		{"unknown key", `{"type":"key","key":"F13"}`, `unknown key "F13"`},
		{"focus without field", `{"type":"focus"}`, "focus message without field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := roundTrip(t, conn, tt.msg)
			assert.Equal(t, TypeError, reply.Type)
			assert.Contains(t, reply.Error, tt.want)
		})
	}
	assert.Empty(t, sink.all())
}

func TestKeypad_SinkErrorKeepsSession(t *testing.T) {
	sink := &recordingSink{err: errors.New("no field is focused")}
	server := httptest.NewServer(New(Config{}, sink).Handler())
	defer server.Close()

	conn, _ := dial(t, server)

	reply := roundTrip(t, conn, `{"type":"key","key":"a"}`)
	assert.Equal(t, Message{Type: TypeError, Error: "no field is focused"}, reply)

	reply = roundTrip(t, conn, `{"type":"close"}`)
	assert.Equal(t, TypeError, reply.Type, "session still answers after a sink error")
}

func TestKeypad_Health(t *testing.T) {
	srv := New(Config{}, nil)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])

	post, err := http.Post(server.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	_ = post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestKeypad_ShutdownClosesSessions(t *testing.T) {
	srv := New(Config{}, &recordingSink{})
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	conn, _ := dial(t, server)
	assert.Eventually(t, func() bool { return srv.ActiveSessions() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return srv.ActiveSessions() == 0 }, time.Second, 10*time.Millisecond)
}

func TestKeypad_RefusesSessionsAfterShutdown(t *testing.T) {
	srv := New(Config{}, &recordingSink{})
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/keypad"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		_ = conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Zero(t, srv.ActiveSessions())
}

func TestKeypad_ShutdownWaitsForConcurrentConnects(t *testing.T) {
	srv := New(Config{}, &recordingSink{})
	server := httptest.NewServer(srv.Handler())
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/keypad"

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if err == nil {
				_ = conn.Close()
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	wg.Wait()

	assert.Eventually(t, func() bool { return srv.ActiveSessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestKeypad_StartAndCancel(t *testing.T) {
	srv := New(Config{Listen: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestParseMessage_SpaceKey(t *testing.T) {
	ev, err := ParseMessage("s1", []byte(`{"type":"key","key":"Space"}`))
	require.NoError(t, err)
	assert.Equal(t, keyboard.Char(' '), ev.Key)
	assert.Equal(t, "s1", ev.SessionID)
}
