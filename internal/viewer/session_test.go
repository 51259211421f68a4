package viewer

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamServer is a minimal websocket endpoint that tracks how many
// subscriptions are live and hands accepted connections to the test.
type streamServer struct {
	srv    *httptest.Server
	active atomic.Int64
	total  atomic.Int64
	conns  chan *websocket.Conn
}

func newStreamServer(t *testing.T) *streamServer {
	t.Helper()

	s := &streamServer{conns: make(chan *websocket.Conn, 8)}
	upgrader := websocket.Upgrader{}

	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		s.active.Add(1)
		s.total.Add(1)
		s.conns <- conn

		defer func() {
			s.active.Add(-1)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)

	return s
}

func (s *streamServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *streamServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription")
		return nil
	}
}

func testSession(t *testing.T, url string) (*Session, *Display) {
	t.Helper()

	display := NewDisplay(WithRand(rand.New(rand.NewSource(1))))
	session := NewSession(url, display)
	t.Cleanup(session.Close)

	return session, display
}

func TestSessionReceivesPublishedComments(t *testing.T) {
	server := newStreamServer(t)
	session, display := testSession(t, server.url())

	require.NoError(t, session.Connect(context.Background()))
	assert.Equal(t, StateConnected, session.State())

	conn := server.accept(t)
	comment := testComment("streamed", 0.8)
	require.NoError(t, conn.WriteJSON(comment))

	assert.Eventually(t, func() bool {
		return display.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	visible := display.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, comment.ID, visible[0].Comment.ID)
	assert.Equal(t, "streamed", visible[0].Comment.Content)
	assert.InDelta(t, 0.8, visible[0].Comment.SentimentScore, 1e-9)
}

func TestSessionReconnectKeepsSingleSubscription(t *testing.T) {
	server := newStreamServer(t)
	session, _ := testSession(t, server.url())

	require.NoError(t, session.Connect(context.Background()))
	require.NoError(t, session.Connect(context.Background()))
	require.NoError(t, session.Connect(context.Background()))

	assert.Eventually(t, func() bool {
		return server.total.Load() == 3 && server.active.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "old transports must be torn down")
	assert.Equal(t, StateConnected, session.State())
}

func TestSessionDialFailureLeavesDisconnected(t *testing.T) {
	server := newStreamServer(t)
	url := server.url()
	server.srv.Close()

	session, _ := testSession(t, url)

	err := session.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, session.State())
}

func TestSessionSkipsMalformedFrames(t *testing.T) {
	server := newStreamServer(t)
	session, display := testSession(t, server.url())

	require.NoError(t, session.Connect(context.Background()))
	conn := server.accept(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(testComment("valid", 0.5)))

	assert.Eventually(t, func() bool {
		return display.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionDetectsRemoteClose(t *testing.T) {
	server := newStreamServer(t)
	session, _ := testSession(t, server.url())

	require.NoError(t, session.Connect(context.Background()))
	conn := server.accept(t)

	require.NoError(t, conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "restarting"),
		time.Now().Add(time.Second)))
	conn.Close()

	assert.Eventually(t, func() bool {
		return session.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionCloseTearsDownDisplay(t *testing.T) {
	server := newStreamServer(t)

	clock := clockwork.NewFakeClock()
	display := NewDisplay(WithClock(clock), WithRand(rand.New(rand.NewSource(1))))
	session := NewSession(server.url(), display)

	require.NoError(t, session.Connect(context.Background()))
	conn := server.accept(t)
	require.NoError(t, conn.WriteJSON(testComment("gone soon", 0.5)))

	assert.Eventually(t, func() bool {
		return display.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	session.Close()
	session.Close()

	assert.Equal(t, StateDisconnected, session.State())
	assert.Equal(t, 0, display.Count())

	clock.Advance(time.Minute)
	assert.Equal(t, 0, display.Count())

	assert.ErrorIs(t, session.Connect(context.Background()), ErrSessionClosed)

	assert.Eventually(t, func() bool {
		return server.active.Load() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
}
