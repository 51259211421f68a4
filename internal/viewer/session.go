package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
)

// State describes the session's connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const sessionDialTimeout = 10 * time.Second

// ErrSessionClosed is returned by Connect after Close has been called.
var ErrSessionClosed = errors.New("viewer: session closed")

// Session subscribes to the comment stream over a websocket and feeds every
// received comment into a Display. A session holds at most one transport at a
// time: Connect tears down any existing connection before dialing a new one,
// so repeated connects never stack subscriptions.
type Session struct {
	url     string
	dialer  *websocket.Dialer
	display *Display

	mu     sync.Mutex
	conn   *websocket.Conn
	state  State
	wg     sync.WaitGroup
	closed bool
}

// NewSession creates a session for the given websocket URL. The session does
// not connect until Connect is called.
func NewSession(url string, display *Display) *Session {
	return &Session{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: sessionDialTimeout,
		},
		display: display,
		state:   StateDisconnected,
	}
}

// Connect establishes the subscription. Any previous connection is closed
// first and its read loop drained, so after Connect returns there is exactly
// one live transport. On dial failure the session is left disconnected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.disconnectLocked()

	// disconnectLocked releases the lock while draining the old read loop,
	// so Close may have run in the meantime.
	if s.closed {
		return ErrSessionClosed
	}

	s.state = StateConnecting
	slog.Info("connecting to comment stream", "url", s.url)

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.state = StateDisconnected
		slog.Error("comment stream dial failed", "url", s.url, "error", err)
		return err
	}

	s.conn = conn
	s.state = StateConnected
	slog.Info("connected to comment stream", "url", s.url)

	s.wg.Add(1)
	go s.readLoop(conn)

	return nil
}

// State reports the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Close disconnects the transport and tears down the display, cancelling all
// pending removal timers. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.disconnectLocked()
	s.mu.Unlock()

	s.display.Close()
}

// disconnectLocked closes the current transport, if any, and waits for its
// read loop to exit. Callers must hold s.mu.
func (s *Session) disconnectLocked() {
	if s.conn == nil {
		return
	}

	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = conn.Close()

	s.mu.Unlock()
	s.wg.Wait()
	s.mu.Lock()
}

func (s *Session) readLoop(conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.markDisconnected(conn, err)
			return
		}

		var comment domain.Comment
		if err := json.Unmarshal(data, &comment); err != nil {
			slog.Warn("discarding malformed comment frame", "error", err)
			continue
		}

		s.display.Ingest(comment)
	}
}

// markDisconnected records the loss of the transport, unless the session has
// already moved on to a newer connection.
func (s *Session) markDisconnected(conn *websocket.Conn, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != conn {
		return
	}

	s.conn = nil
	s.state = StateDisconnected

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Info("comment stream closed")
	} else {
		slog.Warn("comment stream read failed", "error", err)
	}
}
