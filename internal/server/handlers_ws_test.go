package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/broadcast"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/config"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
)

// newTestStack starts the full HTTP surface backed by a real hub and returns
// the test server's ws:// URL for the stream endpoint.
func newTestStack(t *testing.T, cfg *config.Config) (*broadcast.Hub, string) {
	t.Helper()

	hub := broadcast.NewHub(cfg.ChannelName, cfg.MaxWSConnections, clockwork.NewRealClock())
	t.Cleanup(hub.Stop)

	srv := NewServer(cfg, &mockAppService{}, hub, &mockPinger{})
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	return hub, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/comments"
}

func waitForSubscribers(t *testing.T, hub *broadcast.Hub, want int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketSubscriberReceivesPublishedComment(t *testing.T) {
	hub, url := newTestStack(t, testConfig())

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitForSubscribers(t, hub, 1)

	comment := persistedComment("broadcast me", 0.75)
	hub.Publish(comment)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var received domain.Comment
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, comment.ID, received.ID)
	assert.Equal(t, "broadcast me", received.Content)
	assert.InDelta(t, 0.75, received.SentimentScore, 1e-9)
}

func TestWebSocketPerIPLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWSPerIP = 1
	hub, url := newTestStack(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitForSubscribers(t, hub, 1)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocketDisconnectReleasesSlot(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWSPerIP = 1
	hub, url := newTestStack(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	waitForSubscribers(t, hub, 1)

	conn.Close()
	waitForSubscribers(t, hub, 0)

	// The freed slot admits a new subscriber from the same IP.
	require.Eventually(t, func() bool {
		conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return false
		}
		conn2.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWebSocketPlainRequestGetsUpgraderError(t *testing.T) {
	_, url := newTestStack(t, testConfig())

	// A plain GET without upgrade headers fails the handshake. The
	// upgrader writes its own error response; the handler must not let the
	// error middleware write a second body on top of it.
	resp, err := http.Get("http" + strings.TrimPrefix(url, "ws"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"type"`)
}

func TestWebSocketRejectsUnknownOrigin(t *testing.T) {
	_, url := newTestStack(t, testConfig())

	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketAllowsConfiguredOrigin(t *testing.T) {
	hub, url := newTestStack(t, testConfig())

	header := http.Header{"Origin": []string{"http://localhost:5173"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	waitForSubscribers(t, hub, 1)
}
