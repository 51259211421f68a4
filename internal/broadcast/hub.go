package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdPublish struct {
	data []byte
}

func (cmdPublish) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// Hub fans published comments out to all registered subscribers of the
// comments topic.
type Hub struct {
	topic      string
	cmdCh      chan hubCmd
	clients    map[*websocket.Conn]*clientWriter
	clock      clockwork.Clock
	maxClients int
	done       chan struct{}
}

// NewHub creates a hub for the named topic and starts its actor goroutine.
// maxClients caps concurrent subscribers (prevents resource exhaustion).
func NewHub(topic string, maxClients int, clock clockwork.Clock) *Hub {
	h := &Hub{
		topic:      topic,
		cmdCh:      make(chan hubCmd, 256),
		clients:    make(map[*websocket.Conn]*clientWriter),
		clock:      clock,
		maxClients: maxClients,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdPublish:
			h.handlePublish(c.data)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting subscriber: max clients reached", "topic", h.topic, "max_clients", h.maxClients)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients (%d) reached", h.maxClients)
		return
	}

	h.clients[c.conn] = newClientWriter(c.conn, h.clock)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Subscriber registered", "topic", h.topic, "total_clients", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Subscriber unregistered", "topic", h.topic, "remaining_clients", len(h.clients))
}

func (h *Hub) handlePublish(data []byte) {
	metrics.HubPublishesTotal.Inc()

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- data:
		default:
			slow = append(slow, conn)
		}
	}

	// A subscriber whose buffer is full is dropped, not waited for: its
	// delivery is simply lost, and the disconnect lets it reconnect fresh.
	for _, conn := range slow {
		slog.Warn("Disconnecting slow subscriber", "topic", h.topic)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "topic", h.topic, "clients", len(h.clients))
	for conn, cw := range h.clients {
		cw.stopGraceful("Server shutting down")
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}

// --- Public API ---

// Register adds a subscriber to the topic. The subscriber receives every
// comment published after registration completes and nothing published
// before it.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a subscriber from the topic.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// Publish delivers a comment to every currently registered subscriber.
// Delivery to each subscriber is independent; per-subscriber ordering
// matches publish order. There is no acknowledgment and no retry.
func (h *Hub) Publish(comment *domain.Comment) {
	data, err := json.Marshal(comment)
	if err != nil {
		slog.Error("Failed to marshal comment for broadcast", "error", err, "comment_id", comment.ID.String())
		return
	}
	h.cmdCh <- cmdPublish{data: data}
}

// ClientCount returns the number of registered subscribers.
// Returns -1 if the command times out.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all subscriber connections.
// Blocks until the hub goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- cmdStop{}:
	case <-h.done:
		return
	}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully", "topic", h.topic)
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
	}
}
