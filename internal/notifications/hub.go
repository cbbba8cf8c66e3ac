package notifications

import (
	"context"
	"errors"
	"sync"

	"geosocial/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Registration errors returned by Hub.Register.
var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
)

// Hub maps userID -> websocket clients and feeds each connected user's Redis
// channel to their clients. A user's subscription lives while they have at least
// one client.
type Hub struct {
	notifier *Notifier

	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int

	// feedMu serializes subscription changes; feeds holds one cancel per subscribed user.
	feedMu sync.Mutex
	feeds  map[uint]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub delivering events published through n.
func NewHub(n *Notifier) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		notifier: n,
		conns:    make(map[uint]map[*Client]struct{}),
		feeds:    make(map[uint]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register a connection for a given userID. Returns the Client or error if limits
// are exceeded or the user's channel cannot be subscribed.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	if err := h.syncFeed(userID); err != nil {
		h.UnregisterClient(client)
		return nil, err
	}
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Repeated calls are no-ops.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	if removed {
		close(client.Send)
	}
	h.mu.Unlock()

	if removed {
		_ = h.syncFeed(client.UserID)
	}
}

// ClientCount returns the number of clients registered for userID.
func (h *Hub) ClientCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Subscribed reports whether the user's channel is currently being fed to the hub.
func (h *Hub) Subscribed(userID uint) bool {
	h.feedMu.Lock()
	defer h.feedMu.Unlock()
	_, ok := h.feeds[userID]
	return ok
}

// syncFeed subscribes the user's channel while they have clients and drops it
// once they have none.
func (h *Hub) syncFeed(userID uint) error {
	h.feedMu.Lock()
	defer h.feedMu.Unlock()

	cancel, subscribed := h.feeds[userID]
	connected := h.ClientCount(userID) > 0

	switch {
	case connected && !subscribed:
		if h.ctx.Err() != nil {
			return errors.New("hub is shut down")
		}
		ctx, cancel := context.WithCancel(h.ctx)
		messages, err := h.notifier.SubscribeUser(ctx, userID)
		if err != nil {
			cancel()
			return err
		}
		h.feeds[userID] = cancel
		go func() {
			for msg := range messages {
				h.Broadcast(userID, msg)
			}
		}()
	case !connected && subscribed:
		cancel()
		delete(h.feeds, userID)
	}
	return nil
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// Shutdown stops every subscription and closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	h.cancel()

	h.feedMu.Lock()
	h.feeds = make(map[uint]context.CancelFunc)
	h.feedMu.Unlock()

	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Debug("websocket close message failed", "user_id", userID, "error", err)
			}
			if err := client.Conn.Close(); err != nil {
				middleware.Logger.Debug("websocket close failed", "user_id", userID, "error", err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	return nil
}
