// Package notifications publishes per-user events over Redis pub/sub and pushes
// them to connected websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"

	"geosocial/internal/middleware"
	"geosocial/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event type constants prevent typos in event names.
const (
	EventFriendRequestReceived  = "friend_request_received"
	EventFriendRequestAccepted  = "friend_request_accepted"
	EventFriendRequestDeclined  = "friend_request_declined"
	EventFriendRequestCancelled = "friend_request_cancelled"
	EventFriendRemoved          = "friend_removed"
	EventCommentCreated         = "comment_created"
	EventPostLiked              = "post_liked"
)

// Event is the JSON envelope delivered on a user channel.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishEvent wraps payload in an Event envelope and publishes it to the user.
func (n *Notifier) PublishEvent(ctx context.Context, userID uint, eventType string, payload map[string]interface{}) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if err := n.PublishUser(ctx, userID, string(data)); err != nil {
		return err
	}
	observability.EventsPublished.WithLabelValues(eventType).Inc()
	return nil
}

// SubscribeUser streams payloads published to the user's channel until ctx is done.
// The returned channel is closed when the subscription ends.
func (n *Notifier) SubscribeUser(ctx context.Context, userID uint) (<-chan string, error) {
	out := make(chan string, 16)
	if n == nil || n.rdb == nil {
		close(out)
		return out, nil
	}

	sub := n.rdb.Subscribe(ctx, UserChannel(userID))
	// Wait for the subscription confirmation so publishes right after this call are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe user %d: %w", userID, err)
	}
	ch := sub.Channel()

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		defer func() {
			if r := recover(); r != nil {
				middleware.Logger.Error("panic in user subscriber",
					"user_id", userID, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
