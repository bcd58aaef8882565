package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"faceblog/internal/middleware"
	"faceblog/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces realtime topics on Redis.
const ChannelPrefix = "faceblog:"

// Notifier publishes events on Redis so every API instance can deliver them
// to its own sockets. Without Redis, or while no subscriber is running on
// this instance, it also delivers straight to the local hub.
type Notifier struct {
	rdb        *redis.Client
	local      *Hub
	subscribed atomic.Bool
}

// NewNotifier creates a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client, local *Hub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// Channel derives the Redis channel name for a topic.
func Channel(topic string) string {
	return ChannelPrefix + topic
}

// Notify publishes event on topic. If the publish fails the event is still
// delivered to this instance's clients and the error is returned for logging.
func (n *Notifier) Notify(ctx context.Context, topic string, event Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if n.rdb == nil {
		n.deliverLocal(topic, frame)
		return nil
	}

	if err := n.rdb.Publish(ctx, Channel(topic), frame).Err(); err != nil {
		observability.NotifyFailures.WithLabelValues(TopicKind(topic)).Inc()
		n.deliverLocal(topic, frame)
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	// Our own subscriber echoes the publish back; without one, deliver here.
	if !n.subscribed.Load() {
		n.deliverLocal(topic, frame)
	}
	observability.WebSocketEvents.WithLabelValues(event.Name, "outbound").Inc()
	return nil
}

// Subscribed reports whether Redis messages are being forwarded to the local hub.
func (n *Notifier) Subscribed() bool {
	return n.subscribed.Load()
}

func (n *Notifier) deliverLocal(topic string, frame []byte) {
	if n.local != nil {
		n.local.Deliver(topic, frame)
	}
}

// StartSubscriber forwards every faceblog:* message into the local hub until
// ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()
	n.subscribed.Store(true)

	go func() {
		defer func() {
			n.subscribed.Store(false)
			_ = sub.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in realtime subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					n.deliverLocal(strings.TrimPrefix(msg.Channel, ChannelPrefix), []byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
