package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"cidadeemfoco/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis channel every instance publishes feed events to.
const FeedChannel = "feed:events"

// Notifier publishes feed events. With Redis every instance's hub receives the event
// through its subscriber; without Redis the event goes straight to the local hub.
type Notifier struct {
	rdb *redis.Client
	hub *Hub
}

// NewNotifier creates a Notifier. Either argument may be nil.
func NewNotifier(rdb *redis.Client, hub *Hub) *Notifier {
	return &Notifier{rdb: rdb, hub: hub}
}

// Publish encodes and fans out event.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	message, err := event.Encode()
	if err != nil {
		return err
	}

	if n.rdb != nil {
		err := n.rdb.Publish(ctx, FeedChannel, message).Err()
		if err == nil {
			return nil
		}
		middleware.Logger.WarnContext(ctx, "feed publish via redis failed, delivering locally",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
	}

	if n.hub != nil {
		n.hub.Deliver(event.Type, message)
	}
	return nil
}

// StartSubscriber subscribes to FeedChannel and calls onMessage with the event type and raw
// payload of each message until ctx is done. It is a no-op without Redis.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(eventType, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	// Wait for the subscription so events published right after startup are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
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
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					var envelope struct {
						Type string `json:"type"`
					}
					if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil || envelope.Type == "" {
						middleware.Logger.Warn("dropping malformed feed message", slog.String("channel", msg.Channel))
						return
					}
					onMessage(envelope.Type, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
