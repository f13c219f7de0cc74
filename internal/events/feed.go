// Package events carries session lifecycle events between the engine and
// its observers over Redis pub/sub. Delivery is best effort: the feed is an
// observability surface, not a source of truth, so publish failures are
// logged and never fail the message path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/convoflow/engine/pkg/api"
	"github.com/convoflow/engine/pkg/log"
)

type (
	// Publisher is the engine's outbound side of the feed
	Publisher interface {
		Publish(context.Context, *api.SessionEvent)
	}

	// Feed publishes and subscribes session events on one Redis channel
	Feed struct {
		rdb     *redis.Client
		channel string
	}

	// Subscription receives session events until closed
	Subscription struct {
		pubsub *redis.PubSub
		events chan *api.SessionEvent
	}
)

const subscriptionBuffer = 16

var _ Publisher = (*Feed)(nil)

// NewFeed creates a feed on the given Redis channel
func NewFeed(rdb *redis.Client, channel string) *Feed {
	return &Feed{rdb: rdb, channel: channel}
}

// Publish sends a session event to all current subscribers
func (f *Feed) Publish(ctx context.Context, ev *api.SessionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal session event",
			log.SessionID(ev.SessionID),
			log.Error(err))
		return
	}

	if err := f.rdb.Publish(ctx, f.channel, data).Err(); err != nil {
		slog.Error("Failed to publish session event",
			log.SessionID(ev.SessionID),
			log.Error(err))
	}
}

// Subscribe starts receiving session events. The caller must Close the
// subscription when done
func (f *Feed) Subscribe(ctx context.Context) *Subscription {
	pubsub := f.rdb.Subscribe(ctx, f.channel)
	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan *api.SessionEvent, subscriptionBuffer),
	}
	go sub.pump()
	return sub
}

// Receive returns the channel of incoming session events. The channel is
// closed when the subscription closes
func (s *Subscription) Receive() <-chan *api.SessionEvent {
	return s.events
}

// Close stops the subscription and releases its Redis resources
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

func (s *Subscription) pump() {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var ev api.SessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			slog.Error("Failed to decode session event",
				log.Error(err))
			continue
		}
		s.events <- &ev
	}
}
