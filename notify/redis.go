package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/logger"
)

// DefaultChannel is the Redis channel changes are published on when none is configured.
const DefaultChannel = "switchyard:changes"

const publishTimeout = 2 * time.Second

var _ Registrar = new(RedisBroadcaster)

// A RedisBroadcaster shares changes between processes through a Redis channel.
//
// NotifyChange tells the local Resolver right away and publishes the change.
// Listen relays changes published by other processes to the local Resolver.
// Observers register through the RedisBroadcaster as they would with the local Resolver.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	local   *Resolver
	l       logger.Logger
	origin  uuid.UUID
}

type message struct {
	Origin uuid.UUID      `json:"origin"`
	URI    switchyard.URI `json:"uri"`
}

// NewRedisBroadcaster constructs a *RedisBroadcaster publishing to channel through client
// and delivering to local.
func NewRedisBroadcaster(client *redis.Client, channel string, local *Resolver, l logger.Logger) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}

	if local == nil {
		local = NewResolver()
	}

	if l == nil {
		l = logger.New()
	}

	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		local:   local,
		l:       l,
		origin:  uuid.New(),
	}
}

// Register adds obs to the local Resolver.
func (b *RedisBroadcaster) Register(uri switchyard.URI, descendants bool, obs Observer) uuid.UUID {
	return b.local.Register(uri, descendants, obs)
}

// Unregister removes obs from the local Resolver.
func (b *RedisBroadcaster) Unregister(id uuid.UUID) bool { return b.local.Unregister(id) }

// NotifyChange tells the local Resolver of the change to uri and publishes it.
// Failing to publish is logged, not returned.
func (b *RedisBroadcaster) NotifyChange(uri switchyard.URI) {
	b.local.NotifyChange(uri)

	payload, err := json.Marshal(message{Origin: b.origin, URI: uri})
	if err != nil {
		b.l.Error("failed encoding change", &logger.LogContext{Error: err, URI: uri})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.l.Error("failed publishing change", &logger.LogContext{Error: err, URI: uri})
	}
}

// Listen relays changes other processes publish to the local Resolver until ctx is done.
func (b *RedisBroadcaster) Listen(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("%w: subscribing to %s: %s", switchyard.ErrUnexpected, b.channel, err)
	}

	b.l.Info("listening for changes", &logger.LogContext{Data: map[string]any{"channel": b.channel}})

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBroadcaster) relay(payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		b.l.Warn("dropping malformed change", &logger.LogContext{Error: err, Data: map[string]any{"payload": payload}})
		return
	}

	if m.Origin == b.origin {
		return
	}

	b.local.NotifyChange(m.URI)
}
