package scoreboard

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

type broadcastTarget interface {
	Broadcast(msg ws.Message) error
}

// Broadcaster listens for Redis Pub/Sub scoreboard updates and forwards them
// to every WebSocket client.
type Broadcaster struct {
	redis   *redis.Client
	hub     broadcastTarget
	channel string
	logger  zerolog.Logger
	ready   chan struct{}
}

func NewBroadcaster(redis *redis.Client, hub broadcastTarget, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = "scoreboard:updates"
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "scoreboard_broadcaster").Logger(),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the subscription is confirmed.
func (b *Broadcaster) Ready() <-chan struct{} { return b.ready }

// Run subscribes to the update channel and blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Error().Err(err).Str("channel", b.channel).Msg("subscribe failed")
		return err
	}
	close(b.ready)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt ws.ScoreboardUpdatePayload
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode scoreboard update payload")
		return
	}

	msg, err := ws.NewMessage(ws.TypeScoreboardUpdate, evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal scoreboard WS payload")
		return
	}
	if err := b.hub.Broadcast(msg); err != nil {
		b.logger.Warn().Err(err).Msg("failed to broadcast scoreboard update")
	}
}
