package event

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/config"
)

// RedisPublisher fans events out over Redis Pub/Sub: once on the recipient's
// notification channel and once on the shared event channel.
type RedisPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisPublisher returns a publisher using rdb.
func NewRedisPublisher(rdb *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb: rdb,
		log: log.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	pipe := p.rdb.Pipeline()
	if e.UserID != "" {
		pipe.Publish(ctx, config.CacheKey.UserNotificationChannel(e.UserID), body)
	}
	pipe.Publish(ctx, config.CacheKey.EventChannel(string(e.Type)), body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	p.log.Debug().Str("event_type", string(e.Type)).Str("user_id", e.UserID).Msg("Event published")
	return nil
}

func (p *RedisPublisher) Close() error { return nil }
