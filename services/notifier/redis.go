package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"sjsage522/projectwatcher/internal/store"
	"sjsage522/projectwatcher/logger"
	"sjsage522/projectwatcher/pkg/errors"
)

// RedisNotifier appends new projects to a Redis stream capped at a maximum length,
// so other tools can follow the alerts.
type RedisNotifier struct {
	client          *redis.Client
	stream          string
	streamMaxLength int64
	timeout         time.Duration
	log             *logger.Logger
}

// Ensure RedisNotifier implements Notifier
var _ Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier creates a new Redis stream notifier
func NewRedisNotifier(addr string, db int, stream string, streamMaxLength int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisNotifier{
		client:          client,
		stream:          stream,
		streamMaxLength: int64(streamMaxLength),
		timeout:         5 * time.Second,
		log:             logger.ForNotifier().WithField("sink", "redis"),
	}
}

// Ping checks that the server is reachable
func (p *RedisNotifier) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish adds rec to the stream, trimming it to the configured length
func (p *RedisNotifier) Publish(ctx context.Context, rec store.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.NewNotifier("redis", "encoding project", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.streamMaxLength,
		Approx: true,
		Values: map[string]interface{}{
			"project": payload,
		},
	}).Err()
	if err != nil {
		return errors.NewNotifier("redis", "publishing to "+p.stream, err)
	}
	return nil
}

// Notify publishes rec and logs any failure
func (p *RedisNotifier) Notify(ctx context.Context, rec store.Record) {
	if err := p.Publish(ctx, rec); err != nil {
		p.log.Warn().Err(err).Str("url", rec.URL).Msg("Failed to publish alert")
	}
}

// Close closes the Redis connection
func (p *RedisNotifier) Close() error {
	return p.client.Close()
}
