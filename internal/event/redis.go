package event

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boriskezikov/greenapp.client-provider/internal/config"
)

const (
	defaultMaxAttempts  = 5
	defaultInitialDelay = 100 * time.Millisecond
)

// RedisPublisher publishes domain events to a fixed Redis channel.
// Transient send failures are retried with exponential backoff (doubling from
// the initial delay) up to maxAttempts; exhaustion surfaces ErrBrokerUnavailable.
type RedisPublisher struct {
	rdb     *goredis.Client
	channel string
	log     *zap.Logger

	maxAttempts  uint
	initialDelay time.Duration
	// send is the raw broker call; a seam for tests.
	send func(ctx context.Context, payload []byte) error
}

// NewRedisPublisher connects to the broker and validates connectivity.
func NewRedisPublisher(cfg config.RedisConfig, log *zap.Logger) (*RedisPublisher, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.EventChannel == "" {
		return nil, fmt.Errorf("event channel is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	p := &RedisPublisher{
		rdb:          rdb,
		channel:      cfg.EventChannel,
		log:          log,
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
	}
	p.send = func(ctx context.Context, payload []byte) error {
		return p.rdb.Publish(ctx, p.channel, payload).Err()
	}
	return p, nil
}

var _ Publisher = (*RedisPublisher)(nil)

// Publish serializes the event and sends it to the configured channel,
// retrying transient failures before giving up.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.initialDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2

	op := func() (struct{}, error) {
		return struct{}{}, p.send(ctx, payload)
	}

	if _, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(p.maxAttempts),
	); err != nil {
		p.log.Error("event publish exhausted retries",
			zap.String("event", ev.Name),
			zap.Int64("client_id", ev.ClientID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	p.log.Info("event published",
		zap.String("event", ev.Name),
		zap.Int64("client_id", ev.ClientID),
		zap.String("channel", p.channel),
	)
	return nil
}

// Close releases the broker connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
