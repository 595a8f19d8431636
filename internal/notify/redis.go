package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marksapp/marks/internal/logger"
)

const channelPrefix = "marks:events:"

// DialOptions configures the Redis connection for the redis notifier backend.
type DialOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// Dial connects to Redis with a short ping-retry loop so a server restart
// racing a Redis restart doesn't take the whole process down.
func Dial(ctx context.Context, opts DialOptions, log logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	wait := time.Second
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("connected to redis", logger.String("addr", opts.Addr))
			return client, nil
		}
		if attempt >= 5 {
			return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		}
		log.Warn("redis connection failed, retrying",
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

// RedisBroker fans events out through Redis pub/sub, one channel per owner,
// so every marks instance sees every change regardless of which instance
// performed the write.
type RedisBroker struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisBroker(client *redis.Client, log logger.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func ownerChannel(ownerID string) string { return channelPrefix + ownerID }

func (b *RedisBroker) Publish(ctx context.Context, ownerID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, ownerChannel(ownerID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

type redisSub struct {
	pubsub *redis.PubSub
	ch     chan Event
	once   sync.Once
}

func (s *redisSub) Events() <-chan Event { return s.ch }

func (s *redisSub) Close() {
	s.once.Do(func() {
		// Closing the PubSub ends its message channel, which ends the
		// decode goroutine, which closes s.ch.
		_ = s.pubsub.Close()
	})
}

func (b *RedisBroker) Subscribe(ctx context.Context, ownerID string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, ownerChannel(ownerID))
	// Force the SUBSCRIBE round-trip so a dead Redis fails here, not silently.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ownerChannel(ownerID), err)
	}

	sub := &redisSub{pubsub: pubsub, ch: make(chan Event, subscriberBuffer)}
	go func() {
		defer close(sub.ch)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				// Malformed payloads are ignored, not fatal.
				b.log.Warn("notify: malformed event payload",
					logger.String("channel", msg.Channel),
					logger.Error(err))
				continue
			}
			sub.ch <- ev
		}
	}()
	return sub, nil
}
