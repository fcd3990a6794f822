package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients keeps counters and pub/sub subscriptions on separate connections,
// so long-lived SUBSCRIBEs never starve quota lookups.
type RedisClients struct {
	Counters *redis.Client
	PubSub   *redis.Client
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	counters := redis.NewClient(opt)
	if err := counters.Ping(ctx).Err(); err != nil {
		counters.Close()
		return nil, fmt.Errorf("failed to ping Redis (counters): %w", err)
	}

	pubsubOpt := *opt
	pubsub := redis.NewClient(&pubsubOpt)
	if err := pubsub.Ping(ctx).Err(); err != nil {
		counters.Close()
		pubsub.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Counters: counters,
		PubSub:   pubsub,
	}, nil
}

func (r *RedisClients) Close() error {
	err1 := r.Counters.Close()
	err2 := r.PubSub.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
