package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gymmate-backend/internal/logger"
)

// Counter increments a key and makes sure it expires.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// PlanSource resolves a user's current plan name.
type PlanSource interface {
	GetPlan(ctx context.Context, userID uuid.UUID) (string, error)
}

// RedisCounter is a Counter backed by INCR plus EXPIRE NX.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type UsageService struct {
	counter Counter
	plans   PlanSource
	now     func() time.Time
}

func NewUsageService(counter Counter, plans PlanSource) *UsageService {
	return &UsageService{counter: counter, plans: plans, now: time.Now}
}

// Usage is the outcome of one Consume call. Remaining is Unlimited for paid plans.
type Usage struct {
	Plan      Plan
	Limit     int
	Used      int64
	Remaining int
}

// Consume counts one use of limit for userID today (UTC) and returns a *QuotaError
// once the plan's daily allowance is spent. Unlimited plans never touch the counter.
func (s *UsageService) Consume(ctx context.Context, userID uuid.UUID, limit Limit) (*Usage, error) {
	plan := PlanFree
	if s.plans != nil {
		name, err := s.plans.GetPlan(ctx, userID)
		if err != nil {
			// A broken plan lookup degrades to the free allowance.
			slog.WarnContext(ctx, "plan lookup failed", "user_id", userID, logger.Err(err))
		} else {
			plan = NormalizePlan(name)
		}
	}

	allowed := DailyLimit(plan, limit)
	if allowed == Unlimited {
		return &Usage{Plan: plan, Limit: Unlimited, Remaining: Unlimited}, nil
	}

	now := s.now().UTC()
	used, err := s.counter.Incr(ctx, usageKey(limit, userID, now), ttlUntilNextDay(now))
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", limit, err)
	}

	u := &Usage{Plan: plan, Limit: allowed, Used: used, Remaining: allowed - int(used)}
	if u.Remaining < 0 {
		u.Remaining = 0
	}
	if used > int64(allowed) {
		return u, &QuotaError{
			Message: fmt.Sprintf("Daily limit of %d reached on the %s plan", allowed, plan),
			Limit:   limit,
		}
	}
	return u, nil
}

func usageKey(limit Limit, userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("usage:%s:%s:%s", limit, userID, day.Format("2006-01-02"))
}

// ttlUntilNextDay keeps the counter a little past midnight so late increments still expire.
func ttlUntilNextDay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now) + time.Hour
}
