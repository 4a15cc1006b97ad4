package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
)

// LoginAttemptRepository counts failed sign-ins per email in Redis.
// Counters expire a fixed window after the first failure.
type LoginAttemptRepository struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewLoginAttemptRepository(client *redis.Client, maxAttempts int, window time.Duration) *LoginAttemptRepository {
	return &LoginAttemptRepository{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func attemptKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", strings.ToLower(email))
}

// Allow reports whether another sign-in attempt is permitted for email.
func (r *LoginAttemptRepository) Allow(ctx context.Context, email string) (bool, error) {
	key := attemptKey(email)
	n, err := r.client.Get(ctx, key).Int64()
	logger.Log.Debugw("redis get", "key", key, "result", n, "error", err)

	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < r.maxAttempts, nil
}

// RegisterFailure increments the failure counter, starting the window on the first failure.
func (r *LoginAttemptRepository) RegisterFailure(ctx context.Context, email string) error {
	key := attemptKey(email)
	n, err := r.client.Incr(ctx, key).Result()
	logger.Log.Debugw("redis incr", "key", key, "result", n, "error", err)
	if err != nil {
		return err
	}
	if n == 1 {
		return r.client.Expire(ctx, key, r.window).Err()
	}
	return nil
}

// Reset clears the failure counter.
func (r *LoginAttemptRepository) Reset(ctx context.Context, email string) error {
	key := attemptKey(email)
	err := r.client.Del(ctx, key).Err()
	logger.Log.Debugw("redis del", "key", key, "error", err)
	return err
}
