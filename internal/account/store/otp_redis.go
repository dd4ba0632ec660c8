package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grocerly/storefront/internal/account"
)

var _ account.OTPStore = (*RedisOTPStore)(nil)

// RedisOTPStore keeps pending one-time codes in Redis under a TTL. The code
// and its failed-attempt counter share the same lifetime, so the counter can
// never outlive the code it guards.
type RedisOTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOTPStore creates an OTP store with the given code lifetime.
func NewRedisOTPStore(client *redis.Client, ttl time.Duration) *RedisOTPStore {
	return &RedisOTPStore{
		client: client,
		ttl:    ttl,
	}
}

// Save stores a fresh code, replacing any pending one and resetting the
// attempt counter.
func (s *RedisOTPStore) Save(ctx context.Context, phone, purpose, code string) error {
	if err := s.client.Set(ctx, otpKey(phone, purpose), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	if err := s.client.Del(ctx, attemptsKey(phone, purpose)).Err(); err != nil {
		return fmt.Errorf("failed to reset otp attempts: %w", err)
	}
	return nil
}

// Get returns the pending code for the phone and purpose.
// Returns account.ErrOTPExpired when no code is pending.
func (s *RedisOTPStore) Get(ctx context.Context, phone, purpose string) (string, error) {
	code, err := s.client.Get(ctx, otpKey(phone, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return "", account.ErrOTPExpired
	}
	if err != nil {
		return "", fmt.Errorf("failed to load otp: %w", err)
	}
	return code, nil
}

// FailedAttempt records a mismatch and returns the running count. The counter
// expires together with the code.
func (s *RedisOTPStore) FailedAttempt(ctx context.Context, phone, purpose string) (int64, error) {
	key := attemptsKey(phone, purpose)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record otp attempt: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return 0, fmt.Errorf("failed to expire otp attempts: %w", err)
	}
	return count, nil
}

// Delete discards a pending code and its attempt counter.
func (s *RedisOTPStore) Delete(ctx context.Context, phone, purpose string) error {
	if err := s.client.Del(ctx, otpKey(phone, purpose), attemptsKey(phone, purpose)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

func otpKey(phone, purpose string) string {
	return "otp:" + purpose + ":" + phone
}

func attemptsKey(phone, purpose string) string {
	return "otpattempts:" + purpose + ":" + phone
}
