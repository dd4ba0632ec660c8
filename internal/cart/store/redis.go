package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grocerly/storefront/internal/cart"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps cart snapshots as JSON blobs under "cart:<session>" with
// the session TTL, and the visibility flag under "cartopen:<session>" with no
// expiry.
type RedisStore struct {
	client     *redis.Client
	sessionTTL time.Duration
}

func NewRedisStore(client *redis.Client, sessionTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		sessionTTL: sessionTTL,
	}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*cart.Snapshot, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrCorrupt, err)
	}
	return &snap, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sessionID), blob, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadOpen(ctx context.Context, sessionID string) (bool, error) {
	raw, err := r.client.Get(ctx, openKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	open, err := strconv.ParseBool(raw)
	if err != nil {
		// A mangled flag is not worth surfacing; treat as closed.
		return false, nil
	}
	return open, nil
}

func (r *RedisStore) SaveOpen(ctx context.Context, sessionID string, open bool) error {
	if err := r.client.Set(ctx, openKey(sessionID), strconv.FormatBool(open), 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

func openKey(sessionID string) string {
	return "cartopen:" + sessionID
}
