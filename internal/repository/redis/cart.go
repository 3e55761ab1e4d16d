package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const keyPrefix = "storefront:cart:"

// CartSnapshotRepository implements repository.CartSnapshotRepository using Redis.
type CartSnapshotRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartSnapshotRepository creates a Redis-backed snapshot repository.
// Snapshots expire after ttl of inactivity.
func NewCartSnapshotRepository(client *redis.Client, ttl time.Duration) *CartSnapshotRepository {
	return &CartSnapshotRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the session's cart snapshot from Redis.
func (r *CartSnapshotRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", sessionID)
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return &cart, nil
}

// Save persists the snapshot with the configured TTL.
func (r *CartSnapshotRepository) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if cart == nil {
		return apperrors.InvalidInput("cart snapshot is required")
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// Delete removes the session's snapshot.
func (r *CartSnapshotRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del cart snapshot: %w", err)
	}
	return nil
}
