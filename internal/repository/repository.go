package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// CartSnapshotRepository persists the last settled cart snapshot of a
// shopper session.
type CartSnapshotRepository interface {
	// Get returns the snapshot for the session, or a NotFound error.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save stores the snapshot, replacing any previous one.
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error

	// Delete removes the session's snapshot.
	Delete(ctx context.Context, sessionID string) error
}
