package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartSnapshotRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartSnapshotRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		ID:            "gid://shopify/Cart/c1",
		CheckoutURL:   "https://shop.example.com/checkouts/c1",
		TotalQuantity: 1,
		Subtotal:      &domain.Money{Amount: "32.0", CurrencyCode: "USD"},
		Lines: []domain.CartLine{
			{ID: "line-1", MerchandiseID: "v-m", Quantity: 1},
		},
		DiscountCodes: []domain.DiscountCode{{Code: "SAVE10", Applicable: true}},
		AppliedGiftCards: []domain.AppliedGiftCard{
			{ID: "gc-1", LastCharacters: "C123", AmountUsed: domain.Money{Amount: "5.0", CurrencyCode: "USD"}},
		},
	}
}

func TestCartSnapshotRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("storefront:cart:sess-1", string(data)))

	got, err := repo.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, cart, got)
}

func TestCartSnapshotRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartSnapshotRepository_Get_CorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("storefront:cart:sess-1", "{not json"))

	_, err := repo.Get(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart snapshot")
}

func TestCartSnapshotRepository_Save_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), "sess-1", sampleCart()))
	assert.True(t, mr.Exists("storefront:cart:sess-1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("storefront:cart:sess-1"))

	mr.FastForward(25 * time.Hour)
	_, err := repo.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartSnapshotRepository_Save_Overwrites(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "sess-1", sampleCart()))
	updated := sampleCart()
	updated.TotalQuantity = 3
	require.NoError(t, repo.Save(ctx, "sess-1", updated))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalQuantity)
}

func TestCartSnapshotRepository_Save_Nil(t *testing.T) {
	repo, _ := setupTestRedis(t)
	err := repo.Save(context.Background(), "sess-1", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartSnapshotRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "sess-1", sampleCart()))
	require.NoError(t, repo.Delete(ctx, "sess-1"))
	assert.False(t, mr.Exists("storefront:cart:sess-1"))

	// Deleting a missing key is not an error.
	assert.NoError(t, repo.Delete(ctx, "sess-1"))
}

func TestCartSnapshotRepository_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
