// internal/domain/catalog/stock_test.go
package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estyshop/ecommerce-backend/internal/cache"
)

func TestDecrementStockGuarded(t *testing.T) {
	env := setupCatalogEnv(t)
	apparel := createCategory(t, env.db, "Apparel")
	shirt := createProduct(t, env.db, apparel, "Linen Shirt", 2000, 3)

	ok, err := DecrementStock(env.db, shirt.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// The second taker finds one unit left and is refused outright.
	ok, err = DecrementStock(env.db, shirt.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	var current Product
	require.NoError(t, env.db.First(&current, shirt.ID).Error)
	assert.Equal(t, 1, current.InStock)
}

func TestRecordMovementDerivesPreviousStock(t *testing.T) {
	env := setupCatalogEnv(t)
	apparel := createCategory(t, env.db, "Apparel")
	shirt := createProduct(t, env.db, apparel, "Linen Shirt", 2000, 10)

	ok, err := DecrementStock(env.db, shirt.ID, 4)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, RecordMovement(env.db, shirt.ID, MovementSale, 4, "ORD-TEST1234"))

	require.NoError(t, RestoreStock(env.db, shirt.ID, 4))
	require.NoError(t, RecordMovement(env.db, shirt.ID, MovementRelease, 4, "ORD-TEST1234"))

	var movements []StockMovement
	require.NoError(t, env.db.Where("product_id = ?", shirt.ID).Order("id ASC").Find(&movements).Error)
	require.Len(t, movements, 2)

	sale := movements[0]
	assert.Equal(t, MovementSale, sale.Type)
	assert.Equal(t, 10, sale.PreviousStock)
	assert.Equal(t, 6, sale.NewStock)
	assert.Equal(t, "ORD-TEST1234", sale.Reference)

	release := movements[1]
	assert.Equal(t, MovementRelease, release.Type)
	assert.Equal(t, 6, release.PreviousStock)
	assert.Equal(t, 10, release.NewStock)
}

func TestRestock(t *testing.T) {
	env := setupCatalogEnv(t)
	apparel := createCategory(t, env.db, "Apparel")
	shirt := createProduct(t, env.db, apparel, "Linen Shirt", 2000, 2)

	// Warm the detail cache so the restock has something to invalidate.
	_, err := env.products.GetProductBySlug(context.Background(), "linen-shirt")
	require.NoError(t, err)
	require.True(t, env.redis.Exists(cache.KeyProductDetail("linen-shirt")))

	updated, err := env.products.Restock(context.Background(), shirt.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.InStock)

	var current Product
	require.NoError(t, env.db.First(&current, shirt.ID).Error)
	assert.Equal(t, 7, current.InStock)

	assert.False(t, env.redis.Exists(cache.KeyProductDetail("linen-shirt")))

	movements, err := env.products.ListMovements(context.Background(), shirt.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, MovementRestock, movements[0].Type)
	assert.Equal(t, 2, movements[0].PreviousStock)
	assert.Equal(t, 7, movements[0].NewStock)
}

func TestRestockRejectsNonPositiveQuantity(t *testing.T) {
	env := setupCatalogEnv(t)
	apparel := createCategory(t, env.db, "Apparel")
	shirt := createProduct(t, env.db, apparel, "Linen Shirt", 2000, 2)

	_, err := env.products.Restock(context.Background(), shirt.ID, 0)
	assert.Error(t, err)

	_, err = env.products.Restock(context.Background(), shirt.ID, -3)
	assert.Error(t, err)

	_, err = env.products.Restock(context.Background(), 999, 5)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListMovementsNewestFirstAndLimited(t *testing.T) {
	env := setupCatalogEnv(t)
	apparel := createCategory(t, env.db, "Apparel")
	shirt := createProduct(t, env.db, apparel, "Linen Shirt", 2000, 0)

	for i := 0; i < 3; i++ {
		_, err := env.products.Restock(context.Background(), shirt.ID, i+1)
		require.NoError(t, err)
	}

	movements, err := env.products.ListMovements(context.Background(), shirt.ID, 2)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	// Same-timestamp rows fall back to id ordering, so the latest restock
	// leads.
	assert.Equal(t, 3, movements[0].Quantity)
	assert.Equal(t, 2, movements[1].Quantity)
}
