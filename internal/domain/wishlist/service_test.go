// internal/domain/wishlist/service_test.go
package wishlist

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&catalog.Category{},
		&catalog.Brand{},
		&catalog.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&Item{},
	)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	carts := cart.NewService(db, &config.Config{})
	return NewService(db, carts), db
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *catalog.Product {
	t.Helper()

	var category catalog.Category
	err := db.Where(catalog.Category{Slug: "apparel"}).
		FirstOrCreate(&category, catalog.Category{Name: "Apparel", Slug: "apparel"}).Error
	require.NoError(t, err)

	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	product := &catalog.Product{
		SKU:        "SKU-" + slug,
		Name:       name,
		Slug:       slug,
		Price:      price,
		InStock:    stock,
		Available:  true,
		CategoryID: category.ID,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestAddAndList(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	scarf := createTestProduct(t, db, "Wool Scarf", 500, 0)

	first, err := svc.Add(context.Background(), 1, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, shirt.ID, first.ProductID)
	assert.True(t, first.Available)

	second, err := svc.Add(context.Background(), 1, scarf.ID)
	require.NoError(t, err)
	assert.False(t, second.Available, "out of stock products can be saved but show unavailable")

	list, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Items, 2)
	require.NotNil(t, list.Items[0].Product)
	assert.Equal(t, "Wool Scarf", list.Items[0].Product.Name, "newest first")
}

func TestAddRejectsDuplicates(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	_, err := svc.Add(context.Background(), 1, shirt.ID)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), 1, shirt.ID)
	assert.ErrorIs(t, err, ErrAlreadySaved)

	// A different user saving the same product is fine.
	_, err = svc.Add(context.Background(), 2, shirt.ID)
	assert.NoError(t, err)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), 1, 999)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestRemove(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	_, err := svc.Add(context.Background(), 1, shirt.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), 1, shirt.ID))

	count, err := svc.Count(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.Remove(context.Background(), 1, shirt.ID), ErrItemNotFound)
}

func TestRemoveScopedToOwner(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	_, err := svc.Add(context.Background(), 1, shirt.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Remove(context.Background(), 2, shirt.ID), ErrItemNotFound)

	saved, err := svc.Contains(context.Background(), 1, shirt.ID)
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestClear(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	scarf := createTestProduct(t, db, "Wool Scarf", 500, 5)

	_, err := svc.Add(context.Background(), 1, shirt.ID)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 1, scarf.ID)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), 2, shirt.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), 1))

	count, err := svc.Count(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other users keep their lists.
	otherCount, err := svc.Count(context.Background(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, otherCount)
}

func TestMoveToCart(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	_, err := svc.Add(context.Background(), 1, shirt.ID)
	require.NoError(t, err)

	cartResp, err := svc.MoveToCart(context.Background(), 1, shirt.ID, 2)
	require.NoError(t, err)
	require.Len(t, cartResp.Items, 1)
	assert.Equal(t, 2, cartResp.Items[0].Quantity)
	assert.Equal(t, int64(4000), cartResp.Total)

	saved, err := svc.Contains(context.Background(), 1, shirt.ID)
	require.NoError(t, err)
	assert.False(t, saved, "moved items leave the wishlist")
}

func TestMoveToCartKeepsItemWhenOutOfStock(t *testing.T) {
	svc, db := newTestService(t)
	scarf := createTestProduct(t, db, "Wool Scarf", 500, 1)

	_, err := svc.Add(context.Background(), 1, scarf.ID)
	require.NoError(t, err)

	_, err = svc.MoveToCart(context.Background(), 1, scarf.ID, 3)
	require.Error(t, err)

	var oos *cart.OutOfStockError
	assert.ErrorAs(t, err, &oos)

	saved, err := svc.Contains(context.Background(), 1, scarf.ID)
	require.NoError(t, err)
	assert.True(t, saved, "failed moves keep the wishlist entry")
}

func TestMoveToCartRequiresSavedItem(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	_, err := svc.MoveToCart(context.Background(), 1, shirt.ID, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}
