// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/estyshop/ecommerce-backend/internal/config"
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
		&Cart{},
		&CartItem{},
	)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, &config.Config{}), db
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

func anonIdentity(key string) Identity {
	return Identity{SessionKey: key}
}

func userIdentity(id uint) Identity {
	return Identity{UserID: &id}
}

func assertTotalInvariant(t *testing.T, resp *CartResponse) {
	t.Helper()
	var sum int64
	for _, item := range resp.Items {
		sum += item.Subtotal
	}
	assert.Equal(t, sum, resp.Total, "cart total must equal sum of line subtotals")
}

func TestAddItemCreatesLine(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	resp, err := svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, int64(4000), resp.Items[0].Subtotal)
	assert.Equal(t, int64(2000), resp.Items[0].UnitPrice)
	assert.Equal(t, int64(4000), resp.Total)
	assert.Equal(t, 1, resp.ItemCount)
	assert.Equal(t, 2, resp.TotalQuantity)
	assertTotalInvariant(t, resp)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	ident := anonIdentity("sess-1")

	_, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	resp, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, int64(6000), resp.Items[0].Subtotal)
	assertTotalInvariant(t, resp)
}

func TestAddItemRejectsMergeBeyondStock(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 3)
	ident := anonIdentity("sess-1")

	_, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 2})
	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
	assert.Equal(t, 4, oosErr.Requested)
	assert.Equal(t, 3, oosErr.Available)

	// The existing line is untouched by the failed merge.
	resp, err := svc.GetCart(context.Background(), ident)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, int64(4000), resp.Total)
}

func TestAddItemUnavailableProduct(t *testing.T) {
	svc, db := newTestService(t)
	ident := anonIdentity("sess-1")

	disabled := createTestProduct(t, db, "Disabled Shirt", 2000, 5)
	require.NoError(t, db.Model(disabled).Update("available", false).Error)

	_, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: disabled.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	soldOut := createTestProduct(t, db, "Sold Out Shirt", 2000, 0)
	_, err = svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: soldOut.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{ProductID: 999, Quantity: 1})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestAddItemUsesDiscountPrice(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	discount := int64(1500)
	product.DiscountPrice = &discount
	require.NoError(t, db.Save(product).Error)

	resp, err := svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), resp.Items[0].UnitPrice)
	assert.Equal(t, int64(3000), resp.Items[0].Subtotal)
	assert.Equal(t, int64(3000), resp.Total)
}

func TestAddItemSeparateSizes(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	ident := anonIdentity("sess-1")

	_, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)
	resp, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Size: "L", Quantity: 2})
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(6000), resp.Total)
	assertTotalInvariant(t, resp)
}

func TestUpdateItemIncrementRespectsStock(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 2)
	ident := anonIdentity("sess-1")

	resp, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	resp, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionIncrement})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assertTotalInvariant(t, resp)

	_, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionIncrement})
	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
	assert.Equal(t, 2, oosErr.Available)
}

func TestUpdateItemDecrementRemovesAtZero(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	ident := anonIdentity("sess-1")

	resp, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	resp, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionDecrement})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Total)

	var count int64
	require.NoError(t, db.Model(&CartItem{}).Where("id = ?", itemID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateItemSet(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	ident := anonIdentity("sess-1")

	resp, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	four := 4
	resp, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionSet, Quantity: &four})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Items[0].Quantity)
	assert.Equal(t, int64(8000), resp.Total)

	ten := 10
	_, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionSet, Quantity: &ten})
	var oosErr *OutOfStockError
	require.ErrorAs(t, err, &oosErr)
	assert.Equal(t, 5, oosErr.Available)

	_, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionSet})
	assert.ErrorIs(t, err, ErrQuantityRequired)

	zero := 0
	resp, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionSet, Quantity: &zero})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Total)
}

func TestUpdateItemRemove(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	other := createTestProduct(t, db, "Wool Scarf", 1000, 5)
	ident := anonIdentity("sess-1")

	resp, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := resp.Items[0].ID
	_, err = svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: other.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err = svc.UpdateItem(context.Background(), ident, itemID, &UpdateItemRequest{Action: ActionRemove})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, other.ID, resp.Items[0].ProductID)
	assert.Equal(t, int64(1000), resp.Total)
	assertTotalInvariant(t, resp)
}

func TestUpdateItemNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateItem(context.Background(), anonIdentity("sess-1"), 999, &UpdateItemRequest{Action: ActionRemove})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestClearCart(t *testing.T) {
	svc, db := newTestService(t)
	first := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	second := createTestProduct(t, db, "Wool Scarf", 1000, 5)
	ident := anonIdentity("sess-1")

	_, err := svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: first.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), ident, &AddItemRequest{ProductID: second.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := svc.Clear(context.Background(), ident)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Total)
}

func TestGetOrCreateCartClaimsAnonymousCart(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	anonResp, err := svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	userID := uint(7)
	claimed, err := svc.GetOrCreateCart(context.Background(), Identity{UserID: &userID, SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, anonResp.ID, claimed.ID)
	require.NotNil(t, claimed.UserID)
	assert.Equal(t, userID, *claimed.UserID)

	// The session key was released, so the same cookie now starts an
	// empty cart instead of reaching into the claimed one.
	fresh, err := svc.GetOrCreateCart(context.Background(), anonIdentity("sess-1"))
	require.NoError(t, err)
	assert.NotEqual(t, claimed.ID, fresh.ID)
}

func TestGetOrCreateCartMergesIntoUserCart(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 2)
	scarf := createTestProduct(t, db, "Wool Scarf", 1000, 5)

	userID := uint(7)
	_, err := svc.AddItem(context.Background(), userIdentity(userID), &AddItemRequest{ProductID: shirt.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{ProductID: shirt.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{ProductID: scarf.ID, Quantity: 3})
	require.NoError(t, err)

	resp, err := svc.GetCart(context.Background(), Identity{UserID: &userID, SessionKey: "sess-1"})
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	byProduct := map[uint]CartItemResponse{}
	for _, item := range resp.Items {
		byProduct[item.ProductID] = item
	}
	// 1 + 2 exceeds the shirt's stock of 2, so the merge caps at 2.
	assert.Equal(t, 2, byProduct[shirt.ID].Quantity)
	assert.Equal(t, 3, byProduct[scarf.ID].Quantity)
	assertTotalInvariant(t, resp)

	var anonCarts int64
	require.NoError(t, db.Model(&Cart{}).Where("session_key = ?", "sess-1").Count(&anonCarts).Error)
	assert.Equal(t, int64(0), anonCarts)
}

func TestMergeDropsUnpurchasableLines(t *testing.T) {
	svc, db := newTestService(t)
	shirt := createTestProduct(t, db, "Linen Shirt", 2000, 5)
	scarf := createTestProduct(t, db, "Wool Scarf", 1000, 5)

	_, err := svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{ProductID: shirt.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), anonIdentity("sess-1"), &AddItemRequest{ProductID: scarf.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, db.Model(scarf).Update("available", false).Error)

	userID := uint(7)
	_, err = svc.AddItem(context.Background(), userIdentity(userID), &AddItemRequest{ProductID: shirt.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := svc.GetCart(context.Background(), Identity{UserID: &userID, SessionKey: "sess-1"})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, shirt.ID, resp.Items[0].ProductID)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assertTotalInvariant(t, resp)
}

func TestPruneAbandoned(t *testing.T) {
	svc, db := newTestService(t)
	product := createTestProduct(t, db, "Linen Shirt", 2000, 5)

	_, err := svc.AddItem(context.Background(), anonIdentity("sess-old"), &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), anonIdentity("sess-new"), &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	userID := uint(7)
	_, err = svc.AddItem(context.Background(), userIdentity(userID), &AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	stale := time.Now().UTC().Add(-48 * time.Hour)
	err = db.Model(&Cart{}).Where("session_key = ?", "sess-old").
		UpdateColumn("updated_at", stale).Error
	require.NoError(t, err)

	pruned, err := svc.PruneAbandoned(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	var carts int64
	require.NoError(t, db.Model(&Cart{}).Count(&carts).Error)
	assert.Equal(t, int64(2), carts)

	var orphans int64
	require.NoError(t, db.Model(&CartItem{}).
		Joins("LEFT JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.id IS NULL").Count(&orphans).Error)
	assert.Equal(t, int64(0), orphans)
}
