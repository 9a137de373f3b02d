// internal/cache/store_test.go
package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return store, mr, cleanup
}

func TestRedisStoreSetGet(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestRedisStoreGetMiss(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, store.Delete(ctx, "a", "b"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreDeletePrefix(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	// Enough keys to force multiple SCAN/DEL batches.
	for i := 0; i < 250; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("products:list:p%d", i), []byte("x"), time.Minute))
	}
	require.NoError(t, store.Set(ctx, "category:detail:kitchen", []byte("keep"), time.Minute))

	require.NoError(t, store.DeletePrefix(ctx, "products:"))

	for i := 0; i < 250; i++ {
		_, err := store.Get(ctx, fmt.Sprintf("products:list:p%d", i))
		assert.ErrorIs(t, err, ErrMiss)
	}
	kept, err := store.Get(ctx, "category:detail:kitchen")
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), kept)
}

func TestApplyInvalidation(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyProductDetail("mug"), []byte("d"), time.Minute))
	require.NoError(t, store.Set(ctx, KeyProductList(1, 20), []byte("l"), time.Minute))
	require.NoError(t, store.Set(ctx, KeyHomepageSections(), []byte("h"), time.Minute))
	require.NoError(t, store.Set(ctx, KeyCategoryDetail("kitchen"), []byte("c"), time.Minute))

	require.NoError(t, Apply(ctx, store, ProductInvalidation("mug")))

	for _, key := range []string{KeyProductDetail("mug"), KeyProductList(1, 20), KeyHomepageSections()} {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrMiss, "expected %s to be invalidated", key)
	}

	// Untouched by a product write.
	_, err := store.Get(ctx, KeyCategoryDetail("kitchen"))
	assert.NoError(t, err)
}

func TestJSONHelpers(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, SetJSON(ctx, store, "p", payload{Name: "kitchen", Count: 42}, time.Minute))

	var got payload
	require.NoError(t, GetJSON(ctx, store, "p", &got))
	assert.Equal(t, "kitchen", got.Name)
	assert.Equal(t, 42, got.Count)

	var missed payload
	assert.ErrorIs(t, GetJSON(ctx, store, "missing", &missed), ErrMiss)
}
