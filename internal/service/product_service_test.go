package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/cache"
	"storefront-service/internal/entity"
)

func TestFeatured_ReadsThroughCache(t *testing.T) {
	store := newFakeProductStore(
		&entity.Product{ID: "p1", Name: "Jacket", Price: 100000, IsFeatured: true},
		&entity.Product{ID: "p2", Name: "Socks", Price: 5000},
	)
	c := newFakeCache()
	svc := NewProductService(store, c)

	first, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, store.featuredCalls)
}

func TestFeatured_BrokenCacheFallsBackToStore(t *testing.T) {
	store := newFakeProductStore(&entity.Product{ID: "p1", IsFeatured: true})
	c := newFakeCache()
	c.getErr = errors.New("redis down")

	products, err := NewProductService(store, c).Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCatalogWritesInvalidateFeatured(t *testing.T) {
	store := newFakeProductStore(&entity.Product{ID: "p1", Name: "Jacket", IsFeatured: true})
	c := newFakeCache()
	svc := NewProductService(store, c)
	ctx := context.Background()

	_, err := svc.Featured(ctx)
	require.NoError(t, err)

	toggled, err := svc.ToggleFeatured(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, toggled.IsFeatured)
	assert.NotContains(t, c.entries, cache.FeaturedProductsKey)

	featured, err := svc.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, featured)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Hat", Description: "Wool", Price: 2000, Image: "https://cdn.example.com/hat.png", Category: "hats", IsFeatured: true})
	require.NoError(t, err)
	featured, err = svc.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 1)

	require.NoError(t, svc.DeleteProduct(ctx, featured[0].ID))
	featured, err = svc.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, featured)

	assert.Equal(t, 3, c.invalidated)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := NewProductService(newFakeProductStore(), newFakeCache())

	_, err := svc.CreateProduct(context.Background(), ProductInput{Price: -1, Image: "not a url"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "description": true, "price": true, "category": true, "image": true}, fields)
}

func TestProductService_NotFound(t *testing.T) {
	svc := NewProductService(newFakeProductStore(), newFakeCache())

	_, err := svc.ToggleFeatured(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), "missing"), ErrNotFound)
}

func TestPriceOf(t *testing.T) {
	svc := NewProductService(newFakeProductStore(&entity.Product{ID: "p1", Price: 100000}), newFakeCache())

	prices, err := svc.PriceOf(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]entity.Money{"p1": 100000}, prices)
}

func TestPreWarmFeatured(t *testing.T) {
	store := newFakeProductStore(&entity.Product{ID: "p1", IsFeatured: true})
	c := newFakeCache()
	svc := NewProductService(store, c)

	require.NoError(t, svc.PreWarmFeatured(context.Background()))
	assert.Equal(t, 1, store.featuredCalls)

	products, err := svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, store.featuredCalls)
}
