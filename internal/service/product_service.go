package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/cache"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

const recommendationCount = 3

// ProductInput is the admin payload for a new product.
type ProductInput struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       entity.Money `json:"price"`
	Image       string       `json:"image"`
	Category    string       `json:"category"`
	IsFeatured  bool         `json:"isFeatured"`
}

type ProductService struct {
	products ProductStore
	cache    Cache
	now      func() time.Time
}

// NewProductService creates a new instance of ProductService.
func NewProductService(products ProductStore, featured Cache) *ProductService {
	return &ProductService{products: products, cache: featured, now: time.Now}
}

func (p *ProductService) ListProducts(ctx context.Context) ([]*entity.Product, error) {
	products, err := p.products.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, upstream(err)
	}
	return products, nil
}

func (p *ProductService) ProductsByCategory(ctx context.Context, category string) ([]*entity.Product, error) {
	products, err := p.products.GetProductsByCategory(ctx, category)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting products for category %s", category)
		return nil, upstream(err)
	}
	return products, nil
}

func (p *ProductService) Recommendations(ctx context.Context) ([]*entity.Product, error) {
	products, err := p.products.GetRandomProducts(ctx, recommendationCount)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting recommended products")
		return nil, upstream(err)
	}
	return products, nil
}

// Featured reads through the cache. A broken cache degrades to the database.
func (p *ProductService) Featured(ctx context.Context) ([]*entity.Product, error) {
	var cached []*entity.Product
	hit, err := p.cache.Get(ctx, cache.FeaturedProductsKey, &cached)
	if err != nil {
		logger.Error().Err(err).Msg("Error reading featured products from cache")
	}
	if hit {
		return cached, nil
	}

	products, err := p.products.GetFeaturedProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting featured products")
		return nil, upstream(err)
	}

	if err := p.cache.Set(ctx, cache.FeaturedProductsKey, products); err != nil {
		logger.Error().Err(err).Msg("Error setting featured products in cache")
	}
	return products, nil
}

// PreWarmFeatured loads the featured list into the cache so the first
// storefront request does not hit the database.
func (p *ProductService) PreWarmFeatured(ctx context.Context) error {
	products, err := p.products.GetFeaturedProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting featured products")
		return err
	}
	if err := p.cache.Set(ctx, cache.FeaturedProductsKey, products); err != nil {
		logger.Error().Err(err).Msg("Error setting featured products in cache")
		return err
	}
	logger.Info().Int("count", len(products)).Msg("Featured products cache warmed")
	return nil
}

func (p *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*entity.Product, error) {
	if err := validateProduct(&in); err != nil {
		return nil, err
	}

	now := p.now().UTC()
	product := &entity.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Category:    in.Category,
		IsFeatured:  in.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := p.products.CreateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, upstream(err)
	}

	p.invalidateFeatured(ctx)
	return created, nil
}

func (p *ProductService) DeleteProduct(ctx context.Context, id string) error {
	err := p.products.DeleteProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %s", id)
		return upstream(err)
	}

	p.invalidateFeatured(ctx)
	return nil
}

func (p *ProductService) ToggleFeatured(ctx context.Context, id string) (*entity.Product, error) {
	product, err := p.products.ToggleFeatured(ctx, id, p.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error toggling featured flag of product %s", id)
		return nil, upstream(err)
	}

	p.invalidateFeatured(ctx)
	return product, nil
}

// PriceOf returns the authoritative unit price of each known id.
func (p *ProductService) PriceOf(ctx context.Context, ids []string) (map[string]entity.Money, error) {
	products, err := p.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting product prices")
		return nil, upstream(err)
	}
	prices := make(map[string]entity.Money, len(products))
	for id, product := range products {
		prices[id] = product.Price
	}
	return prices, nil
}

// invalidateFeatured drops the featured list after any catalog write. A
// failure leaves a stale entry until the next successful write.
func (p *ProductService) invalidateFeatured(ctx context.Context) {
	if err := p.cache.Invalidate(ctx, cache.FeaturedProductsKey); err != nil {
		logger.Error().Err(err).Msg("Error invalidating featured products cache")
	}
}

func validateProduct(in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = strings.TrimSpace(in.Image)

	verr := &ValidationError{}
	if in.Name == "" {
		verr.add("name", "is required")
	}
	if in.Description == "" {
		verr.add("description", "is required")
	}
	if in.Price < 0 {
		verr.add("price", "must not be negative")
	}
	if in.Category == "" {
		verr.add("category", "is required")
	}
	if in.Image == "" {
		verr.add("image", "is required")
	} else if u, err := url.ParseRequestURI(in.Image); err != nil || u.Host == "" {
		verr.add("image", "must be an absolute URL")
	}
	return verr.orNil()
}
