package service

import (
	"context"
	"errors"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

// CartService is the server-side cart. Lines reference catalog products by
// id; products deleted from the catalog drop out of the listing.
type CartService struct {
	carts    CartStore
	products ProductStore
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

// Items joins the cart lines with their catalog products.
func (s *CartService) Items(ctx context.Context, userID string) ([]entity.CartProduct, error) {
	lines, err := s.carts.Items(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Error reading cart")
		return nil, upstream(err)
	}
	if len(lines) == 0 {
		return []entity.CartProduct{}, nil
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting cart products")
		return nil, upstream(err)
	}

	out := make([]entity.CartProduct, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		out = append(out, entity.CartProduct{Product: *p, Quantity: l.Quantity})
	}
	return out, nil
}

// Add puts one more unit of productID in the cart.
func (s *CartService) Add(ctx context.Context, userID, productID string) ([]entity.CartItem, error) {
	if productID == "" {
		return nil, ErrInvalidRequest
	}
	_, err := s.products.GetProductByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream(err)
	}

	if _, err := s.carts.Increment(ctx, userID, productID, 1); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Error adding to cart")
		return nil, upstream(err)
	}
	return s.lines(ctx, userID)
}

// Remove drops the productID line, or the whole cart when productID is empty.
func (s *CartService) Remove(ctx context.Context, userID, productID string) ([]entity.CartItem, error) {
	var err error
	if productID == "" {
		err = s.carts.Clear(ctx, userID)
	} else {
		err = s.carts.Remove(ctx, userID, productID)
	}
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Error removing from cart")
		return nil, upstream(err)
	}
	return s.lines(ctx, userID)
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) ([]entity.CartItem, error) {
	if productID == "" || quantity < 0 {
		return nil, ErrInvalidRequest
	}
	found, err := s.carts.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Error updating cart quantity")
		return nil, upstream(err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return s.lines(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return upstream(err)
	}
	return nil
}

func (s *CartService) lines(ctx context.Context, userID string) ([]entity.CartItem, error) {
	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, upstream(err)
	}
	return items, nil
}
