package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
)

type CartManager interface {
	Items(ctx context.Context, userID string) ([]entity.CartProduct, error)
	Add(ctx context.Context, userID, productID string) ([]entity.CartItem, error)
	Remove(ctx context.Context, userID, productID string) ([]entity.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) ([]entity.CartItem, error)
}

type CartHandler struct {
	carts CartManager
}

func NewCartHandler(carts CartManager) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// GetCartProducts --> GET /api/cart
func (h *CartHandler) GetCartProducts(c echo.Context) error {
	products, err := h.carts.Items(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, products)
}

// AddToCart --> POST /api/cart
func (h *CartHandler) AddToCart(c echo.Context) error {
	req := cartRequest{}
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}

	items, err := h.carts.Add(c.Request().Context(), userID(c), req.ProductID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, items)
}

// RemoveAllFromCart drops one product, or everything without productId --> DELETE /api/cart
func (h *CartHandler) RemoveAllFromCart(c echo.Context) error {
	req := cartRequest{}
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}

	items, err := h.carts.Remove(c.Request().Context(), userID(c), req.ProductID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, items)
}

// UpdateQuantity --> PUT /api/cart/:id
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	req := cartRequest{}
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return badPayload(c)
	}

	items, err := h.carts.UpdateQuantity(c.Request().Context(), userID(c), c.Param("id"), *req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, items)
}
