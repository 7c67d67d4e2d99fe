package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]*entity.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]*entity.Product, error)
	Recommendations(ctx context.Context) ([]*entity.Product, error)
	Featured(ctx context.Context) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ToggleFeatured(ctx context.Context, id string) (*entity.Product, error)
}

type ProductHandler struct {
	catalog Catalog
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GetAllProducts --> GET /api/products
func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, map[string]interface{}{"products": products})
}

// GetFeaturedProducts --> GET /api/products/featured
func (h *ProductHandler) GetFeaturedProducts(c echo.Context) error {
	products, err := h.catalog.Featured(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, products)
}

// GetProductsByCategory --> GET /api/products/category/:category
func (h *ProductHandler) GetProductsByCategory(c echo.Context) error {
	products, err := h.catalog.ProductsByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, map[string]interface{}{"products": products})
}

// GetRecommendedProducts --> GET /api/products/recommendations
func (h *ProductHandler) GetRecommendedProducts(c echo.Context) error {
	products, err := h.catalog.Recommendations(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, products)
}

// CreateProduct --> POST /api/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	in := service.ProductInput{}
	if err := c.Bind(&in); err != nil {
		return badPayload(c)
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// ToggleFeaturedProduct --> PATCH /api/products/:id
func (h *ProductHandler) ToggleFeaturedProduct(c echo.Context) error {
	product, err := h.catalog.ToggleFeatured(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, product)
}

// DeleteProduct --> DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.catalog.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(200, map[string]string{"message": "Product deleted successfully"})
}
