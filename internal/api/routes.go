package api

import (
	"time"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Payments *PaymentHandler
	Coupons  *CouponHandler
	Carts    *CartHandler
	Products *ProductHandler
}

// RegisterRoutes mounts every endpoint under /api. Public catalog reads stay
// outside the JWT group.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "storefront-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	apiGroup.GET("/products/featured", h.Products.GetFeaturedProducts)
	apiGroup.GET("/products/category/:category", h.Products.GetProductsByCategory)
	apiGroup.GET("/products/recommendations", h.Products.GetRecommendedProducts)

	user := apiGroup.Group("", JWT(jwtSecret), requireUser)

	user.POST("/payments/create-checkout-session", h.Payments.CreateCheckoutSession)
	user.POST("/payments/checkout-success", h.Payments.CheckoutSuccess)

	user.GET("/coupons", h.Coupons.GetCoupon)
	user.POST("/coupons/validate", h.Coupons.ValidateCoupon)

	user.GET("/cart", h.Carts.GetCartProducts)
	user.POST("/cart", h.Carts.AddToCart)
	user.DELETE("/cart", h.Carts.RemoveAllFromCart)
	user.PUT("/cart/:id", h.Carts.UpdateQuantity)

	admin := user.Group("", AdminOnly)
	admin.GET("/products", h.Products.GetAllProducts)
	admin.POST("/products", h.Products.CreateProduct)
	admin.PATCH("/products/:id", h.Products.ToggleFeaturedProduct)
	admin.DELETE("/products/:id", h.Products.DeleteProduct)
}
