package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pricing"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// CartHandler exposes the cart mirror.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.facade.Cart(c.Request.Context(), CurrentPrincipal(c))
	h.respond(c, cart, err)
}

// Totals handles GET /api/cart/totals?method=online|cod.
func (h *CartHandler) Totals(c *gin.Context) {
	method := model.PaymentMethod(c.DefaultQuery("method", string(model.PaymentOnline)))
	if !method.Valid() {
		badRequest(c, "unknown payment method")
		return
	}
	cart, err := h.facade.Cart(c.Request.Context(), CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTotalsResponse(pricing.ComputeTotals(cart, method), method))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	cart, err := h.facade.AddToCart(c.Request.Context(), CurrentPrincipal(c), req.ProductID, quantity)
	h.respond(c, cart, err)
}

// UpdateItem handles PUT /api/cart/items/:ref.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.facade.UpdateCartItem(c.Request.Context(), CurrentPrincipal(c), c.Param("ref"), req.Quantity)
	h.respond(c, cart, err)
}

// RemoveItem handles DELETE /api/cart/items/:ref.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.facade.RemoveFromCart(c.Request.Context(), CurrentPrincipal(c), c.Param("ref"))
	h.respond(c, cart, err)
}

// ApplyCoupon handles POST /api/cart/coupon.
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req dto.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.facade.ApplyCoupon(c.Request.Context(), CurrentPrincipal(c), req.Code)
	h.respond(c, cart, err)
}

// RemoveCoupon handles DELETE /api/cart/coupon.
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	cart, err := h.facade.RemoveCoupon(c.Request.Context(), CurrentPrincipal(c))
	h.respond(c, cart, err)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(c *gin.Context) {
	cart, err := h.facade.ClearCart(c.Request.Context(), CurrentPrincipal(c))
	h.respond(c, cart, err)
}

func (h *CartHandler) respond(c *gin.Context, cart *model.Cart, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}
