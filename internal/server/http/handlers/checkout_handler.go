package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/checkout"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// maxSettleWait caps the wait query parameter of GET /api/checkout/:id.
const maxSettleWait = 30 * time.Second

// CheckoutHandler exposes checkout sessions and the gateway callbacks.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Start handles POST /api/checkout.
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req dto.StartCheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	var hint *model.Coordinates
	if req.Latitude != nil && req.Longitude != nil {
		hint = &model.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	snap, err := h.facade.StartCheckout(c.Request.Context(), CurrentPrincipal(c), hint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(snap))
}

// Get handles GET /api/checkout/:id. With ?wait=5s it blocks until a
// submitting or verifying step settles or the wait elapses.
func (h *CheckoutHandler) Get(c *gin.Context) {
	p := CurrentPrincipal(c)
	wait := c.Query("wait")
	if wait == "" {
		snap, err := h.facade.Checkout(p, c.Param("id"))
		h.respond(c, snap, err)
		return
	}

	d, err := time.ParseDuration(wait)
	if err != nil || d < 0 {
		badRequest(c, "invalid wait duration")
		return
	}
	if d > maxSettleWait {
		d = maxSettleWait
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), d)
	defer cancel()

	snap, err := h.facade.AwaitCheckout(ctx, p, c.Param("id"))
	if errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	h.respond(c, snap, err)
}

// UpdateAddress handles PUT /api/checkout/:id/address.
func (h *CheckoutHandler) UpdateAddress(c *gin.Context) {
	var req dto.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	snap, err := h.facade.UpdateAddress(CurrentPrincipal(c), c.Param("id"), fromAddressDTO(req))
	h.respond(c, snap, err)
}

// ConfirmAddress handles POST /api/checkout/:id/address/confirm.
func (h *CheckoutHandler) ConfirmAddress(c *gin.Context) {
	snap, err := h.facade.ConfirmAddress(CurrentPrincipal(c), c.Param("id"))
	h.respond(c, snap, err)
}

// EditAddress handles POST /api/checkout/:id/address/edit.
func (h *CheckoutHandler) EditAddress(c *gin.Context) {
	snap, err := h.facade.EditAddress(CurrentPrincipal(c), c.Param("id"))
	h.respond(c, snap, err)
}

// SelectPaymentMethod handles PUT /api/checkout/:id/payment-method.
func (h *CheckoutHandler) SelectPaymentMethod(c *gin.Context) {
	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	snap, err := h.facade.SelectPaymentMethod(CurrentPrincipal(c), c.Param("id"), model.PaymentMethod(req.PaymentMethod))
	h.respond(c, snap, err)
}

// Submit handles POST /api/checkout/:id/submit.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	snap, err := h.facade.SubmitOrder(c.Request.Context(), CurrentPrincipal(c), c.Param("id"))
	h.respond(c, snap, err)
}

// Retry handles POST /api/checkout/:id/retry.
func (h *CheckoutHandler) Retry(c *gin.Context) {
	snap, err := h.facade.RetryCheckout(CurrentPrincipal(c), c.Param("id"))
	h.respond(c, snap, err)
}

// Discard handles DELETE /api/checkout/:id.
func (h *CheckoutHandler) Discard(c *gin.Context) {
	if err := h.facade.DiscardCheckout(CurrentPrincipal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GatewaySuccess handles POST /api/checkout/:id/gateway/success.
func (h *CheckoutHandler) GatewaySuccess(c *gin.Context) {
	var req dto.GatewaySuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	proof := model.PaymentProof{
		GatewayOrderID:   req.OrderID,
		GatewayPaymentID: req.PaymentID,
		GatewaySignature: req.Signature,
	}
	snap, err := h.facade.GatewaySucceeded(CurrentPrincipal(c), c.Param("id"), proof)
	h.respond(c, snap, err)
}

// GatewayDismiss handles POST /api/checkout/:id/gateway/dismiss.
func (h *CheckoutHandler) GatewayDismiss(c *gin.Context) {
	snap, err := h.facade.GatewayDismissed(CurrentPrincipal(c), c.Param("id"))
	h.respond(c, snap, err)
}

// GatewayError handles POST /api/checkout/:id/gateway/error.
func (h *CheckoutHandler) GatewayError(c *gin.Context) {
	var req dto.GatewayErrorRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	snap, err := h.facade.GatewayFailed(CurrentPrincipal(c), c.Param("id"), req.Reason)
	h.respond(c, snap, err)
}

func (h *CheckoutHandler) respond(c *gin.Context, snap checkout.Snapshot, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(snap))
}
