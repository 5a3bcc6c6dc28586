package dto

import "github.com/shopspring/decimal"

// AddItemRequest describes a product added to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// QuantityRequest sets the quantity of a cart line.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CouponRequest carries a promo code.
type CouponRequest struct {
	Code string `json:"code"`
}

// CartItemResponse is a cart line.
type CartItemResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CouponResponse describes the applied coupon.
type CouponResponse struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

// CartResponse is the server-confirmed cart.
type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	Coupon      *CouponResponse    `json:"coupon,omitempty"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Tax         decimal.Decimal    `json:"tax"`
	Discount    decimal.Decimal    `json:"discount"`
	ShippingFee decimal.Decimal    `json:"shippingFee"`
	Total       decimal.Decimal    `json:"total"`
}

// TotalsResponse is the pricing breakdown for a payment method.
type TotalsResponse struct {
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	HandlingFee   decimal.Decimal `json:"handlingFee"`
	Total         decimal.Decimal `json:"total"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}
