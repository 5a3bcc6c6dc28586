package model

import "github.com/shopspring/decimal"

// DiscountKind describes how a coupon value is interpreted.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Coupon is the promo code applied to a cart.
type Coupon struct {
	Code  string
	Kind  DiscountKind
	Value decimal.Decimal
}

// CartItem is a single cart line. UnitPrice is the price snapshot taken by the backend.
type CartItem struct {
	ProductRef string
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Cart is the server-confirmed cart of the current session. Pricing fields are
// computed by the backend and must never be recomputed for trust decisions.
type Cart struct {
	Items       []CartItem
	Coupon      *Coupon
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Item returns the line for the product reference.
func (c *Cart) Item(ref string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ProductRef == ref {
			return it, true
		}
	}
	return CartItem{}, false
}

// Clone returns a deep copy so callers cannot mutate the stored cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	if c.Coupon != nil {
		coupon := *c.Coupon
		out.Coupon = &coupon
	}
	return &out
}
