// Package pricing previews cart totals. The backend remains the authority on
// every amount; the preview only keeps the cart and checkout screens consistent.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

var (
	// TaxRate is the GST applied to the discounted subtotal.
	TaxRate = decimal.RequireFromString("0.18")
	// CODHandlingFee is charged for cash on delivery before GST.
	CODHandlingFee = decimal.NewFromInt(50)
	// ShippingFee is the flat shipping charge. Shipping is free under the current policy.
	ShippingFee = decimal.Zero

	hundred = decimal.NewFromInt(100)
)

// Totals is the pricing breakdown shown to the user.
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	ShippingFee decimal.Decimal
	HandlingFee decimal.Decimal
	Total       decimal.Decimal
}

// ComputeTotals derives the preview totals for cart paid with method.
//
// total = subtotal - discount + tax + shipping + handlingFee, where tax is 18% of
// (subtotal - discount) and handlingFee is the COD fee including its own GST.
func ComputeTotals(cart *model.Cart, method model.PaymentMethod) Totals {
	subtotal := Subtotal(cart)
	var coupon *model.Coupon
	if cart != nil {
		coupon = cart.Coupon
	}
	discount := Discount(subtotal, coupon)
	taxable := subtotal.Sub(discount)
	tax := roundMoney(taxable.Mul(TaxRate))

	handling := decimal.Zero
	if method == model.PaymentCOD {
		handling = HandlingFee()
	}

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		Tax:         tax,
		ShippingFee: ShippingFee,
		HandlingFee: handling,
		Total:       taxable.Add(tax).Add(ShippingFee).Add(handling),
	}
}

// Subtotal sums unit price times quantity over the cart lines.
func Subtotal(cart *model.Cart) decimal.Decimal {
	sum := decimal.Zero
	if cart == nil {
		return sum
	}
	for _, item := range cart.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return roundMoney(sum)
}

// Discount returns the coupon reduction for subtotal, clamped to [0, subtotal].
func Discount(subtotal decimal.Decimal, coupon *model.Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch coupon.Kind {
	case model.DiscountPercentage:
		d = subtotal.Mul(coupon.Value).Div(hundred)
	case model.DiscountFixed:
		d = coupon.Value
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return roundMoney(d)
}

// HandlingFee is the COD fee with GST applied (₹50 + ₹9).
func HandlingFee() decimal.Decimal {
	return roundMoney(CODHandlingFee.Add(CODHandlingFee.Mul(TaxRate)))
}

// MinorUnits converts a rupee amount to paise for the payment gateway.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
