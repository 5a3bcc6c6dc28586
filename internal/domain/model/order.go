package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects how the order is paid.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

// Valid reports whether the method is known.
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCOD
}

// PaymentStatus is the backend payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// OrderStatus is the fulfilment lifecycle, independent of payment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Pricing is the frozen pricing snapshot of an order.
type Pricing struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	HandlingFee decimal.Decimal
	Total       decimal.Decimal
}

// Payment describes how and whether an order has been paid.
type Payment struct {
	Method           PaymentMethod
	Status           PaymentStatus
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

// OrderItem is an immutable copy of a cart line taken at order creation.
type OrderItem struct {
	ProductRef string
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Order is the immutable snapshot produced by the backend at checkout commit.
type Order struct {
	ID              string
	Number          string
	Items           []OrderItem
	Pricing         Pricing
	Payment         Payment
	Status          OrderStatus
	ShippingAddress ShippingAddress
	CreatedAt       time.Time
}

// PlacedOrder is the backend answer to an order creation request.
type PlacedOrder struct {
	Order          *Order
	GatewayOrderID string
	GatewayKey     string
	TrialMode      bool
}

// PaymentProof is the order/payment/signature triple reported by the gateway.
type PaymentProof struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}
