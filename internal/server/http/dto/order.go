package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemResponse is a frozen order line.
type OrderItemResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// PaymentResponse describes payment of an order.
type PaymentResponse struct {
	Method         string `json:"method"`
	Status         string `json:"status"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`
	PaymentID      string `json:"paymentId,omitempty"`
}

// OrderResponse is the order confirmation view.
type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	Status          string              `json:"status"`
	Items           []OrderItemResponse `json:"items"`
	Pricing         TotalsResponse      `json:"pricing"`
	Payment         PaymentResponse     `json:"payment"`
	ShippingAddress Address             `json:"shippingAddress"`
	CreatedAt       time.Time           `json:"createdAt"`
}
