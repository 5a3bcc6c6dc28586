package dto

import "time"

// Address is the shipping address form.
type Address struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

// StartCheckoutRequest optionally carries the device location used to prefill the address.
type StartCheckoutRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// PaymentMethodRequest selects the payment method.
type PaymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

// GatewaySuccessRequest is the payment triple reported by the gateway form.
type GatewaySuccessRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// GatewayErrorRequest reports a gateway form failure.
type GatewayErrorRequest struct {
	Reason string `json:"reason"`
}

// FailureResponse explains a failed checkout.
type FailureResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// GatewayPrefill is the customer information shown on the payment form.
type GatewayPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// GatewayResponse holds what the UI needs to open the hosted payment form.
type GatewayResponse struct {
	SessionID   string         `json:"sessionId"`
	Key         string         `json:"key"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	OrderID     string         `json:"order_id"`
	Prefill     GatewayPrefill `json:"prefill"`
}

// CheckoutResponse is the view of a checkout session.
type CheckoutResponse struct {
	ID            string           `json:"id"`
	Step          string           `json:"step"`
	Processing    bool             `json:"processing"`
	Address       Address          `json:"address"`
	AddressSource string           `json:"addressSource,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	Notice        string           `json:"notice,omitempty"`
	Totals        *TotalsResponse  `json:"totals,omitempty"`
	Order         *OrderResponse   `json:"order,omitempty"`
	Gateway       *GatewayResponse `json:"gateway,omitempty"`
	Failure       *FailureResponse `json:"failure,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}
