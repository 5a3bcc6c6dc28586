package checkout

import (
	"github.com/polkiloo/storefront/internal/adapter/gateway"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// Step names a checkout state.
type Step string

const (
	StepAddressEntry     Step = "ADDRESS_ENTRY"
	StepPaymentSelection Step = "PAYMENT_SELECTION"
	StepOrderSubmitting  Step = "ORDER_SUBMITTING"
	StepGatewayAwaiting  Step = "GATEWAY_AWAITING"
	StepVerifying        Step = "VERIFYING"
	StepSucceeded        Step = "SUCCEEDED"
	StepFailed           Step = "FAILED"
)

// FailureKind tells the UI what to offer after a failed checkout.
type FailureKind string

const (
	// FailureRetryable means no order exists yet; the user may submit again.
	FailureRetryable FailureKind = "RETRYABLE"
	// FailureContactSupport means the payment state is ambiguous.
	FailureContactSupport FailureKind = "CONTACT_SUPPORT"
	// FailureRedirectToOrders means the order exists and stays pending server side.
	FailureRedirectToOrders FailureKind = "REDIRECT_TO_ORDERS"
)

// State is one step of the checkout. Each step is its own type so transition
// functions can only be applied to the step they start from.
type State interface {
	Step() Step
}

// AddressEntry collects the shipping address.
type AddressEntry struct {
	Address model.ShippingAddress
	Source  model.AddressSource
}

// PaymentSelection holds a confirmed address while the user picks a payment method.
type PaymentSelection struct {
	Address model.ShippingAddress
	Method  model.PaymentMethod
	Notice  string
}

// OrderSubmitting is the createOrder round-trip.
type OrderSubmitting struct {
	Address        model.ShippingAddress
	Method         model.PaymentMethod
	IdempotencyKey string
}

// GatewayAwaiting waits for the user to finish the hosted payment form.
type GatewayAwaiting struct {
	Address model.ShippingAddress
	Method  model.PaymentMethod
	Order   *model.Order
	Gateway gateway.View
}

// Verifying confirms the payment with the backend.
type Verifying struct {
	Address        model.ShippingAddress
	Method         model.PaymentMethod
	Order          *model.Order
	GatewayOrderID string
}

// Succeeded is terminal: the order is placed and paid or confirmed.
type Succeeded struct {
	Order *model.Order
}

// Failed is terminal unless Kind is FailureRetryable.
type Failed struct {
	Kind    FailureKind
	Message string
	Address model.ShippingAddress
	Method  model.PaymentMethod
	Order   *model.Order
}

func (AddressEntry) Step() Step     { return StepAddressEntry }
func (PaymentSelection) Step() Step { return StepPaymentSelection }
func (OrderSubmitting) Step() Step  { return StepOrderSubmitting }
func (GatewayAwaiting) Step() Step  { return StepGatewayAwaiting }
func (Verifying) Step() Step        { return StepVerifying }
func (Succeeded) Step() Step        { return StepSucceeded }
func (Failed) Step() Step           { return StepFailed }

// processing reports whether the step is a non-interactive wait on the backend.
func processing(st State) bool {
	switch st.(type) {
	case OrderSubmitting, Verifying:
		return true
	}
	return false
}

// Terminal reports whether no further user transition can leave the state.
func Terminal(st State) bool {
	switch s := st.(type) {
	case Succeeded:
		return true
	case Failed:
		return s.Kind != FailureRetryable
	}
	return false
}
