package checkout

import (
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	noticeCancelled    = "Payment cancelled"
	noticeGatewayError = "Payment could not be completed, please try again"
)

func updateAddress(s AddressEntry, addr model.ShippingAddress) AddressEntry {
	s.Address = addr
	return s
}

// confirmAddress leaves the address form only when every mandatory field is filled.
func confirmAddress(s AddressEntry) (PaymentSelection, error) {
	addr := s.Address.Normalize()
	if missing := addr.MissingFields(); len(missing) > 0 {
		return PaymentSelection{}, domainErrors.NewValidationError("please fill all required address fields", missing...)
	}
	return PaymentSelection{Address: addr, Method: model.PaymentOnline}, nil
}

func editAddress(s PaymentSelection) AddressEntry {
	return AddressEntry{Address: s.Address, Source: model.AddressFromNothing}
}

func selectMethod(s PaymentSelection, method model.PaymentMethod) (PaymentSelection, error) {
	if !method.Valid() {
		return s, domainErrors.NewValidationError("unknown payment method", "paymentMethod")
	}
	s.Method = method
	s.Notice = ""
	return s, nil
}

func submit(s PaymentSelection, idempotencyKey string) OrderSubmitting {
	return OrderSubmitting{Address: s.Address, Method: s.Method, IdempotencyKey: idempotencyKey}
}

// rejected keeps the form data so the user can retry with a new submission.
func rejected(s OrderSubmitting, err error) Failed {
	return Failed{
		Kind:    FailureRetryable,
		Message: domainErrors.UserMessage(err),
		Address: s.Address,
		Method:  s.Method,
	}
}

// gatewayUnavailable is used when the order exists but the payment form could not be opened.
func gatewayUnavailable(s OrderSubmitting) PaymentSelection {
	return PaymentSelection{Address: s.Address, Method: s.Method, Notice: noticeGatewayError}
}

func awaitGateway(s OrderSubmitting, placed *model.PlacedOrder) GatewayAwaiting {
	return GatewayAwaiting{Address: s.Address, Method: s.Method, Order: placed.Order}
}

func deferConfirmation(s OrderSubmitting, placed *model.PlacedOrder) Verifying {
	return Verifying{Address: s.Address, Method: s.Method, Order: placed.Order, GatewayOrderID: placed.GatewayOrderID}
}

func gatewayPaid(s GatewayAwaiting) Verifying {
	return Verifying{Address: s.Address, Method: s.Method, Order: s.Order, GatewayOrderID: s.Gateway.OrderRef}
}

func gatewayDismissed(s GatewayAwaiting) PaymentSelection {
	return PaymentSelection{Address: s.Address, Method: s.Method, Notice: noticeCancelled}
}

func gatewayFailed(s GatewayAwaiting) PaymentSelection {
	return PaymentSelection{Address: s.Address, Method: s.Method, Notice: noticeGatewayError}
}

func verified(_ Verifying, order *model.Order) Succeeded {
	return Succeeded{Order: order}
}

func verificationFailed(s Verifying, kind FailureKind, err error) Failed {
	return Failed{
		Kind:    kind,
		Message: domainErrors.UserMessage(err),
		Address: s.Address,
		Method:  s.Method,
		Order:   s.Order,
	}
}

// retry turns a retryable failure back into payment selection. Every other failure is final.
func retry(s Failed) (PaymentSelection, error) {
	if s.Kind != FailureRetryable {
		return PaymentSelection{}, domainErrors.ErrIllegalTransition
	}
	return PaymentSelection{Address: s.Address, Method: s.Method}, nil
}
