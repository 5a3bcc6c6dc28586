package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrMutationInFlight   = errors.New("cart update already in progress")
	ErrTransitionInFlight = errors.New("checkout step already in progress")
	ErrIllegalTransition  = errors.New("illegal checkout transition")
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrAlreadyRecorded    = errors.New("attempt already recorded")
)

// ValidationError is a locally detected input problem. No backend mutation happened.
type ValidationError struct {
	Reason string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

// NewValidationError builds ValidationError with optional offending fields.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

// BackendRejection is a definitive answer from the storefront backend refusing the request.
// Message is meant to be shown to the user verbatim.
type BackendRejection struct {
	Status  int
	Message string
}

func (e *BackendRejection) Error() string {
	return e.Message
}

// Is lets 401 rejections match ErrUnauthorized.
func (e *BackendRejection) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401
	case ErrNotFound:
		return e.Status == 404
	}
	return false
}

// TransportError means the request outcome is unknown: timeout, connection reset, offline.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// VerificationFailure is returned when a payment could not be reconciled with its order.
// The monetary state is ambiguous, the attempt is not retried.
type VerificationFailure struct {
	OrderID string
	Err     error
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("payment verification failed for order %s: %v", e.OrderID, e.Err)
}

func (e *VerificationFailure) Unwrap() error {
	return e.Err
}

// GatewayAbort signals the user closed the payment gateway.
type GatewayAbort struct {
	Reason string
}

func (e *GatewayAbort) Error() string {
	if e.Reason == "" {
		return "payment cancelled"
	}
	return "payment cancelled: " + e.Reason
}

// UserMessage returns the text to show to the user for err.
func UserMessage(err error) string {
	var (
		rejection    *BackendRejection
		validation   *ValidationError
		transport    *TransportError
		verification *VerificationFailure
		abort        *GatewayAbort
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejection):
		return rejection.Message
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &transport):
		return "Network problem, please check your connection and try again"
	case errors.As(err, &verification):
		return "Payment verification failed. Please check your orders or contact support."
	case errors.As(err, &abort):
		return "Payment cancelled"
	default:
		return err.Error()
	}
}
