package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/checkout"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// CartFacade describes cart operations exposed via HTTP.
type CartFacade interface {
	Cart(ctx context.Context, p model.Principal) (*model.Cart, error)
	AddToCart(ctx context.Context, p model.Principal, productRef string, quantity int) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, p model.Principal, productRef string, quantity int) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, p model.Principal, productRef string) (*model.Cart, error)
	ApplyCoupon(ctx context.Context, p model.Principal, code string) (*model.Cart, error)
	RemoveCoupon(ctx context.Context, p model.Principal) (*model.Cart, error)
	ClearCart(ctx context.Context, p model.Principal) (*model.Cart, error)
}

// CheckoutFacade drives checkout sessions.
type CheckoutFacade interface {
	StartCheckout(ctx context.Context, p model.Principal, hint *model.Coordinates) (checkout.Snapshot, error)
	Checkout(p model.Principal, id string) (checkout.Snapshot, error)
	AwaitCheckout(ctx context.Context, p model.Principal, id string) (checkout.Snapshot, error)
	UpdateAddress(p model.Principal, id string, addr model.ShippingAddress) (checkout.Snapshot, error)
	ConfirmAddress(p model.Principal, id string) (checkout.Snapshot, error)
	EditAddress(p model.Principal, id string) (checkout.Snapshot, error)
	SelectPaymentMethod(p model.Principal, id string, method model.PaymentMethod) (checkout.Snapshot, error)
	SubmitOrder(ctx context.Context, p model.Principal, id string) (checkout.Snapshot, error)
	RetryCheckout(p model.Principal, id string) (checkout.Snapshot, error)
	DiscardCheckout(p model.Principal, id string) error
	GatewaySucceeded(p model.Principal, id string, proof model.PaymentProof) (checkout.Snapshot, error)
	GatewayDismissed(p model.Principal, id string) (checkout.Snapshot, error)
	GatewayFailed(p model.Principal, id, reason string) (checkout.Snapshot, error)
}

// OrderFacade provides read access to placed orders.
type OrderFacade interface {
	Order(ctx context.Context, p model.Principal, orderID string) (*model.Order, error)
	Orders(ctx context.Context, p model.Principal) ([]model.Order, error)
}

// HealthFacade reports readiness of the service dependencies.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	CartFacade
	CheckoutFacade
	OrderFacade
	HealthFacade
}
