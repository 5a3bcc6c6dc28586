package app

import (
	"context"

	"github.com/polkiloo/storefront/internal/checkout"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/usecase"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorefrontFacade binds use cases and the checkout orchestrator behind the
// interfaces consumed by HTTP handlers and the reconciliation worker.
type StorefrontFacade struct {
	carts        *usecase.CartUseCase
	orders       *usecase.OrderUseCase
	checkout     *checkout.Orchestrator
	attempts     repository.AttemptRepository
	health       HealthChecker
	serviceToken string
}

// NewStorefrontFacade constructs StorefrontFacade. attempts and health may be nil.
func NewStorefrontFacade(
	carts *usecase.CartUseCase,
	orders *usecase.OrderUseCase,
	orchestrator *checkout.Orchestrator,
	attempts repository.AttemptRepository,
	health HealthChecker,
	serviceToken string,
) *StorefrontFacade {
	return &StorefrontFacade{
		carts:        carts,
		orders:       orders,
		checkout:     orchestrator,
		attempts:     attempts,
		health:       health,
		serviceToken: serviceToken,
	}
}

func (f *StorefrontFacade) Cart(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return f.carts.Get(ctx, p)
}

func (f *StorefrontFacade) AddToCart(ctx context.Context, p model.Principal, productRef string, quantity int) (*model.Cart, error) {
	return f.carts.AddItem(ctx, p, productRef, quantity)
}

func (f *StorefrontFacade) UpdateCartItem(ctx context.Context, p model.Principal, productRef string, quantity int) (*model.Cart, error) {
	return f.carts.SetQuantity(ctx, p, productRef, quantity)
}

func (f *StorefrontFacade) RemoveFromCart(ctx context.Context, p model.Principal, productRef string) (*model.Cart, error) {
	return f.carts.RemoveItem(ctx, p, productRef)
}

func (f *StorefrontFacade) ApplyCoupon(ctx context.Context, p model.Principal, code string) (*model.Cart, error) {
	return f.carts.ApplyCoupon(ctx, p, code)
}

func (f *StorefrontFacade) RemoveCoupon(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return f.carts.RemoveCoupon(ctx, p)
}

func (f *StorefrontFacade) ClearCart(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return f.carts.Clear(ctx, p)
}

func (f *StorefrontFacade) StartCheckout(ctx context.Context, p model.Principal, hint *model.Coordinates) (checkout.Snapshot, error) {
	return f.checkout.Start(ctx, p, hint)
}

func (f *StorefrontFacade) Checkout(p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.Get(p, id)
}

func (f *StorefrontFacade) AwaitCheckout(ctx context.Context, p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.AwaitSettled(ctx, p, id)
}

func (f *StorefrontFacade) UpdateAddress(p model.Principal, id string, addr model.ShippingAddress) (checkout.Snapshot, error) {
	return f.checkout.UpdateAddress(p, id, addr)
}

func (f *StorefrontFacade) ConfirmAddress(p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.ConfirmAddress(p, id)
}

func (f *StorefrontFacade) EditAddress(p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.EditAddress(p, id)
}

func (f *StorefrontFacade) SelectPaymentMethod(p model.Principal, id string, method model.PaymentMethod) (checkout.Snapshot, error) {
	return f.checkout.SelectPaymentMethod(p, id, method)
}

func (f *StorefrontFacade) SubmitOrder(ctx context.Context, p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.Submit(ctx, p, id)
}

func (f *StorefrontFacade) RetryCheckout(p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.Retry(p, id)
}

func (f *StorefrontFacade) DiscardCheckout(p model.Principal, id string) error {
	return f.checkout.Discard(p, id)
}

func (f *StorefrontFacade) GatewaySucceeded(p model.Principal, id string, proof model.PaymentProof) (checkout.Snapshot, error) {
	return f.checkout.GatewaySucceeded(p, id, proof)
}

func (f *StorefrontFacade) GatewayDismissed(p model.Principal, id string) (checkout.Snapshot, error) {
	return f.checkout.GatewayDismissed(p, id)
}

func (f *StorefrontFacade) GatewayFailed(p model.Principal, id, reason string) (checkout.Snapshot, error) {
	return f.checkout.GatewayFailed(p, id, reason)
}

func (f *StorefrontFacade) Order(ctx context.Context, p model.Principal, orderID string) (*model.Order, error) {
	return f.orders.Get(ctx, p, orderID)
}

func (f *StorefrontFacade) Orders(ctx context.Context, p model.Principal) ([]model.Order, error) {
	return f.orders.List(ctx, p)
}

// Ping succeeds when no health checker is configured.
func (f *StorefrontFacade) Ping(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}

func (f *StorefrontFacade) AttemptsForReconciliation(ctx context.Context, limit int) ([]model.Attempt, error) {
	if f.attempts == nil {
		return nil, nil
	}
	return f.attempts.SelectBatchForReconciliation(ctx, limit)
}

// RemoteOrder reads the order with the service credential, the shopper's token
// is gone by the time an attempt is reconciled.
func (f *StorefrontFacade) RemoteOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return f.orders.Get(ctx, model.Principal{Owner: "reconciler", Token: f.serviceToken}, orderID)
}

func (f *StorefrontFacade) MarkReconciled(ctx context.Context, attemptID string, status model.PaymentStatus) error {
	if f.attempts == nil {
		return nil
	}
	return f.attempts.MarkReconciled(ctx, attemptID, status)
}
