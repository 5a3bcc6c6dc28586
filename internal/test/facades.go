package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// ReconcileCall stores information about MarkReconciled invocations.
type ReconcileCall struct {
	AttemptID string
	Status    model.PaymentStatus
}

// ReconcileFacadeStub mimics worker interactions with the application facade.
type ReconcileFacadeStub struct {
	Attempts      [][]model.Attempt
	AttemptsFn    func(context.Context, int) ([]model.Attempt, error)
	RemoteOrderFn func(context.Context, string) (*model.Order, error)
	MarkFn        func(context.Context, string, model.PaymentStatus) error
	Marks         []ReconcileCall

	mu        sync.Mutex
	callCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *ReconcileFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *ReconcileFacadeStub) Unlock() { s.mu.Unlock() }

// AttemptsForReconciliation returns batches from configured queue.
func (s *ReconcileFacadeStub) AttemptsForReconciliation(ctx context.Context, limit int) ([]model.Attempt, error) {
	if s.AttemptsFn != nil {
		return s.AttemptsFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.callCount, 1)
	if int(call) <= len(s.Attempts) {
		return s.Attempts[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// RemoteOrder returns configured order or a completed online order.
func (s *ReconcileFacadeStub) RemoteOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if s.RemoteOrderFn != nil {
		return s.RemoteOrderFn(ctx, orderID)
	}
	return &model.Order{
		ID:      orderID,
		Payment: model.Payment{Method: model.PaymentOnline, Status: model.PaymentStatusCompleted},
	}, nil
}

// MarkReconciled records reconciliation requests.
func (s *ReconcileFacadeStub) MarkReconciled(ctx context.Context, attemptID string, status model.PaymentStatus) error {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, attemptID, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Marks = append(s.Marks, ReconcileCall{AttemptID: attemptID, Status: status})
	return nil
}

// CartFacadeStub serves a fixed cart for every cart operation unless a *Fn is set.
type CartFacadeStub struct {
	Current  *model.Cart
	Err      error
	AddFn    func(context.Context, model.Principal, string, int) (*model.Cart, error)
	UpdateFn func(context.Context, model.Principal, string, int) (*model.Cart, error)
	CouponFn func(context.Context, model.Principal, string) (*model.Cart, error)
}

func (s *CartFacadeStub) result() (*model.Cart, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Current == nil {
		return &model.Cart{}, nil
	}
	return s.Current, nil
}

// Cart returns the configured cart.
func (s *CartFacadeStub) Cart(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return s.result()
}

// AddToCart delegates to AddFn when set.
func (s *CartFacadeStub) AddToCart(ctx context.Context, p model.Principal, ref string, quantity int) (*model.Cart, error) {
	if s.AddFn != nil {
		return s.AddFn(ctx, p, ref, quantity)
	}
	return s.result()
}

// UpdateCartItem delegates to UpdateFn when set.
func (s *CartFacadeStub) UpdateCartItem(ctx context.Context, p model.Principal, ref string, quantity int) (*model.Cart, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, p, ref, quantity)
	}
	return s.result()
}

// RemoveFromCart returns the configured cart.
func (s *CartFacadeStub) RemoveFromCart(ctx context.Context, p model.Principal, ref string) (*model.Cart, error) {
	return s.result()
}

// ApplyCoupon delegates to CouponFn when set.
func (s *CartFacadeStub) ApplyCoupon(ctx context.Context, p model.Principal, code string) (*model.Cart, error) {
	if s.CouponFn != nil {
		return s.CouponFn(ctx, p, code)
	}
	return s.result()
}

// RemoveCoupon returns the configured cart.
func (s *CartFacadeStub) RemoveCoupon(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return s.result()
}

// ClearCart always returns an empty cart unless Err is set.
func (s *CartFacadeStub) ClearCart(ctx context.Context, p model.Principal) (*model.Cart, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &model.Cart{}, nil
}

// OrderFacadeStub provides configurable order reads.
type OrderFacadeStub struct {
	OrdersFn func(context.Context, model.Principal) ([]model.Order, error)
	OrderFn  func(context.Context, model.Principal, string) (*model.Order, error)
}

// Orders returns OrdersFn result or nothing.
func (s OrderFacadeStub) Orders(ctx context.Context, p model.Principal) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, p)
	}
	return nil, nil
}

// Order returns OrderFn result or a bare order with the requested id.
func (s OrderFacadeStub) Order(ctx context.Context, p model.Principal, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, p, orderID)
	}
	return &model.Order{ID: orderID}, nil
}

// HealthFacadeStub reports Err from Ping.
type HealthFacadeStub struct {
	Err error
}

// Ping returns configured error.
func (s HealthFacadeStub) Ping(context.Context) error {
	return s.Err
}
