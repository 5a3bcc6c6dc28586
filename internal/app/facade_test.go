package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	"github.com/polkiloo/storefront/internal/adapter/gateway"
	"github.com/polkiloo/storefront/internal/checkout"
	"github.com/polkiloo/storefront/internal/domain/model"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/usecase"
)

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestFacade(t *testing.T, health HealthChecker) (*StorefrontFacade, *testhelpers.BackendStub, *testhelpers.AttemptRepoStub) {
	t.Helper()
	logger := testLogger()
	stub := testhelpers.NewBackendStub()
	stub.Catalog["kettle"] = testhelpers.Product{Name: "Kettle", Price: decimal.NewFromInt(1000)}

	carts := usecase.NewCartUseCase(stub, logger)
	orders := usecase.NewOrderUseCase(stub)
	addresses := usecase.NewAddressUseCase(stub, nil, time.Second, logger)
	attempts := testhelpers.NewAttemptRepoStub()
	orch := checkout.NewOrchestrator(stub, carts, addresses, gateway.NewHosted(logger), attempts, checkout.Options{
		ConfirmInterval: time.Millisecond,
		ConfirmAttempts: 2,
		SessionTTL:      time.Minute,
	}, logger)
	t.Cleanup(orch.Close)

	return NewStorefrontFacade(carts, orders, orch, attempts, health, "service-token"), stub, attempts
}

func TestStorefrontFacadeCart(t *testing.T) {
	facade, stub, _ := newTestFacade(t, nil)
	ctx := context.Background()
	p := model.Principal{Owner: "owner", Token: "token"}

	cart, err := facade.AddToCart(ctx, p, "kettle", 1)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one item, got %+v", cart.Items)
	}

	cart, err = facade.UpdateCartItem(ctx, p, "kettle", 3)
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if item, _ := cart.Item("kettle"); item.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", item.Quantity)
	}

	if _, err := facade.ApplyCoupon(ctx, p, "SAVE10"); err != nil {
		t.Fatalf("apply coupon returned error: %v", err)
	}
	cart, err = facade.RemoveCoupon(ctx, p)
	if err != nil || cart.Coupon != nil {
		t.Fatalf("expected coupon removed, got %+v err=%v", cart.Coupon, err)
	}

	if _, err := facade.RemoveFromCart(ctx, p, "kettle"); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	cart, err = facade.Cart(ctx, p)
	if err != nil || !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v err=%v", cart, err)
	}

	if _, err := facade.AddToCart(ctx, p, "kettle", 1); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	cart, err = facade.ClearCart(ctx, p)
	if err != nil || !cart.IsEmpty() {
		t.Fatalf("expected cleared cart, got %+v err=%v", cart, err)
	}
	if stub.CallCount("clear") != 1 {
		t.Fatalf("expected one clear call, got %d", stub.CallCount("clear"))
	}
}

func TestStorefrontFacadeCheckoutAndOrders(t *testing.T) {
	facade, stub, attempts := newTestFacade(t, nil)
	ctx := context.Background()
	p := model.Principal{Owner: "owner", Token: "token"}

	if _, err := facade.AddToCart(ctx, p, "kettle", 2); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	snap, err := facade.StartCheckout(ctx, p, nil)
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	addr := model.ShippingAddress{
		FullName: "Asha Rao", AddressLine1: "12 MG Road", City: "Bengaluru",
		State: "Karnataka", Pincode: "560001", Country: "India", Phone: "9876543210",
	}
	if _, err := facade.UpdateAddress(p, snap.ID, addr); err != nil {
		t.Fatalf("update address returned error: %v", err)
	}
	if _, err := facade.ConfirmAddress(p, snap.ID); err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	if _, err := facade.EditAddress(p, snap.ID); err != nil {
		t.Fatalf("edit returned error: %v", err)
	}
	if _, err := facade.ConfirmAddress(p, snap.ID); err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	if _, err := facade.SelectPaymentMethod(p, snap.ID, model.PaymentCOD); err != nil {
		t.Fatalf("select returned error: %v", err)
	}
	if _, err := facade.SubmitOrder(ctx, p, snap.ID); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	settled, err := facade.AwaitCheckout(waitCtx, p, snap.ID)
	if err != nil {
		t.Fatalf("await returned error: %v", err)
	}
	if settled.Step != checkout.StepSucceeded || settled.Order == nil {
		t.Fatalf("expected succeeded checkout, got %+v", settled)
	}

	current, err := facade.Checkout(p, snap.ID)
	if err != nil || current.Step != checkout.StepSucceeded {
		t.Fatalf("unexpected checkout view %+v err=%v", current, err)
	}

	order, err := facade.Order(ctx, p, settled.Order.ID)
	if err != nil || order.ID != settled.Order.ID {
		t.Fatalf("unexpected order %+v err=%v", order, err)
	}
	list, err := facade.Orders(ctx, p)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one order, got %v err=%v", list, err)
	}
	if len(attempts.All()) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(attempts.All()))
	}
	if stub.CallCount("clear") != 1 {
		t.Fatalf("expected cart to be cleared once, got %d", stub.CallCount("clear"))
	}
}

func TestStorefrontFacadeRetryAfterRejection(t *testing.T) {
	facade, stub, _ := newTestFacade(t, nil)
	ctx := context.Background()
	p := model.Principal{Owner: "owner", Token: "token"}
	stub.Seed(p.Token, "kettle", "Kettle", decimal.NewFromInt(1000), 1)
	stub.Profiles[p.Token] = &model.Profile{Addresses: []model.SavedAddress{{
		ShippingAddress: model.ShippingAddress{
			FullName: "Asha Rao", AddressLine1: "12 MG Road", City: "Bengaluru",
			State: "Karnataka", Pincode: "560001", Country: "India", Phone: "9876543210",
		},
		IsDefault: true,
	}}}
	stub.CreateOrderFn = func(context.Context, string, backend.CreateOrderRequest) (*model.PlacedOrder, error) {
		return nil, errors.New("boom")
	}

	snap, err := facade.StartCheckout(ctx, p, nil)
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	if _, err := facade.ConfirmAddress(p, snap.ID); err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	failed, err := facade.SubmitOrder(ctx, p, snap.ID)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if failed.Step != checkout.StepFailed || failed.Failure == nil || failed.Failure.Kind != checkout.FailureRetryable {
		t.Fatalf("expected retryable failure, got %+v", failed)
	}

	retried, err := facade.RetryCheckout(p, snap.ID)
	if err != nil || retried.Step != checkout.StepPaymentSelection {
		t.Fatalf("expected payment selection after retry, got %+v err=%v", retried, err)
	}
	if err := facade.DiscardCheckout(p, snap.ID); err != nil {
		t.Fatalf("discard returned error: %v", err)
	}
	if _, err := facade.Checkout(p, snap.ID); err == nil {
		t.Fatal("expected discarded session to be gone")
	}
}

func TestStorefrontFacadeReconciliation(t *testing.T) {
	facade, stub, attempts := newTestFacade(t, nil)
	ctx := context.Background()

	var seenToken string
	stub.GetOrderFn = func(_ context.Context, token, orderID string) (*model.Order, error) {
		seenToken = token
		return &model.Order{ID: orderID, Payment: model.Payment{Status: model.PaymentStatusCompleted}}, nil
	}
	order, err := facade.RemoteOrder(ctx, "order-9")
	if err != nil || order.ID != "order-9" {
		t.Fatalf("unexpected remote order %+v err=%v", order, err)
	}
	if seenToken != "service-token" {
		t.Fatalf("expected service token to be used, got %q", seenToken)
	}

	attempt := &model.Attempt{
		ID:             "a1",
		IdempotencyKey: "k1",
		OrderID:        "order-9",
		PaymentMethod:  model.PaymentOnline,
		Status:         model.AttemptAbandoned,
	}
	if err := attempts.Create(ctx, attempt); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	batch, err := facade.AttemptsForReconciliation(ctx, 10)
	if err != nil || len(batch) != 1 {
		t.Fatalf("expected one attempt, got %v err=%v", batch, err)
	}
	if err := facade.MarkReconciled(ctx, "a1", model.PaymentStatusCompleted); err != nil {
		t.Fatalf("mark returned error: %v", err)
	}
	batch, _ = facade.AttemptsForReconciliation(ctx, 10)
	if len(batch) != 0 {
		t.Fatalf("expected reconciled attempt to leave the batch, got %v", batch)
	}
}

func TestStorefrontFacadeWithoutLedger(t *testing.T) {
	facade := NewStorefrontFacade(nil, nil, nil, nil, nil, "")
	batch, err := facade.AttemptsForReconciliation(context.Background(), 5)
	if err != nil || batch != nil {
		t.Fatalf("expected empty batch, got %v err=%v", batch, err)
	}
	if err := facade.MarkReconciled(context.Background(), "a1", model.PaymentStatusFailed); err != nil {
		t.Fatalf("expected no-op mark, got %v", err)
	}
	if err := facade.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping without checker to succeed, got %v", err)
	}
}

func TestStorefrontFacadePing(t *testing.T) {
	down := errors.New("database down")
	facade, _, _ := newTestFacade(t, healthStub{err: down})
	if err := facade.Ping(context.Background()); !errors.Is(err, down) {
		t.Fatalf("expected health error, got %v", err)
	}
	facade, _, _ = newTestFacade(t, healthStub{})
	if err := facade.Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy ping, got %v", err)
	}
}
