package test

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pricing"
)

// Product is a catalog entry known to BackendStub.
type Product struct {
	Name  string
	Price decimal.Decimal
}

// VerifyCall records a VerifyPayment invocation.
type VerifyCall struct {
	Token   string
	OrderID string
	Proof   model.PaymentProof
}

// BackendStub is an in-memory storefront backend. Carts are kept per token and
// priced the way the backend does. Every *Fn override wins over the default.
type BackendStub struct {
	mu sync.Mutex

	Catalog  map[string]Product
	Coupons  map[string]model.Coupon
	Carts    map[string]*model.Cart
	Orders   map[string]*model.Order
	Profiles map[string]*model.Profile
	Live     bool // create orders with a gateway order id

	// BeforeCart runs before every cart call, outside the stub lock.
	BeforeCart      func(op string) error
	CreateOrderFn   func(context.Context, string, backend.CreateOrderRequest) (*model.PlacedOrder, error)
	VerifyPaymentFn func(context.Context, string, string, model.PaymentProof) (*model.Order, error)
	GetOrderFn      func(context.Context, string, string) (*model.Order, error)
	ProfileFn       func(context.Context, string) (*model.Profile, error)

	Calls          map[string]int
	CreateRequests []backend.CreateOrderRequest
	VerifyCalls    []VerifyCall
	next           int
}

// NewBackendStub constructs stub with initialized maps and a SAVE10 coupon.
func NewBackendStub() *BackendStub {
	return &BackendStub{
		Catalog: make(map[string]Product),
		Coupons: map[string]model.Coupon{
			"SAVE10": {Code: "SAVE10", Kind: model.DiscountPercentage, Value: decimal.NewFromInt(10)},
		},
		Carts:    make(map[string]*model.Cart),
		Orders:   make(map[string]*model.Order),
		Profiles: make(map[string]*model.Profile),
		Calls:    make(map[string]int),
		Live:     true,
	}
}

// Seed puts quantity units of a catalog product into the token's cart.
func (s *BackendStub) Seed(token, ref, name string, price decimal.Decimal, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Catalog[ref] = Product{Name: name, Price: price}
	cart := s.cartLocked(token)
	cart.Items = append(cart.Items, model.CartItem{ProductRef: ref, Name: name, UnitPrice: price, Quantity: quantity})
	reprice(cart)
}

// CallCount returns how many times op was invoked.
func (s *BackendStub) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

// CartOf returns a copy of the token's cart.
func (s *BackendStub) CartOf(token string) *model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(token).Clone()
}

// Verifications returns recorded VerifyPayment calls.
func (s *BackendStub) Verifications() []VerifyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VerifyCall(nil), s.VerifyCalls...)
}

// Creations returns recorded CreateOrder requests.
func (s *BackendStub) Creations() []backend.CreateOrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.CreateOrderRequest(nil), s.CreateRequests...)
}

func (s *BackendStub) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	return s.cartOp("get", token, func(cart *model.Cart) error { return nil })
}

func (s *BackendStub) AddToCart(ctx context.Context, token, ref string, quantity int) (*model.Cart, error) {
	return s.cartOp("add", token, func(cart *model.Cart) error {
		product, ok := s.Catalog[ref]
		if !ok {
			return &domainErrors.BackendRejection{Status: http.StatusNotFound, Message: "Product not found"}
		}
		for i := range cart.Items {
			if cart.Items[i].ProductRef == ref {
				cart.Items[i].Quantity += quantity
				return nil
			}
		}
		cart.Items = append(cart.Items, model.CartItem{ProductRef: ref, Name: product.Name, UnitPrice: product.Price, Quantity: quantity})
		return nil
	})
}

func (s *BackendStub) UpdateCartItem(ctx context.Context, token, ref string, quantity int) (*model.Cart, error) {
	return s.cartOp("update", token, func(cart *model.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductRef == ref {
				cart.Items[i].Quantity = quantity
				return nil
			}
		}
		return &domainErrors.BackendRejection{Status: http.StatusNotFound, Message: "Item not found in cart"}
	})
}

func (s *BackendStub) RemoveFromCart(ctx context.Context, token, ref string) (*model.Cart, error) {
	return s.cartOp("remove", token, func(cart *model.Cart) error {
		items := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ProductRef != ref {
				items = append(items, it)
			}
		}
		cart.Items = items
		return nil
	})
}

func (s *BackendStub) ApplyCoupon(ctx context.Context, token, code string) (*model.Cart, error) {
	return s.cartOp("apply_coupon", token, func(cart *model.Cart) error {
		coupon, ok := s.Coupons[code]
		if !ok {
			return &domainErrors.BackendRejection{Status: http.StatusBadRequest, Message: "Invalid coupon code"}
		}
		cart.Coupon = &coupon
		return nil
	})
}

func (s *BackendStub) RemoveCoupon(ctx context.Context, token string) (*model.Cart, error) {
	return s.cartOp("remove_coupon", token, func(cart *model.Cart) error {
		cart.Coupon = nil
		return nil
	})
}

func (s *BackendStub) ClearCart(ctx context.Context, token string) (*model.Cart, error) {
	return s.cartOp("clear", token, func(cart *model.Cart) error {
		cart.Items = nil
		cart.Coupon = nil
		return nil
	})
}

func (s *BackendStub) CreateOrder(ctx context.Context, token string, req backend.CreateOrderRequest) (*model.PlacedOrder, error) {
	s.mu.Lock()
	s.Calls["create_order"]++
	s.CreateRequests = append(s.CreateRequests, req)
	fn := s.CreateOrderFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, token, req)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(token)
	if cart.IsEmpty() {
		return nil, &domainErrors.BackendRejection{Status: http.StatusBadRequest, Message: "Cart is empty"}
	}
	s.next++
	totals := pricing.ComputeTotals(cart, req.Method)
	order := &model.Order{
		ID:     fmt.Sprintf("order-%d", s.next),
		Number: fmt.Sprintf("ORD-%04d", s.next),
		Pricing: model.Pricing{
			Subtotal:    totals.Subtotal,
			Tax:         totals.Tax,
			Discount:    totals.Discount,
			ShippingFee: totals.ShippingFee,
			HandlingFee: totals.HandlingFee,
			Total:       totals.Total,
		},
		Payment:         model.Payment{Method: req.Method, Status: model.PaymentStatusPending},
		Status:          model.OrderStatusPending,
		ShippingAddress: req.Address,
	}
	for _, it := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{ProductRef: it.ProductRef, Name: it.Name, UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	placed := &model.PlacedOrder{Order: order}
	if req.Method == model.PaymentOnline && s.Live {
		placed.GatewayOrderID = fmt.Sprintf("gw_order_%d", s.next)
		placed.GatewayKey = "rzp_test_key"
		order.Payment.GatewayOrderID = placed.GatewayOrderID
	}
	if req.Method == model.PaymentCOD {
		order.Status = model.OrderStatusConfirmed
	}
	stored := *order
	s.Orders[order.ID] = &stored
	return placed, nil
}

func (s *BackendStub) VerifyPayment(ctx context.Context, token, orderID string, proof model.PaymentProof) (*model.Order, error) {
	s.mu.Lock()
	s.Calls["verify_payment"]++
	s.VerifyCalls = append(s.VerifyCalls, VerifyCall{Token: token, OrderID: orderID, Proof: proof})
	fn := s.VerifyPaymentFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, token, orderID, proof)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, &domainErrors.BackendRejection{Status: http.StatusNotFound, Message: "Order not found"}
	}
	order.Payment.Status = model.PaymentStatusCompleted
	order.Payment.GatewayPaymentID = proof.GatewayPaymentID
	order.Payment.GatewaySignature = proof.GatewaySignature
	order.Status = model.OrderStatusConfirmed
	out := *order
	return &out, nil
}

func (s *BackendStub) GetOrder(ctx context.Context, token, orderID string) (*model.Order, error) {
	s.mu.Lock()
	s.Calls["get_order"]++
	fn := s.GetOrderFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, token, orderID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, &domainErrors.BackendRejection{Status: http.StatusNotFound, Message: "Order not found"}
	}
	out := *order
	return &out, nil
}

func (s *BackendStub) ListOrders(ctx context.Context, token string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["list_orders"]++
	orders := make([]model.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *BackendStub) Profile(ctx context.Context, token string) (*model.Profile, error) {
	s.mu.Lock()
	s.Calls["profile"]++
	fn := s.ProfileFn
	profile, ok := s.Profiles[token]
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, token)
	}
	if !ok {
		return &model.Profile{}, nil
	}
	out := *profile
	return &out, nil
}

func (s *BackendStub) cartOp(op, token string, apply func(cart *model.Cart) error) (*model.Cart, error) {
	s.mu.Lock()
	s.Calls[op]++
	before := s.BeforeCart
	s.mu.Unlock()
	if before != nil {
		if err := before(op); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(token)
	working := cart.Clone()
	if err := apply(working); err != nil {
		return nil, err
	}
	reprice(working)
	s.Carts[token] = working
	return working.Clone(), nil
}

func (s *BackendStub) cartLocked(token string) *model.Cart {
	cart, ok := s.Carts[token]
	if !ok {
		cart = &model.Cart{}
		s.Carts[token] = cart
	}
	return cart
}

func reprice(cart *model.Cart) {
	totals := pricing.ComputeTotals(cart, model.PaymentOnline)
	cart.Subtotal = totals.Subtotal
	cart.Discount = totals.Discount
	cart.Tax = totals.Tax
	cart.ShippingFee = totals.ShippingFee
	cart.Total = totals.Total
}

// GeocoderStub returns a fixed location or error.
type GeocoderStub struct {
	Location  *model.Location
	Err       error
	ReverseFn func(context.Context, model.Coordinates) (*model.Location, error)

	mu    sync.Mutex
	calls int
}

// Reverse returns configured response.
func (g *GeocoderStub) Reverse(ctx context.Context, at model.Coordinates) (*model.Location, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.ReverseFn != nil {
		return g.ReverseFn(ctx, at)
	}
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Location == nil {
		return nil, fmt.Errorf("no location")
	}
	loc := *g.Location
	return &loc, nil
}

// Calls returns how many lookups were made.
func (g *GeocoderStub) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
