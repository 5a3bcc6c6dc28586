package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	couponKey   = "#coupon"
	cartWideKey = "*"
)

// CartUseCase mirrors the backend cart per owner. Every mutation is a backend
// round-trip and the local copy is replaced only by a successful response.
// Responses are ordered by the sequence number taken when the call was issued,
// so a late answer never overwrites one issued after it.
type CartUseCase struct {
	backend backend.Client
	logger  *slog.Logger

	mu       sync.Mutex
	seq      uint64
	carts    map[string]*model.Cart
	versions map[string]uint64
	inflight map[string]map[string]struct{}
	refresh  singleflight.Group
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(client backend.Client, logger *slog.Logger) *CartUseCase {
	return &CartUseCase{
		backend:  client,
		logger:   logger,
		carts:    make(map[string]*model.Cart),
		versions: make(map[string]uint64),
		inflight: make(map[string]map[string]struct{}),
	}
}

// Get refreshes the cart from the backend. Concurrent refreshes for one owner share a round-trip.
func (u *CartUseCase) Get(ctx context.Context, p model.Principal) (*model.Cart, error) {
	v, err, _ := u.refresh.Do(p.Owner, func() (any, error) {
		seq := u.nextSeq()
		cart, err := u.backend.GetCart(ctx, p.Token)
		if err != nil {
			return nil, err
		}
		return u.store(p.Owner, seq, cart), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Cart).Clone(), nil
}

// Snapshot returns the last server-confirmed cart without a round-trip.
func (u *CartUseCase) Snapshot(owner string) (*model.Cart, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	cart, ok := u.carts[owner]
	if !ok {
		return nil, false
	}
	return cart.Clone(), true
}

// AddItem adds quantity units of the product.
func (u *CartUseCase) AddItem(ctx context.Context, p model.Principal, ref string, quantity int) (*model.Cart, error) {
	if err := validateLine(ref, quantity); err != nil {
		return nil, err
	}
	return u.mutate(ctx, p, ref, func(ctx context.Context) (*model.Cart, error) {
		return u.backend.AddToCart(ctx, p.Token, ref, quantity)
	})
}

// SetQuantity replaces the quantity of the product line.
func (u *CartUseCase) SetQuantity(ctx context.Context, p model.Principal, ref string, quantity int) (*model.Cart, error) {
	if err := validateLine(ref, quantity); err != nil {
		return nil, err
	}
	return u.mutate(ctx, p, ref, func(ctx context.Context) (*model.Cart, error) {
		return u.backend.UpdateCartItem(ctx, p.Token, ref, quantity)
	})
}

// RemoveItem drops the product line.
func (u *CartUseCase) RemoveItem(ctx context.Context, p model.Principal, ref string) (*model.Cart, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, domainErrors.NewValidationError("product is required", "productRef")
	}
	return u.mutate(ctx, p, ref, func(ctx context.Context) (*model.Cart, error) {
		return u.backend.RemoveFromCart(ctx, p.Token, ref)
	})
}

// ApplyCoupon asks the backend to attach the promo code.
func (u *CartUseCase) ApplyCoupon(ctx context.Context, p model.Principal, code string) (*model.Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domainErrors.NewValidationError("coupon code is required", "code")
	}
	return u.mutate(ctx, p, couponKey, func(ctx context.Context) (*model.Cart, error) {
		return u.backend.ApplyCoupon(ctx, p.Token, code)
	})
}

// RemoveCoupon detaches the promo code.
func (u *CartUseCase) RemoveCoupon(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return u.mutate(ctx, p, couponKey, func(ctx context.Context) (*model.Cart, error) {
		return u.backend.RemoveCoupon(ctx, p.Token)
	})
}

// Clear empties the cart.
func (u *CartUseCase) Clear(ctx context.Context, p model.Principal) (*model.Cart, error) {
	return u.mutate(ctx, p, cartWideKey, func(ctx context.Context) (*model.Cart, error) {
		return u.backend.ClearCart(ctx, p.Token)
	})
}

// Forget drops the local mirror of the owner.
func (u *CartUseCase) Forget(owner string) {
	u.mu.Lock()
	delete(u.carts, owner)
	delete(u.versions, owner)
	u.mu.Unlock()
}

func (u *CartUseCase) mutate(ctx context.Context, p model.Principal, key string, call func(context.Context) (*model.Cart, error)) (*model.Cart, error) {
	if !u.acquire(p.Owner, key) {
		return nil, domainErrors.ErrMutationInFlight
	}
	defer u.release(p.Owner, key)

	seq := u.nextSeq()
	cart, err := call(ctx)
	if err != nil {
		u.logger.Debug("cart mutation failed", slog.String("owner", p.Owner), slog.String("key", key), slog.Any("error", err))
		return nil, err
	}
	u.store(p.Owner, seq, cart)
	return cart.Clone(), nil
}

// acquire marks key as in flight. The cart-wide key excludes every other key of the owner.
func (u *CartUseCase) acquire(owner, key string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	keys := u.inflight[owner]
	if keys == nil {
		keys = make(map[string]struct{})
		u.inflight[owner] = keys
	}
	if _, busy := keys[cartWideKey]; busy {
		return false
	}
	if key == cartWideKey && len(keys) > 0 {
		return false
	}
	if _, busy := keys[key]; busy {
		return false
	}
	keys[key] = struct{}{}
	return true
}

func (u *CartUseCase) release(owner, key string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	keys := u.inflight[owner]
	delete(keys, key)
	if len(keys) == 0 {
		delete(u.inflight, owner)
	}
}

func (u *CartUseCase) nextSeq() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seq++
	return u.seq
}

// store replaces the mirror unless a call issued later has already landed, and
// returns the mirror as it stands afterwards.
func (u *CartUseCase) store(owner string, seq uint64, cart *model.Cart) *model.Cart {
	if cart == nil {
		cart = &model.Cart{}
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if current, ok := u.carts[owner]; ok && seq < u.versions[owner] {
		u.logger.Debug("stale cart response dropped", slog.String("owner", owner), slog.Uint64("seq", seq), slog.Uint64("stored", u.versions[owner]))
		return current.Clone()
	}
	u.carts[owner] = cart.Clone()
	u.versions[owner] = seq
	return cart.Clone()
}

func validateLine(ref string, quantity int) error {
	if strings.TrimSpace(ref) == "" {
		return domainErrors.NewValidationError("product is required", "productRef")
	}
	if quantity < 1 {
		return domainErrors.NewValidationError("quantity must be at least 1", "quantity")
	}
	return nil
}
