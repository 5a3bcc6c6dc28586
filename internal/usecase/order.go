package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderUseCase serves read-only order views. Orders are never mutated here.
type OrderUseCase struct {
	backend backend.Client
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(client backend.Client) *OrderUseCase {
	return &OrderUseCase{backend: client}
}

// Get returns a single order of the caller.
func (u *OrderUseCase) Get(ctx context.Context, p model.Principal, orderID string) (*model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domainErrors.NewValidationError("order id is required", "orderId")
	}
	return u.backend.GetOrder(ctx, p.Token, orderID)
}

// List returns the caller's orders, newest first.
func (u *OrderUseCase) List(ctx context.Context, p model.Principal) ([]model.Order, error) {
	orders, err := u.backend.ListOrders(ctx, p.Token)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
