package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/test"
)

func TestOrderUseCaseGetRejectsBlankID(t *testing.T) {
	stub := test.NewBackendStub()
	uc := NewOrderUseCase(stub)

	var validation *domainErrors.ValidationError
	if _, err := uc.Get(context.Background(), principal(), " "); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stub.CallCount("get_order") != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestOrderUseCaseGetPropagatesNotFound(t *testing.T) {
	uc := NewOrderUseCase(test.NewBackendStub())

	if _, err := uc.Get(context.Background(), principal(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderUseCaseListNewestFirst(t *testing.T) {
	stub := test.NewBackendStub()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stub.Orders["a"] = &model.Order{ID: "a", CreatedAt: base}
	stub.Orders["b"] = &model.Order{ID: "b", CreatedAt: base.Add(2 * time.Hour)}
	stub.Orders["c"] = &model.Order{ID: "c", CreatedAt: base.Add(time.Hour)}
	uc := NewOrderUseCase(stub)

	orders, err := uc.List(context.Background(), principal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{orders[0].ID, orders[1].ID, orders[2].ID}
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}
