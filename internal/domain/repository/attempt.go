package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AttemptRepository persists the checkout attempt ledger.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *model.Attempt) error
	Update(ctx context.Context, attempt *model.Attempt) error
	SelectBatchForReconciliation(ctx context.Context, limit int) ([]model.Attempt, error)
	MarkReconciled(ctx context.Context, id string, status model.PaymentStatus) error
}
