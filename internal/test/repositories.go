package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// AttemptRepoStub keeps the checkout attempt ledger in memory.
type AttemptRepoStub struct {
	CreateErr error
	UpdateErr error

	mu       sync.Mutex
	attempts map[string]model.Attempt
	history  map[string][]model.AttemptStatus
}

// NewAttemptRepoStub constructs empty ledger stub.
func NewAttemptRepoStub() *AttemptRepoStub {
	return &AttemptRepoStub{
		attempts: make(map[string]model.Attempt),
		history:  make(map[string][]model.AttemptStatus),
	}
}

func (r *AttemptRepoStub) Create(ctx context.Context, attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, a := range r.attempts {
		if a.IdempotencyKey == attempt.IdempotencyKey {
			return domainErrors.ErrAlreadyRecorded
		}
	}
	r.attempts[attempt.ID] = *attempt
	r.history[attempt.ID] = append(r.history[attempt.ID], attempt.Status)
	return nil
}

func (r *AttemptRepoStub) Update(ctx context.Context, attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	if _, ok := r.attempts[attempt.ID]; !ok {
		return domainErrors.ErrNotFound
	}
	r.attempts[attempt.ID] = *attempt
	r.history[attempt.ID] = append(r.history[attempt.ID], attempt.Status)
	return nil
}

func (r *AttemptRepoStub) SelectBatchForReconciliation(ctx context.Context, limit int) ([]model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attempt
	for _, a := range r.attempts {
		if len(out) == limit {
			break
		}
		if !a.Reconciled && a.OrderID != "" && a.Status.NeedsReconciliation() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AttemptRepoStub) MarkReconciled(ctx context.Context, id string, status model.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	a.Reconciled = true
	a.PaymentStatus = status
	r.attempts[id] = a
	return nil
}

// All returns a copy of recorded attempts.
func (r *AttemptRepoStub) All() []model.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Attempt, 0, len(r.attempts))
	for _, a := range r.attempts {
		out = append(out, a)
	}
	return out
}

// History returns the statuses an attempt went through.
func (r *AttemptRepoStub) History(id string) []model.AttemptStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AttemptStatus(nil), r.history[id]...)
}
