package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// ReconciliationFacade exposes the subset of application functionality required by the worker.
type ReconciliationFacade interface {
	AttemptsForReconciliation(ctx context.Context, limit int) ([]model.Attempt, error)
	RemoteOrder(ctx context.Context, orderID string) (*model.Order, error)
	MarkReconciled(ctx context.Context, attemptID string, status model.PaymentStatus) error
}

// Reconciler polls checkout attempts that ended without a confirmed payment and
// records the payment state the backend settled on.
type Reconciler struct {
	facade       ReconciliationFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Attempt
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs reconciliation worker pool.
func NewReconciler(facade ReconciliationFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Reconciler{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Attempt, batchSize*workers),
	}
}

// Start launches background processing.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *Reconciler) fetchAndDispatch(ctx context.Context) {
	attempts, err := r.facade.AttemptsForReconciliation(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch attempts for reconciliation failed", slog.String("error", err.Error()))
		return
	}
	for _, attempt := range attempts {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- attempt:
		}
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case attempt, ok := <-r.jobs:
			if !ok {
				return
			}
			r.handleAttempt(ctx, attempt)
		}
	}
}

func (r *Reconciler) handleAttempt(ctx context.Context, attempt model.Attempt) {
	order, err := r.facade.RemoteOrder(ctx, attempt.OrderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			r.logger.Warn("order of checkout attempt is gone", slog.String("attempt", attempt.ID), slog.String("order", attempt.OrderID))
			r.mark(ctx, attempt, model.PaymentStatusFailed)
			return
		}
		r.logger.Error("order lookup failed", slog.String("attempt", attempt.ID), slog.String("error", err.Error()))
		return
	}

	status := order.Payment.Status
	switch {
	case order.Payment.Method == model.PaymentCOD:
		// collected on delivery, nothing to wait for
	case status == model.PaymentStatusPending:
		r.logger.Debug("payment still pending", slog.String("attempt", attempt.ID), slog.String("order", order.Number))
		return
	case status == model.PaymentStatusCompleted && attempt.Status != model.AttemptSucceeded:
		r.logger.Warn("payment captured for unfinished checkout",
			slog.String("attempt", attempt.ID),
			slog.String("order", order.Number),
			slog.String("attempt_status", string(attempt.Status)),
		)
	}
	r.mark(ctx, attempt, status)
}

func (r *Reconciler) mark(ctx context.Context, attempt model.Attempt, status model.PaymentStatus) {
	if err := r.facade.MarkReconciled(ctx, attempt.ID, status); err != nil {
		r.logger.Error("mark attempt reconciled failed", slog.String("attempt", attempt.ID), slog.String("error", err.Error()))
	}
}
