package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// claimTimeout is how long a claimed attempt stays invisible to other reconcilers.
const claimTimeout = time.Minute

// pgxPool is the subset of *pgxpool.Pool used by Storage.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

var _ repository.Factory = (*Storage)(nil)

type attemptRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("attempt ledger ready")

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Attempts returns the checkout attempt ledger.
func (s *Storage) Attempts() repository.AttemptRepository {
	return &attemptRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS checkout_attempts (
            id TEXT PRIMARY KEY,
            session_id TEXT NOT NULL,
            owner TEXT NOT NULL,
            idempotency_key TEXT UNIQUE NOT NULL,
            payment_method TEXT NOT NULL,
            order_id TEXT NOT NULL DEFAULT '',
            order_number TEXT NOT NULL DEFAULT '',
            gateway_order_id TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL DEFAULT '',
            last_error TEXT NOT NULL DEFAULT '',
            reconciled BOOLEAN NOT NULL DEFAULT FALSE,
            claimed_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_unreconciled ON checkout_attempts(reconciled, status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_session ON checkout_attempts(session_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- AttemptRepository implementation ---

const attemptColumns = `id, session_id, owner, idempotency_key, payment_method, order_id, order_number,
                        gateway_order_id, status, payment_status, last_error, reconciled, created_at, updated_at`

func (r *attemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	const query = `INSERT INTO checkout_attempts
                   (id, session_id, owner, idempotency_key, payment_method, status)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   ON CONFLICT (idempotency_key) DO NOTHING
                   RETURNING created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query, a.ID, a.SessionID, a.Owner, a.IdempotencyKey, a.PaymentMethod, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrAlreadyRecorded
		}
		return err
	}
	return nil
}

func (r *attemptRepository) Update(ctx context.Context, a *model.Attempt) error {
	const query = `UPDATE checkout_attempts
                   SET order_id=$1, order_number=$2, gateway_order_id=$3, status=$4,
                       payment_status=$5, last_error=$6, updated_at=NOW()
                   WHERE id=$7`
	tag, err := r.storage.pool.Exec(ctx, query, a.OrderID, a.OrderNumber, a.GatewayOrderID, a.Status, a.PaymentStatus, a.LastError, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *attemptRepository) SelectBatchForReconciliation(ctx context.Context, limit int) ([]model.Attempt, error) {
	const selectQuery = `SELECT ` + attemptColumns + `
                         FROM checkout_attempts
                         WHERE reconciled = FALSE
                           AND order_id <> ''
                           AND status IN ('AWAITING_GATEWAY', 'VERIFYING', 'FAILED', 'ABANDONED')
                           AND (claimed_at IS NULL OR claimed_at < $2)
                         ORDER BY updated_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`

	var attempts []model.Attempt
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit, time.Now().Add(-claimTimeout))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanAttempt(rows)
			if err != nil {
				return err
			}
			attempts = append(attempts, a)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, a := range attempts {
			if _, err := tx.Exec(ctx, `UPDATE checkout_attempts SET claimed_at=NOW() WHERE id=$1`, a.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) MarkReconciled(ctx context.Context, id string, status model.PaymentStatus) error {
	const query = `UPDATE checkout_attempts
                   SET reconciled=TRUE, payment_status=$1, claimed_at=NULL, updated_at=NOW()
                   WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func scanAttempt(row pgx.Row) (model.Attempt, error) {
	var a model.Attempt
	err := row.Scan(&a.ID, &a.SessionID, &a.Owner, &a.IdempotencyKey, &a.PaymentMethod, &a.OrderID, &a.OrderNumber,
		&a.GatewayOrderID, &a.Status, &a.PaymentStatus, &a.LastError, &a.Reconciled, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
