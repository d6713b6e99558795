package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var _ profitability.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Conflictos de serialización o deadlocks entre buckets se reintentan con backoff.
type TxRunner struct {
	pool       *pgxpool.Pool
	maxRetries uint64
	base       time.Duration
}

// NewTxRunner construye el runner con el pool (3 reintentos, base 50ms).
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, maxRetries: 3, base: 50 * time.Millisecond}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	calcRepo repository.CalculationRepository,
	aggRepo repository.AggregateRepository,
) error) error {
	b := retry.WithMaxRetries(r.maxRetries, retry.WithJitterPercent(10, retry.NewExponential(r.base)))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := r.runOnce(ctx, fn)
		if err != nil && isRetryableConflict(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(
	calcRepo repository.CalculationRepository,
	aggRepo repository.AggregateRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCalculationRepository(tx), NewAggregateRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
