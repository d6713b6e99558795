package profitability

import (
	"context"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, con repositorios atados a esa tx.
// El upsert del cálculo y los deltas de agregados se confirman juntos o no se confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		calcRepo repository.CalculationRepository,
		aggRepo repository.AggregateRepository,
	) error) error
}
