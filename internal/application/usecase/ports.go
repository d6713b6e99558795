package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/Rentabilidad-api/internal/application/scheduler"
)

// RecalcTrigger disparadores de recálculo (implementado por scheduler.Triggers).
type RecalcTrigger interface {
	LineIngested(lineIDs ...string) scheduler.Result
	TriggerOrder(ctx context.Context, sellerID, orderID string) (scheduler.Result, error)
	ProductCostChanged(ctx context.Context, sellerID, barcode string, effectiveFrom time.Time) (scheduler.Result, error)
	RecalculateProduct(ctx context.Context, sellerID, barcode string) (scheduler.Result, error)
}

var _ RecalcTrigger = (*scheduler.Triggers)(nil)
