package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// OrderLineRepository líneas de orden ingeridas. Las líneas son inmutables: Create ignora
// duplicados (created=false) y solo el estado de la línea y el de cómputo cambian después.
type OrderLineRepository interface {
	Create(ctx context.Context, line *entity.OrderLine) (created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.OrderLine, error)
	// UpdateStatus cancelación o devolución informada por el marketplace.
	UpdateStatus(ctx context.Context, id, status string) error
	// ListIDsByOrder líneas de la orden; sellerID vacío no filtra por vendedor.
	ListIDsByOrder(ctx context.Context, sellerID, orderID string) ([]string, error)
	// ListIDsByProduct devuelve las líneas del producto; con since != nil solo las de OrderDate >= since.
	ListIDsByProduct(ctx context.Context, sellerID, barcode string, since *time.Time) ([]string, error)
	SetComputeState(ctx context.Context, id string, state entity.ComputeState, errMsg string) error
}
