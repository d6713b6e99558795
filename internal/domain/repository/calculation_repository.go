package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// CalculationRepository un único cálculo vigente por línea de orden (clave = OrderLineID).
type CalculationRepository interface {
	// Upsert reemplaza el cálculo de la línea si existe (mismo ID, Version+1, ComputedAt nuevo)
	// o lo crea con Version 1. Devuelve la versión anterior (nil si no había) para el delta
	// de agregados. calc queda actualizado con ID, Version y ComputedAt persistidos.
	Upsert(ctx context.Context, calc *entity.Calculation) (previous *entity.Calculation, err error)
	// GetByOrderLine devuelve domain.ErrNotFound si la línea aún no tiene cálculo.
	GetByOrderLine(ctx context.Context, orderLineID string) (*entity.Calculation, error)
	// ListBySeller ordena por fecha de orden, la más reciente primero.
	ListBySeller(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Calculation, error)
	// ListByOrder cálculos de las líneas de una orden, por order_line_id.
	ListByOrder(ctx context.Context, sellerID, orderID string) ([]*entity.Calculation, error)
	// SumByProductSince cantidad y utilidad de las líneas activas con OrderDate >= since, por producto.
	// sellerID vacío = todos los vendedores.
	SumByProductSince(ctx context.Context, sellerID string, since time.Time) (map[entity.ProductKey]entity.ProductWindow, error)
}
