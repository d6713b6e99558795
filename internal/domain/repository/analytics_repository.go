package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// AggregateRepository resúmenes diarios y acumulados por producto.
//
// ApplyDaily/ApplyProduct ejecutan fn bajo exclusión mutua del bucket: fn recibe el estado
// actual (vacío si no existía) y lo modifica en el lugar; la implementación lo persiste.
// Las lecturas son read-only y solo reflejan cálculos ya confirmados.
type AggregateRepository interface {
	ApplyDaily(ctx context.Context, key entity.DailyKey, fn func(*entity.DailyProfitSummary) error) error
	ApplyProduct(ctx context.Context, key entity.ProductKey, fn func(*entity.ProductProfitAggregate) error) error

	// ListDaily resúmenes en [start, end] (fechas calendario, inclusivo) ordenados por fecha.
	// sellerID vacío = todos los vendedores.
	ListDaily(ctx context.Context, sellerID string, start, end time.Time) ([]*entity.DailyProfitSummary, error)

	// ListProducts acumulados por producto; sellerID vacío = todos.
	ListProducts(ctx context.Context, sellerID string) ([]entity.ProductProfitAggregate, error)
}
