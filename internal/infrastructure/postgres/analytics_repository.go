package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var _ repository.AggregateRepository = (*AggregateRepo)(nil)

// AggregateRepo resúmenes diarios y acumulados por producto.
// Cada Apply asegura la fila, la bloquea con FOR UPDATE, aplica fn y la reescribe.
type AggregateRepo struct {
	q Querier
}

// NewAggregateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAggregateRepository(q Querier) *AggregateRepo {
	return &AggregateRepo{q: q}
}

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// locked ejecuta fn en una tx propia (o savepoint si q ya es una tx) para que el bloqueo
// de la fila dure hasta la escritura.
func (r *AggregateRepo) locked(ctx context.Context, fn func(q Querier) error) error {
	b, ok := r.q.(beginner)
	if !ok {
		return fn(r.q)
	}
	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ApplyDaily aplica fn sobre el resumen (vendedor, día) bajo bloqueo de fila.
func (r *AggregateRepo) ApplyDaily(ctx context.Context, key entity.DailyKey, fn func(*entity.DailyProfitSummary) error) error {
	return r.locked(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO daily_profit_summaries (seller_id, date) VALUES ($1, $2)
			ON CONFLICT (seller_id, date) DO NOTHING`, key.SellerID, key.Date)
		if err != nil {
			return fmt.Errorf("asegurar resumen diario: %w", err)
		}
		s, err := scanDaily(q.QueryRow(ctx, `SELECT `+dailyColumns+` FROM daily_profit_summaries
			WHERE seller_id = $1 AND date = $2 FOR UPDATE`, key.SellerID, key.Date))
		if err != nil {
			return fmt.Errorf("bloquear resumen diario: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
		refs, err := json.Marshal(s.OrderRefs)
		if err != nil {
			return fmt.Errorf("serializar order_refs: %w", err)
		}
		_, err = q.Exec(ctx, `
			UPDATE daily_profit_summaries SET
				total_orders = $3, total_items = $4, total_revenue = $5, total_revenue_excl_vat = $6,
				total_product_cost = $7, total_commission = $8, total_cargo_cost = $9, total_platform_fee = $10,
				total_vat_payable = $11, total_cost = $12, total_profit = $13, average_margin = $14,
				items_with_cost = $15, items_without_cost = $16, order_refs = $17, updated_at = $18
			WHERE seller_id = $1 AND date = $2`,
			key.SellerID, key.Date,
			s.TotalOrders, s.TotalItems, s.TotalRevenue, s.TotalRevenueExclVat,
			s.TotalProductCost, s.TotalCommission, s.TotalCargoCost, s.TotalPlatformFee,
			s.TotalVatPayable, s.TotalCost, s.TotalProfit, s.AverageMargin,
			s.ItemsWithCost, s.ItemsWithoutCost, refs, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("actualizar resumen diario: %w", err)
		}
		return nil
	})
}

// ApplyProduct aplica fn sobre el acumulado (vendedor, código de barras) bajo bloqueo de fila.
func (r *AggregateRepo) ApplyProduct(ctx context.Context, key entity.ProductKey, fn func(*entity.ProductProfitAggregate) error) error {
	return r.locked(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO product_profit_aggregates (seller_id, barcode) VALUES ($1, $2)
			ON CONFLICT (seller_id, barcode) DO NOTHING`, key.SellerID, key.Barcode)
		if err != nil {
			return fmt.Errorf("asegurar acumulado de producto: %w", err)
		}
		a, err := scanProductAgg(q.QueryRow(ctx, `SELECT `+productAggColumns+` FROM product_profit_aggregates
			WHERE seller_id = $1 AND barcode = $2 FOR UPDATE`, key.SellerID, key.Barcode))
		if err != nil {
			return fmt.Errorf("bloquear acumulado de producto: %w", err)
		}
		if err := fn(a); err != nil {
			return err
		}
		_, err = q.Exec(ctx, `
			UPDATE product_profit_aggregates SET
				total_quantity_sold = $3, total_revenue = $4, total_cost = $5, total_profit = $6,
				average_margin = $7, average_profit_per_item = $8, contributing_lines = $9,
				provisional_lines = $10, provisional_profit = $11, is_profitable = $12, updated_at = $13
			WHERE seller_id = $1 AND barcode = $2`,
			key.SellerID, key.Barcode,
			a.TotalQuantitySold, a.TotalRevenue, a.TotalCost, a.TotalProfit,
			a.AverageMargin, a.AverageProfitPerItem, a.ContributingLines,
			a.ProvisionalLines, a.ProvisionalProfit, a.IsProfitable, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("actualizar acumulado de producto: %w", err)
		}
		return nil
	})
}

// ListDaily resúmenes en [start, end] ordenados por fecha; sellerID vacío = todos.
func (r *AggregateRepo) ListDaily(ctx context.Context, sellerID string, start, end time.Time) ([]*entity.DailyProfitSummary, error) {
	rows, err := r.q.Query(ctx, `SELECT `+dailyColumns+` FROM daily_profit_summaries
		WHERE ($1 = '' OR seller_id = $1) AND date BETWEEN $2 AND $3
		ORDER BY date, seller_id`, sellerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list resúmenes diarios: %w", err)
	}
	defer rows.Close()
	var list []*entity.DailyProfitSummary
	for rows.Next() {
		s, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListProducts acumulados por producto; sellerID vacío = todos.
func (r *AggregateRepo) ListProducts(ctx context.Context, sellerID string) ([]entity.ProductProfitAggregate, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productAggColumns+` FROM product_profit_aggregates
		WHERE ($1 = '' OR seller_id = $1) ORDER BY seller_id, barcode`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list acumulados: %w", err)
	}
	defer rows.Close()
	var list []entity.ProductProfitAggregate
	for rows.Next() {
		a, err := scanProductAgg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

const dailyColumns = `seller_id, date, total_orders, total_items, total_revenue, total_revenue_excl_vat,
	total_product_cost, total_commission, total_cargo_cost, total_platform_fee, total_vat_payable,
	total_cost, total_profit, average_margin, items_with_cost, items_without_cost, order_refs, updated_at`

func scanDaily(row pgx.Row) (*entity.DailyProfitSummary, error) {
	var s entity.DailyProfitSummary
	var refs []byte
	err := row.Scan(&s.SellerID, &s.Date, &s.TotalOrders, &s.TotalItems, &s.TotalRevenue, &s.TotalRevenueExclVat,
		&s.TotalProductCost, &s.TotalCommission, &s.TotalCargoCost, &s.TotalPlatformFee, &s.TotalVatPayable,
		&s.TotalCost, &s.TotalProfit, &s.AverageMargin, &s.ItemsWithCost, &s.ItemsWithoutCost, &refs, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.OrderRefs = map[string]int64{}
	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &s.OrderRefs); err != nil {
			return nil, fmt.Errorf("leer order_refs: %w", err)
		}
	}
	return &s, nil
}

const productAggColumns = `seller_id, barcode, total_quantity_sold, total_revenue, total_cost, total_profit,
	average_margin, average_profit_per_item, contributing_lines, provisional_lines, provisional_profit,
	is_profitable, updated_at`

func scanProductAgg(row pgx.Row) (*entity.ProductProfitAggregate, error) {
	var a entity.ProductProfitAggregate
	err := row.Scan(&a.SellerID, &a.Barcode, &a.TotalQuantitySold, &a.TotalRevenue, &a.TotalCost, &a.TotalProfit,
		&a.AverageMargin, &a.AverageProfitPerItem, &a.ContributingLines, &a.ProvisionalLines, &a.ProvisionalProfit,
		&a.IsProfitable, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
