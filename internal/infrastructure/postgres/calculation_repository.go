package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var _ repository.CalculationRepository = (*CalculationRepo)(nil)

// CalculationRepo cálculos vigentes sobre PostgreSQL (tabla order_line_calculations).
// Breakdown y base de costo se guardan como JSONB.
type CalculationRepo struct {
	q Querier
}

// NewCalculationRepository construye el adaptador. Para que el upsert y los agregados queden
// en la misma transacción hay que pasarle la tx (ver TxRunner).
func NewCalculationRepository(q Querier) *CalculationRepo {
	return &CalculationRepo{q: q}
}

const calcColumns = `id, order_line_id, order_id, seller_id, barcode, order_date, quantity, active,
	has_cost_data, breakdown, cost_basis, version, computed_at`

// Upsert serializa por línea con un advisory lock de la transacción (cubre también el primer
// insert, cuando todavía no hay fila que bloquear), lee la fila previa y la reemplaza con version+1.
func (r *CalculationRepo) Upsert(ctx context.Context, calc *entity.Calculation) (*entity.Calculation, error) {
	if calc.OrderLineID == "" {
		return nil, fmt.Errorf("upsert cálculo: order_line_id vacío: %w", domain.ErrInvalidInput)
	}
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, calc.OrderLineID); err != nil {
		return nil, fmt.Errorf("lock cálculo %s: %w", calc.OrderLineID, err)
	}
	prev, err := r.get(ctx, `SELECT `+calcColumns+` FROM order_line_calculations WHERE order_line_id = $1 FOR UPDATE`, calc.OrderLineID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	breakdown, err := json.Marshal(calc.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("serializar desglose: %w", err)
	}
	basis, err := json.Marshal(calc.Basis)
	if err != nil {
		return nil, fmt.Errorf("serializar base de costo: %w", err)
	}
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	if calc.ComputedAt.IsZero() {
		calc.ComputedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO order_line_calculations (id, order_line_id, order_id, seller_id, barcode, order_date, quantity,
			active, has_cost_data, net_profit, breakdown, cost_basis, version, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13)
		ON CONFLICT (order_line_id) DO UPDATE SET
			order_id = EXCLUDED.order_id,
			seller_id = EXCLUDED.seller_id,
			barcode = EXCLUDED.barcode,
			order_date = EXCLUDED.order_date,
			quantity = EXCLUDED.quantity,
			active = EXCLUDED.active,
			has_cost_data = EXCLUDED.has_cost_data,
			net_profit = EXCLUDED.net_profit,
			breakdown = EXCLUDED.breakdown,
			cost_basis = EXCLUDED.cost_basis,
			version = order_line_calculations.version + 1,
			computed_at = EXCLUDED.computed_at
		RETURNING id, version, computed_at`
	err = r.q.QueryRow(ctx, query,
		calc.ID, calc.OrderLineID, calc.OrderID, calc.SellerID, calc.Barcode, calc.OrderDate, calc.Quantity,
		calc.Active, calc.HasCostData, calc.Breakdown.NetProfit, breakdown, basis, calc.ComputedAt,
	).Scan(&calc.ID, &calc.Version, &calc.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cálculo: %w", err)
	}
	return prev, nil
}

// GetByOrderLine devuelve domain.ErrNotFound si la línea aún no tiene cálculo.
func (r *CalculationRepo) GetByOrderLine(ctx context.Context, orderLineID string) (*entity.Calculation, error) {
	return r.get(ctx, `SELECT `+calcColumns+` FROM order_line_calculations WHERE order_line_id = $1`, orderLineID)
}

// ListBySeller cálculos del vendedor, la orden más reciente primero.
func (r *CalculationRepo) ListBySeller(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Calculation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + calcColumns + ` FROM order_line_calculations
		WHERE seller_id = $1 ORDER BY order_date DESC, order_line_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, sellerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cálculos: %w", err)
	}
	defer rows.Close()
	var list []*entity.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListByOrder cálculos de la orden; sellerID vacío no filtra por vendedor.
func (r *CalculationRepo) ListByOrder(ctx context.Context, sellerID, orderID string) ([]*entity.Calculation, error) {
	query := `SELECT ` + calcColumns + ` FROM order_line_calculations
		WHERE order_id = $1 AND ($2::text = '' OR seller_id = $2) ORDER BY order_line_id`
	rows, err := r.q.Query(ctx, query, orderID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list cálculos por orden: %w", err)
	}
	defer rows.Close()
	var list []*entity.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SumByProductSince agrupa por producto las líneas activas con order_date >= since.
func (r *CalculationRepo) SumByProductSince(ctx context.Context, sellerID string, since time.Time) (map[entity.ProductKey]entity.ProductWindow, error) {
	query := `
		SELECT seller_id, barcode, COALESCE(SUM(quantity), 0), COALESCE(SUM(net_profit), 0)
		FROM order_line_calculations
		WHERE active AND order_date >= $1 AND ($2::text = '' OR seller_id = $2)
		GROUP BY seller_id, barcode`
	rows, err := r.q.Query(ctx, query, since, sellerID)
	if err != nil {
		return nil, fmt.Errorf("ventana por producto: %w", err)
	}
	defer rows.Close()
	out := make(map[entity.ProductKey]entity.ProductWindow)
	for rows.Next() {
		var k entity.ProductKey
		var w entity.ProductWindow
		if err := rows.Scan(&k.SellerID, &k.Barcode, &w.Quantity, &w.Profit); err != nil {
			return nil, fmt.Errorf("ventana por producto: %w", err)
		}
		out[k] = w
	}
	return out, rows.Err()
}

func (r *CalculationRepo) get(ctx context.Context, query, orderLineID string) (*entity.Calculation, error) {
	c, err := scanCalculation(r.q.QueryRow(ctx, query, orderLineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get cálculo: %w", err)
	}
	return c, nil
}

func scanCalculation(row pgx.Row) (*entity.Calculation, error) {
	var c entity.Calculation
	var breakdown, basis []byte
	err := row.Scan(&c.ID, &c.OrderLineID, &c.OrderID, &c.SellerID, &c.Barcode, &c.OrderDate, &c.Quantity,
		&c.Active, &c.HasCostData, &breakdown, &basis, &c.Version, &c.ComputedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &c.Breakdown); err != nil {
		return nil, fmt.Errorf("leer desglose: %w", err)
	}
	if err := json.Unmarshal(basis, &c.Basis); err != nil {
		return nil, fmt.Errorf("leer base de costo: %w", err)
	}
	return &c, nil
}
