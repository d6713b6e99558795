package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var _ repository.OrderLineRepository = (*OrderLineRepo)(nil)

// OrderLineRepo líneas de orden sobre PostgreSQL.
type OrderLineRepo struct {
	q Querier
}

// NewOrderLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderLineRepository(q Querier) *OrderLineRepo {
	return &OrderLineRepo{q: q}
}

// Create inserta la línea; si el ID ya existe no toca nada y devuelve created=false.
func (r *OrderLineRepo) Create(ctx context.Context, l *entity.OrderLine) (bool, error) {
	if l.Status == "" {
		l.Status = entity.LineStatusActive
	}
	if l.ComputeState == "" {
		l.ComputeState = entity.ComputeUncomputed
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO order_lines (id, order_id, seller_id, barcode, unit_price, quantity, discount_amount, order_date,
			cargo_cost_excl_vat, platform_fee_excl_vat, status, compute_state, compute_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		l.ID, l.OrderID, l.SellerID, l.Barcode, l.UnitPrice, l.Quantity, l.DiscountAmount, l.OrderDate,
		l.CargoCostExclVat, l.PlatformFeeExclVat, l.Status, string(l.ComputeState), l.ComputeError, l.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert order line: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID obtiene la línea.
func (r *OrderLineRepo) GetByID(ctx context.Context, id string) (*entity.OrderLine, error) {
	query := `
		SELECT id, order_id, seller_id, barcode, unit_price, quantity, discount_amount, order_date,
			cargo_cost_excl_vat, platform_fee_excl_vat, status, compute_state, compute_error, created_at
		FROM order_lines WHERE id = $1`
	var l entity.OrderLine
	var state string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.OrderID, &l.SellerID, &l.Barcode, &l.UnitPrice, &l.Quantity, &l.DiscountAmount, &l.OrderDate,
		&l.CargoCostExclVat, &l.PlatformFeeExclVat, &l.Status, &state, &l.ComputeError, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get order line: %w", err)
	}
	l.ComputeState = entity.ComputeState(state)
	return &l, nil
}

// UpdateStatus cambia el estado informado por el marketplace.
func (r *OrderLineRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE order_lines SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order line status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListIDsByOrder líneas de la orden ordenadas por ID.
func (r *OrderLineRepo) ListIDsByOrder(ctx context.Context, sellerID, orderID string) ([]string, error) {
	query := `
		SELECT id FROM order_lines
		WHERE order_id = $1 AND ($2 = '' OR seller_id = $2)
		ORDER BY id`
	return r.listIDs(ctx, query, orderID, sellerID)
}

// ListIDsByProduct líneas del producto ordenadas por fecha de orden; since nil = todo el historial.
func (r *OrderLineRepo) ListIDsByProduct(ctx context.Context, sellerID, barcode string, since *time.Time) ([]string, error) {
	query := `
		SELECT id FROM order_lines
		WHERE seller_id = $1 AND barcode = $2 AND ($3::timestamptz IS NULL OR order_date >= $3)
		ORDER BY order_date, id`
	return r.listIDs(ctx, query, sellerID, barcode, since)
}

func (r *OrderLineRepo) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetComputeState actualiza el estado de cómputo y el último error.
func (r *OrderLineRepo) SetComputeState(ctx context.Context, id string, state entity.ComputeState, errMsg string) error {
	tag, err := r.q.Exec(ctx, `UPDATE order_lines SET compute_state = $2, compute_error = $3 WHERE id = $1`,
		id, string(state), errMsg)
	if err != nil {
		return fmt.Errorf("update compute state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
