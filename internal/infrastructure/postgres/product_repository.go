package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.SellerRepository  = (*SellerRepo)(nil)
)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, seller_id, barcode, title, product_cost_excl_vat, purchase_vat_rate, sales_vat_rate,
	commission_rate_override, active, cost_updated_at, created_at, updated_at`

// GetByBarcode obtiene un producto por vendedor y código de barras.
func (r *ProductRepo) GetByBarcode(ctx context.Context, sellerID, barcode string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE seller_id = $1 AND barcode = $2`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, sellerID, barcode).Scan(
		&p.ID, &p.SellerID, &p.Barcode, &p.Title, &p.ProductCostExclVat, &p.PurchaseVatRate, &p.SalesVatRate,
		&p.CommissionRateOverride, &p.Active, &p.CostUpdatedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return &p, nil
}

// Save inserta o actualiza por (seller_id, barcode). El ID y created_at existentes se conservan.
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	query := `
		INSERT INTO products (id, seller_id, barcode, title, product_cost_excl_vat, purchase_vat_rate, sales_vat_rate,
			commission_rate_override, active, cost_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (seller_id, barcode) DO UPDATE SET
			title = EXCLUDED.title,
			product_cost_excl_vat = EXCLUDED.product_cost_excl_vat,
			purchase_vat_rate = EXCLUDED.purchase_vat_rate,
			sales_vat_rate = EXCLUDED.sales_vat_rate,
			commission_rate_override = EXCLUDED.commission_rate_override,
			active = EXCLUDED.active,
			cost_updated_at = EXCLUDED.cost_updated_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		p.ID, p.SellerID, p.Barcode, p.Title, p.ProductCostExclVat, p.PurchaseVatRate, p.SalesVatRate,
		p.CommissionRateOverride, p.Active, p.CostUpdatedAt, now,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

// AddCostHistory registra el costo anterior del producto.
func (r *ProductRepo) AddCostHistory(ctx context.Context, h *entity.ProductCostHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO product_cost_history (id, product_id, cost_excl_vat, purchase_vat_rate, effective_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, h.ID, h.ProductID, h.CostExclVat, h.PurchaseVatRate, h.EffectiveDate, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cost history: %w", err)
	}
	return nil
}

// ListCostHistory historial del producto, el más reciente primero.
func (r *ProductRepo) ListCostHistory(ctx context.Context, productID string) ([]*entity.ProductCostHistory, error) {
	query := `
		SELECT id, product_id, cost_excl_vat, purchase_vat_rate, effective_date, created_at
		FROM product_cost_history WHERE product_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list cost history: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductCostHistory
	for rows.Next() {
		var h entity.ProductCostHistory
		if err := rows.Scan(&h.ID, &h.ProductID, &h.CostExclVat, &h.PurchaseVatRate, &h.EffectiveDate, &h.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

// SellerRepo cuentas de vendedor sobre PostgreSQL.
type SellerRepo struct {
	q Querier
}

// NewSellerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSellerRepository(q Querier) *SellerRepo {
	return &SellerRepo{q: q}
}

// GetByID obtiene la cuenta con sus valores por defecto.
func (r *SellerRepo) GetByID(ctx context.Context, id string) (*entity.SellerAccount, error) {
	query := `
		SELECT id, shop_name, default_commission_rate, default_vat_rate, default_commission_vat_rate,
			default_cargo_cost_excl_vat, default_cargo_vat_rate, default_platform_fee_excl_vat,
			default_platform_vat_rate, withholding_tax_rate, active, created_at, updated_at
		FROM seller_accounts WHERE id = $1`
	var s entity.SellerAccount
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ShopName, &s.DefaultCommissionRate, &s.DefaultVatRate, &s.DefaultCommissionVatRate,
		&s.DefaultCargoCostExclVat, &s.DefaultCargoVatRate, &s.DefaultPlatformFeeExclVat,
		&s.DefaultPlatformVatRate, &s.WithholdingTaxRate, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}
	return &s, nil
}

// Save inserta o actualiza la cuenta.
func (r *SellerRepo) Save(ctx context.Context, s *entity.SellerAccount) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO seller_accounts (id, shop_name, default_commission_rate, default_vat_rate, default_commission_vat_rate,
			default_cargo_cost_excl_vat, default_cargo_vat_rate, default_platform_fee_excl_vat,
			default_platform_vat_rate, withholding_tax_rate, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (id) DO UPDATE SET
			shop_name = EXCLUDED.shop_name,
			default_commission_rate = EXCLUDED.default_commission_rate,
			default_vat_rate = EXCLUDED.default_vat_rate,
			default_commission_vat_rate = EXCLUDED.default_commission_vat_rate,
			default_cargo_cost_excl_vat = EXCLUDED.default_cargo_cost_excl_vat,
			default_cargo_vat_rate = EXCLUDED.default_cargo_vat_rate,
			default_platform_fee_excl_vat = EXCLUDED.default_platform_fee_excl_vat,
			default_platform_vat_rate = EXCLUDED.default_platform_vat_rate,
			withholding_tax_rate = EXCLUDED.withholding_tax_rate,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		s.ID, s.ShopName, s.DefaultCommissionRate, s.DefaultVatRate, s.DefaultCommissionVatRate,
		s.DefaultCargoCostExclVat, s.DefaultCargoVatRate, s.DefaultPlatformFeeExclVat,
		s.DefaultPlatformVatRate, s.WithholdingTaxRate, s.Active, now,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save seller: %w", err)
	}
	return nil
}
