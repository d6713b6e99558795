package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateCostRequest edición de costo de un producto (PUT /api/products/:barcode/cost).
// Las tasas son porcentajes (18 = 18 %).
type UpdateCostRequest struct {
	Title                  string           `json:"title"`
	ProductCostExclVat     decimal.Decimal  `json:"product_cost_excl_vat"`
	PurchaseVatRate        decimal.Decimal  `json:"purchase_vat_rate"`
	SalesVatRate           *decimal.Decimal `json:"sales_vat_rate"`
	CommissionRateOverride *decimal.Decimal `json:"commission_rate_override"` // nil conserva la vigente
	// ClearCommissionOverride quita la comisión propia del producto (vuelve a la del vendedor).
	ClearCommissionOverride bool   `json:"clear_commission_rate_override"`
	EffectiveFrom           string `json:"effective_from"` // YYYY-MM-DD; por defecto hoy
}

// ProductResponse salida de un producto con su costo vigente.
type ProductResponse struct {
	ID                     string           `json:"id"`
	SellerID               string           `json:"seller_id"`
	Barcode                string           `json:"barcode"`
	Title                  string           `json:"title"`
	ProductCostExclVat     *decimal.Decimal `json:"product_cost_excl_vat"`
	PurchaseVatRate        *decimal.Decimal `json:"purchase_vat_rate"`
	SalesVatRate           *decimal.Decimal `json:"sales_vat_rate"`
	CommissionRateOverride *decimal.Decimal `json:"commission_rate_override"`
	HasCostData            bool             `json:"has_cost_data"`
	CostUpdatedAt          *time.Time       `json:"cost_updated_at,omitempty"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// UpdateCostResponse producto actualizado y líneas encoladas para recálculo.
type UpdateCostResponse struct {
	Product       ProductResponse     `json:"product"`
	Recalculation RecalculateResponse `json:"recalculation"`
}

// CostHistoryDTO un costo anterior del producto.
type CostHistoryDTO struct {
	CostExclVat     decimal.Decimal  `json:"cost_excl_vat"`
	PurchaseVatRate *decimal.Decimal `json:"purchase_vat_rate"`
	EffectiveDate   time.Time        `json:"effective_date"`
}
