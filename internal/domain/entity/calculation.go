package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Breakdown desglose completo de costos y utilidad de una línea.
// Todos los montos quedan redondeados a 2 decimales (half-up); las tasas se guardan tal cual.
type Breakdown struct {
	GrossSale      decimal.Decimal `json:"gross_sale"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NetSale        decimal.Decimal `json:"net_sale"`
	SalesVat       decimal.Decimal `json:"sales_vat"`
	NetSaleExclVat decimal.Decimal `json:"net_sale_excl_vat"`

	ProductCostExclVat decimal.Decimal `json:"product_cost_excl_vat"`
	PurchaseVat        decimal.Decimal `json:"purchase_vat"`
	ProductCostInclVat decimal.Decimal `json:"product_cost_incl_vat"`

	Commission      decimal.Decimal `json:"commission"`
	CommissionVat   decimal.Decimal `json:"commission_vat"`
	CommissionTotal decimal.Decimal `json:"commission_total"`

	CargoCostExclVat decimal.Decimal `json:"cargo_cost_excl_vat"`
	CargoVat         decimal.Decimal `json:"cargo_vat"`
	CargoCostTotal   decimal.Decimal `json:"cargo_cost_total"`

	PlatformFeeExclVat decimal.Decimal `json:"platform_fee_excl_vat"`
	PlatformVat        decimal.Decimal `json:"platform_vat"`
	PlatformFeeTotal   decimal.Decimal `json:"platform_fee_total"`

	WithholdingTax decimal.Decimal `json:"withholding_tax"`

	DeductibleVat decimal.Decimal `json:"deductible_vat"`
	NetVatPayable decimal.Decimal `json:"net_vat_payable"` // negativo = crédito de IVA

	TotalMarketplaceDeductions decimal.Decimal `json:"total_marketplace_deductions"`
	TotalCost                  decimal.Decimal `json:"total_cost"`
	NetProfit                  decimal.Decimal `json:"net_profit"`
	ProfitMarginPercent        decimal.Decimal `json:"profit_margin_percent"`

	IsProfitable bool     `json:"is_profitable"`
	HasCostData  bool     `json:"has_cost_data"`
	Notes        []string `json:"notes,omitempty"`
}

// Calculation cálculo vigente de una línea de orden. Uno por OrderLineID: un recálculo
// reemplaza todos los campos, incrementa Version y actualiza ComputedAt.
type Calculation struct {
	ID          string
	OrderLineID string
	OrderID     string
	SellerID    string
	Barcode     string
	OrderDate   time.Time
	Quantity    int64
	Active      bool // false si la línea fue cancelada/devuelta: no aporta a agregados
	Breakdown   Breakdown
	Basis       CostBasisSnapshot
	HasCostData bool
	Version     int64
	ComputedAt  time.Time
}
