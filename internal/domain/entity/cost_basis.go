package entity

import "github.com/shopspring/decimal"

// Tier nivel que aportó un valor de la base de costo.
type Tier string

const (
	TierLine    Tier = "line"
	TierProduct Tier = "product"
	TierSeller  Tier = "seller"
	TierSystem  Tier = "system"
)

// Campos de la base de costo (claves de Sources).
const (
	FieldProductCost       = "product_cost_excl_vat"
	FieldPurchaseVatRate   = "purchase_vat_rate"
	FieldSalesVatRate      = "sales_vat_rate"
	FieldCommissionRate    = "commission_rate"
	FieldCommissionVatRate = "commission_vat_rate"
	FieldCargoCost         = "cargo_cost_excl_vat"
	FieldCargoVatRate      = "cargo_vat_rate"
	FieldPlatformFee       = "platform_fee_excl_vat"
	FieldPlatformVatRate   = "platform_vat_rate"
	FieldWithholdingRate   = "withholding_tax_rate"
)

// CostBasisSnapshot tasas y costos resueltos para un cómputo. Se construye en cada
// (re)cálculo y no se modifica después; se guarda junto al cálculo como evidencia.
// ProductCostExclVat es el costo de la línea (UnitCostExclVat × cantidad).
type CostBasisSnapshot struct {
	UnitCostExclVat    decimal.Decimal `json:"unit_cost_excl_vat"`
	ProductCostExclVat decimal.Decimal `json:"product_cost_excl_vat"`
	PurchaseVatRate    decimal.Decimal `json:"purchase_vat_rate"`
	SalesVatRate       decimal.Decimal `json:"sales_vat_rate"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	CommissionVatRate  decimal.Decimal `json:"commission_vat_rate"`
	CargoCostExclVat   decimal.Decimal `json:"cargo_cost_excl_vat"`
	CargoVatRate       decimal.Decimal `json:"cargo_vat_rate"`
	PlatformFeeExclVat decimal.Decimal `json:"platform_fee_excl_vat"`
	PlatformVatRate    decimal.Decimal `json:"platform_vat_rate"`
	WithholdingTaxRate decimal.Decimal `json:"withholding_tax_rate"`
	HasCostData        bool            `json:"has_cost_data"`
	Sources            map[string]Tier `json:"sources"`
}

// SourceOf devuelve el nivel que aportó el campo dado.
func (s CostBasisSnapshot) SourceOf(field string) Tier {
	return s.Sources[field]
}
