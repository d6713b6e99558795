package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto de una cuenta de vendedor, identificado por código de barras.
// ProductCostExclVat es nil mientras no se haya cargado un costo (manual o masivo).
// No se borra mientras haya cálculos que lo referencian: se desactiva con Active=false.
type Product struct {
	ID                     string
	SellerID               string
	Barcode                string // único por vendedor
	Title                  string
	ProductCostExclVat     *decimal.Decimal
	PurchaseVatRate        *decimal.Decimal // % (ej. 20); nil = valor por defecto del vendedor
	SalesVatRate           *decimal.Decimal // %
	CommissionRateOverride *decimal.Decimal // nil = usar el valor por defecto del vendedor
	Active                 bool
	CostUpdatedAt          *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasCostData true solo si el costo fue cargado explícitamente y no es negativo.
func (p *Product) HasCostData() bool {
	return p != nil && p.ProductCostExclVat != nil && !p.ProductCostExclVat.IsNegative()
}

// ProductCostHistory registro del costo anterior antes de cada edición.
type ProductCostHistory struct {
	ID              string
	ProductID       string
	CostExclVat     decimal.Decimal
	PurchaseVatRate *decimal.Decimal
	EffectiveDate   time.Time
	CreatedAt       time.Time
}

// CostEdit evento de edición de costo (formulario o carga masiva).
// EffectiveFrom delimita qué líneas se recalculan automáticamente (órdenes desde esa fecha);
// si es nil se usa el momento de la edición.
// SalesVatRate y CommissionRateOverride en nil conservan el valor del producto; para quitar
// la comisión propia hay que pedirlo con ClearCommissionOverride.
type CostEdit struct {
	Barcode                 string
	ProductCostExclVat      decimal.Decimal
	PurchaseVatRate         decimal.Decimal
	SalesVatRate            *decimal.Decimal
	CommissionRateOverride  *decimal.Decimal
	ClearCommissionOverride bool
	EffectiveFrom           *time.Time
}
