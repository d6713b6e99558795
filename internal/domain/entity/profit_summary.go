package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyKey clave de un resumen diario: vendedor + fecha calendario (medianoche en la zona configurada).
type DailyKey struct {
	SellerID string
	Date     time.Time
}

// DailyProfitSummary resumen de rentabilidad por (vendedor, día).
// AverageMargin es ponderado por ingresos: ΣNetProfit / ΣNetSaleExclVat × 100.
// OrderRefs cuenta líneas aportantes por orden para mantener TotalOrders con deltas.
type DailyProfitSummary struct {
	SellerID            string
	Date                time.Time
	TotalOrders         int64
	TotalItems          int64
	TotalRevenue        decimal.Decimal // venta neta con IVA
	TotalRevenueExclVat decimal.Decimal
	TotalProductCost    decimal.Decimal
	TotalCommission     decimal.Decimal
	TotalCargoCost      decimal.Decimal
	TotalPlatformFee    decimal.Decimal
	TotalVatPayable     decimal.Decimal
	TotalCost           decimal.Decimal
	TotalProfit         decimal.Decimal
	AverageMargin       decimal.Decimal
	ItemsWithCost       int64
	ItemsWithoutCost    int64
	OrderRefs           map[string]int64
	UpdatedAt           time.Time
}

// MonthlyProfitSummary resumen de un mes calendario, sumado desde los resúmenes diarios.
type MonthlyProfitSummary struct {
	SellerID            string
	Month               time.Time // primer día del mes
	TotalOrders         int64
	TotalItems          int64
	TotalRevenue        decimal.Decimal
	TotalRevenueExclVat decimal.Decimal
	TotalCost           decimal.Decimal
	TotalProfit         decimal.Decimal
	AverageMargin       decimal.Decimal
	ItemsWithoutCost    int64
}

// ProductKey clave del acumulado por producto.
type ProductKey struct {
	SellerID string
	Barcode  string
}

// ProductProfitAggregate acumulado histórico de un producto.
// ProvisionalLines > 0 significa que parte de la utilidad se calculó sin costo real.
type ProductProfitAggregate struct {
	SellerID             string
	Barcode              string
	TotalQuantitySold    int64
	TotalRevenue         decimal.Decimal // venta neta sin IVA
	TotalCost            decimal.Decimal
	TotalProfit          decimal.Decimal
	AverageMargin        decimal.Decimal
	AverageProfitPerItem decimal.Decimal
	ContributingLines    int64
	ProvisionalLines     int64
	ProvisionalProfit    decimal.Decimal
	IsProfitable         bool
	UpdatedAt            time.Time
}

// IsProvisional true si alguna línea aportante no tenía costo cargado.
func (a *ProductProfitAggregate) IsProvisional() bool {
	return a.ProvisionalLines > 0
}

// ProductWindow cantidad y utilidad de un producto en una ventana móvil (ej. últimos 30 días).
type ProductWindow struct {
	Quantity int64
	Profit   decimal.Decimal
}
