package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodRequest parámetros de rango de fechas.
type PeriodRequest struct {
	StartDate string `query:"start_date"` // YYYY-MM-DD; por defecto primer día del mes actual
	EndDate   string `query:"end_date"`   // YYYY-MM-DD; por defecto hoy
}

// RankingRequest parámetros de los rankings de productos.
type RankingRequest struct {
	N                  int  `query:"n"` // default 5
	IncludeProvisional bool `query:"include_provisional"`
}

// PeriodDTO rango de fechas del reporte.
type PeriodDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DailySummaryDTO resumen de un día de un vendedor.
type DailySummaryDTO struct {
	SellerID            string          `json:"seller_id"`
	Date                string          `json:"date"`
	TotalOrders         int64           `json:"total_orders"`
	TotalItems          int64           `json:"total_items"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalRevenueExclVat decimal.Decimal `json:"total_revenue_excl_vat"`
	TotalProductCost    decimal.Decimal `json:"total_product_cost"`
	TotalCommission     decimal.Decimal `json:"total_commission"`
	TotalCargoCost      decimal.Decimal `json:"total_cargo_cost"`
	TotalPlatformFee    decimal.Decimal `json:"total_platform_fee"`
	TotalVatPayable     decimal.Decimal `json:"total_vat_payable"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	TotalProfit         decimal.Decimal `json:"total_profit"`
	AverageMargin       decimal.Decimal `json:"average_margin"` // ponderado por ingresos
	ItemsWithCost       int64           `json:"items_with_cost"`
	ItemsWithoutCost    int64           `json:"items_without_cost"`
}

// DailySummariesResponse respuesta de GET /api/reports/daily.
type DailySummariesResponse struct {
	Period PeriodDTO         `json:"period"`
	Days   []DailySummaryDTO `json:"days"`
}

// ProductAggregateDTO acumulado de un producto.
type ProductAggregateDTO struct {
	Rank                 int             `json:"rank"`
	SellerID             string          `json:"seller_id"`
	Barcode              string          `json:"barcode"`
	TotalQuantitySold    int64           `json:"total_quantity_sold"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalProfit          decimal.Decimal `json:"total_profit"`
	AverageMargin        decimal.Decimal `json:"average_margin"`
	AverageProfitPerItem decimal.Decimal `json:"average_profit_per_item"`
	IsProfitable         bool            `json:"is_profitable"`
	IsProvisional        bool            `json:"is_provisional"` // alguna línea sin costo cargado
	ProvisionalLines     int64           `json:"provisional_lines"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// RankingResponse respuesta de top-products y loss-products.
type RankingResponse struct {
	IncludeProvisional bool                  `json:"include_provisional"`
	Products           []ProductAggregateDTO `json:"products"`
}

// CostBreakdownDTO reparto del costo total del período.
type CostBreakdownDTO struct {
	ProductCost decimal.Decimal `json:"product_cost"`
	Commission  decimal.Decimal `json:"commission"`
	CargoCost   decimal.Decimal `json:"cargo_cost"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	VatPayable  decimal.Decimal `json:"vat_payable"`
}

// DataQualityDTO cobertura de costos cargados en el período.
type DataQualityDTO struct {
	ItemsWithCost    int64           `json:"items_with_cost"`
	ItemsWithoutCost int64           `json:"items_without_cost"`
	CostCoveragePct  decimal.Decimal `json:"cost_coverage_pct"`
}

// DashboardDTO respuesta de GET /api/reports/dashboard.
type DashboardDTO struct {
	Period        PeriodDTO             `json:"period"`
	TotalOrders   int64                 `json:"total_orders"`
	TotalItems    int64                 `json:"total_items"`
	TotalRevenue  decimal.Decimal       `json:"total_revenue"`
	TotalCost     decimal.Decimal       `json:"total_cost"`
	TotalProfit   decimal.Decimal       `json:"total_profit"`
	AverageMargin decimal.Decimal       `json:"average_margin"`
	CostBreakdown CostBreakdownDTO      `json:"cost_breakdown"`
	DataQuality   DataQualityDTO        `json:"data_quality"`
	Daily         []DailySummaryDTO     `json:"daily"`
	TopProducts   []ProductAggregateDTO `json:"top_products"`
	LossProducts  []ProductAggregateDTO `json:"loss_products"`
}

// MonthlySummaryDTO resumen de un mes (YYYY-MM) para el gráfico mensual.
type MonthlySummaryDTO struct {
	SellerID            string          `json:"seller_id"`
	Month               string          `json:"month"`
	TotalOrders         int64           `json:"total_orders"`
	TotalItems          int64           `json:"total_items"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalRevenueExclVat decimal.Decimal `json:"total_revenue_excl_vat"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	TotalProfit         decimal.Decimal `json:"total_profit"`
	AverageMargin       decimal.Decimal `json:"average_margin"`
	ItemsWithoutCost    int64           `json:"items_without_cost"`
}

// MonthlySummariesResponse respuesta de GET /api/reports/monthly.
type MonthlySummariesResponse struct {
	Period PeriodDTO           `json:"period"`
	Months []MonthlySummaryDTO `json:"months"`
}

// ProductListRequest parámetros de GET /api/reports/products.
type ProductListRequest struct {
	Limit              int    `query:"limit"`
	Offset             int    `query:"offset"`
	OrderBy            string `query:"order_by"`   // -total_profit (default), total_profit, -average_margin, average_margin, -total_quantity_sold
	Profitable         string `query:"profitable"` // true|false; vacío = todos
	ExcludeProvisional bool   `query:"exclude_provisional"`
}

// ProductListItemDTO acumulado de un producto con sus cifras de los últimos 30 días.
type ProductListItemDTO struct {
	ProductAggregateDTO
	Last30DaysQuantity int64           `json:"last_30_days_quantity"`
	Last30DaysProfit   decimal.Decimal `json:"last_30_days_profit"`
}

// ProductListResponse página del listado de productos.
type ProductListResponse struct {
	OrderBy  string               `json:"order_by"`
	Products []ProductListItemDTO `json:"products"`
	Page     PageResponse         `json:"page"`
}
