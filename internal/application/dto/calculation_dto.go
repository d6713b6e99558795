package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// BreakdownResponse respuesta de GET /api/calculations/:lineId.
// Si la línea aún no tiene cálculo, Breakdown y CostBasis van vacíos y State indica
// uncomputed|computing|failed (distinto de una utilidad en cero). Si tiene un cálculo anterior
// pero el último cómputo no terminó bien, Breakdown es ese cálculo y Stale=true.
type BreakdownResponse struct {
	OrderLineID string                    `json:"order_line_id"`
	OrderID     string                    `json:"order_id"`
	SellerID    string                    `json:"seller_id"`
	Barcode     string                    `json:"barcode"`
	OrderDate   time.Time                 `json:"order_date"`
	Quantity    int64                     `json:"quantity"`
	State       string                    `json:"state"`
	Error       string                    `json:"error,omitempty"`
	Stale       bool                      `json:"stale"`
	Active      bool                      `json:"active"`
	HasCostData bool                      `json:"has_cost_data"`
	Version     int64                     `json:"version,omitempty"`
	ComputedAt  *time.Time                `json:"computed_at,omitempty"`
	Breakdown   *entity.Breakdown         `json:"breakdown,omitempty"`
	CostBasis   *entity.CostBasisSnapshot `json:"cost_basis,omitempty"`
}

// RecalculateResponse el recálculo se encola; el resultado no se devuelve de forma síncrona.
type RecalculateResponse struct {
	Status    string `json:"status"` // accepted
	Lines     int    `json:"lines"`
	Queued    int    `json:"queued"`
	Coalesced int    `json:"coalesced"`
}

// CalculationItemDTO fila del listado de cálculos.
type CalculationItemDTO struct {
	OrderLineID  string          `json:"order_line_id"`
	OrderID      string          `json:"order_id"`
	Barcode      string          `json:"barcode"`
	OrderDate    time.Time       `json:"order_date"`
	Quantity     int64           `json:"quantity"`
	Active       bool            `json:"active"`
	HasCostData  bool            `json:"has_cost_data"`
	NetSale      decimal.Decimal `json:"net_sale"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin_percent"`
	Version      int64           `json:"version"`
	ComputedAt   time.Time       `json:"computed_at"`
}

// CalculationListResponse respuesta de GET /api/calculations.
type CalculationListResponse struct {
	Items []CalculationItemDTO `json:"items"`
	Page  PageResponse         `json:"page"`
}

// OrderTotalsDTO totales de las líneas activas calculadas de una orden.
type OrderTotalsDTO struct {
	NetSale             decimal.Decimal `json:"net_sale"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`
}

// OrderCalculationsResponse respuesta de GET /api/orders/:orderId/calculations.
// Pending cuenta las líneas de la orden que todavía no tienen cálculo.
type OrderCalculationsResponse struct {
	OrderID string               `json:"order_id"`
	Lines   int                  `json:"lines"`
	Pending int                  `json:"pending"`
	Items   []CalculationItemDTO `json:"items"`
	Totals  OrderTotalsDTO       `json:"totals"`
}
