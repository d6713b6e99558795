package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineRequest línea de orden recibida del colaborador de ingesta.
// UnitPrice y DiscountAmount incluyen IVA.
type OrderLineRequest struct {
	OrderID            string           `json:"order_id"`
	LineID             string           `json:"line_id"`
	Barcode            string           `json:"barcode"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	Quantity           int64            `json:"quantity"`
	DiscountAmount     decimal.Decimal  `json:"discount_amount"`
	OrderDate          time.Time        `json:"order_date"`
	CargoCostExclVat   *decimal.Decimal `json:"cargo_cost_excl_vat,omitempty"`
	PlatformFeeExclVat *decimal.Decimal `json:"platform_fee_excl_vat,omitempty"`
	Status             string           `json:"status,omitempty"` // active|cancelled|returned
}

// IngestOrderLinesRequest lote de líneas (POST /api/order-lines).
type IngestOrderLinesRequest struct {
	Lines []OrderLineRequest `json:"lines"`
}

// IngestOrderLinesResponse resultado de la ingesta: las líneas nuevas quedan encoladas.
type IngestOrderLinesResponse struct {
	Received   int `json:"received"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Updated    int `json:"updated"` // cambio de estado (cancelada/devuelta)
	Queued     int `json:"queued"`
}
