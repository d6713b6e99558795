package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una línea de orden según el marketplace.
const (
	LineStatusActive    = "active"
	LineStatusCancelled = "cancelled"
	LineStatusReturned  = "returned"
)

// ComputeState estado de cómputo de una línea.
type ComputeState string

const (
	ComputeUncomputed ComputeState = "uncomputed"
	ComputeComputing  ComputeState = "computing"
	ComputeComputed   ComputeState = "computed"
	ComputeFailed     ComputeState = "failed"
)

// OrderLine un ítem vendido. Inmutable una vez ingerido (salvo el estado de cómputo).
// UnitPrice y DiscountAmount incluyen IVA. CargoCostExclVat y PlatformFeeExclVat son
// los valores que reporta el marketplace para la línea; nil si no vinieron.
type OrderLine struct {
	ID                 string // line id del marketplace
	OrderID            string
	SellerID           string
	Barcode            string
	UnitPrice          decimal.Decimal
	Quantity           int64
	DiscountAmount     decimal.Decimal
	OrderDate          time.Time
	CargoCostExclVat   *decimal.Decimal
	PlatformFeeExclVat *decimal.Decimal
	Status             string
	ComputeState       ComputeState
	ComputeError       string
	CreatedAt          time.Time
}

// IsRevenue indica si la línea aporta a los agregados.
func (l *OrderLine) IsRevenue() bool {
	return l.Status == "" || l.Status == LineStatusActive
}
