package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SellerAccount cuenta de vendedor en el marketplace. Dueña de productos y órdenes.
// Sus valores por defecto se usan cuando la línea o el producto no traen valor propio;
// un campo nil cae al valor del sistema.
type SellerAccount struct {
	ID                        string
	ShopName                  string
	DefaultCommissionRate     *decimal.Decimal
	DefaultVatRate            *decimal.Decimal
	DefaultCommissionVatRate  *decimal.Decimal
	DefaultCargoCostExclVat   *decimal.Decimal
	DefaultCargoVatRate       *decimal.Decimal
	DefaultPlatformFeeExclVat *decimal.Decimal
	DefaultPlatformVatRate    *decimal.Decimal
	WithholdingTaxRate        *decimal.Decimal // stopaj, normalmente 0
	Active                    bool
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}
