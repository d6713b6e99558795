package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// Contribution aporte de un cálculo a sus dos agregados (día y producto).
type Contribution struct {
	SellerID       string
	OrderID        string
	Barcode        string
	Date           time.Time
	Quantity       int64
	Revenue        decimal.Decimal // venta neta con IVA
	RevenueExclVat decimal.Decimal
	ProductCost    decimal.Decimal
	Commission     decimal.Decimal
	CargoCost      decimal.Decimal
	PlatformFee    decimal.Decimal
	VatPayable     decimal.Decimal
	TotalCost      decimal.Decimal
	Profit         decimal.Decimal
	HasCostData    bool
}

// DailyDelta cambio sobre un resumen diario: se retira Remove y se suma Add (cualquiera puede ser nil).
type DailyDelta struct {
	Key    entity.DailyKey
	Remove *Contribution
	Add    *Contribution
}

// ProductDelta cambio sobre el acumulado de un producto.
type ProductDelta struct {
	Key    entity.ProductKey
	Remove *Contribution
	Add    *Contribution
}

// Engine arma contribuciones y deltas. La fecha de la orden se agrupa por día calendario en loc.
type Engine struct {
	loc *time.Location
}

// NewEngine crea el motor de agregación; loc nil equivale a UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location zona horaria usada para agrupar por día.
func (e *Engine) Location() *time.Location { return e.loc }

// DayOf devuelve el día calendario de t en la zona del motor, normalizado a medianoche UTC
// para que la clave coincida con una columna DATE.
func (e *Engine) DayOf(t time.Time) time.Time {
	y, m, d := t.In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ContributionOf devuelve nil si el cálculo no existe o la línea ya no aporta (cancelada/devuelta).
func (e *Engine) ContributionOf(c *entity.Calculation) *Contribution {
	if c == nil || !c.Active {
		return nil
	}
	bd := c.Breakdown
	return &Contribution{
		SellerID:       c.SellerID,
		OrderID:        c.OrderID,
		Barcode:        c.Barcode,
		Date:           e.DayOf(c.OrderDate),
		Quantity:       c.Quantity,
		Revenue:        bd.NetSale,
		RevenueExclVat: bd.NetSaleExclVat,
		ProductCost:    bd.ProductCostExclVat,
		Commission:     bd.Commission,
		CargoCost:      bd.CargoCostExclVat,
		PlatformFee:    bd.PlatformFeeExclVat,
		VatPayable:     bd.NetVatPayable,
		TotalCost:      bd.TotalCost,
		Profit:         bd.NetProfit,
		HasCostData:    c.HasCostData,
	}
}

// Deltas compara la versión anterior con la nueva del cálculo de una misma línea.
// Si la clave no cambió sale un único delta (retira + suma sobre el mismo bucket);
// si cambió la fecha o el código de barras, salen dos buckets distintos.
// El resultado va ordenado por clave para que los bloqueos se tomen siempre en el mismo orden.
func (e *Engine) Deltas(prev, next *entity.Calculation) ([]DailyDelta, []ProductDelta) {
	pc, nc := e.ContributionOf(prev), e.ContributionOf(next)

	var daily []DailyDelta
	var products []ProductDelta

	switch {
	case pc != nil && nc != nil && dailyKey(pc) == dailyKey(nc):
		daily = append(daily, DailyDelta{Key: dailyKey(nc), Remove: pc, Add: nc})
	default:
		if pc != nil {
			daily = append(daily, DailyDelta{Key: dailyKey(pc), Remove: pc})
		}
		if nc != nil {
			daily = append(daily, DailyDelta{Key: dailyKey(nc), Add: nc})
		}
	}

	switch {
	case pc != nil && nc != nil && productKey(pc) == productKey(nc):
		products = append(products, ProductDelta{Key: productKey(nc), Remove: pc, Add: nc})
	default:
		if pc != nil {
			products = append(products, ProductDelta{Key: productKey(pc), Remove: pc})
		}
		if nc != nil {
			products = append(products, ProductDelta{Key: productKey(nc), Add: nc})
		}
	}

	sort.Slice(daily, func(i, j int) bool {
		a, b := daily[i].Key, daily[j].Key
		if a.SellerID != b.SellerID {
			return a.SellerID < b.SellerID
		}
		return a.Date.Before(b.Date)
	})
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i].Key, products[j].Key
		if a.SellerID != b.SellerID {
			return a.SellerID < b.SellerID
		}
		return a.Barcode < b.Barcode
	})
	return daily, products
}

func dailyKey(c *Contribution) entity.DailyKey {
	return entity.DailyKey{SellerID: c.SellerID, Date: c.Date}
}

func productKey(c *Contribution) entity.ProductKey {
	return entity.ProductKey{SellerID: c.SellerID, Barcode: c.Barcode}
}
