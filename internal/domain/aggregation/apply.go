package aggregation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// ApplyDaily aplica el delta sobre el resumen: new = old − anterior + nuevo.
// Debe llamarse dentro del ámbito de exclusión del bucket.
func ApplyDaily(s *entity.DailyProfitSummary, d DailyDelta, now time.Time) {
	s.SellerID = d.Key.SellerID
	s.Date = d.Key.Date
	if s.OrderRefs == nil {
		s.OrderRefs = make(map[string]int64)
	}
	if d.Remove != nil {
		addDaily(s, d.Remove, -1)
	}
	if d.Add != nil {
		addDaily(s, d.Add, 1)
	}
	s.TotalOrders = int64(len(s.OrderRefs))
	s.AverageMargin = Margin(s.TotalProfit, s.TotalRevenueExclVat)
	s.UpdatedAt = now
}

func addDaily(s *entity.DailyProfitSummary, c *Contribution, sign int64) {
	sg := decimal.NewFromInt(sign)
	s.TotalItems += sign * c.Quantity
	s.TotalRevenue = s.TotalRevenue.Add(c.Revenue.Mul(sg))
	s.TotalRevenueExclVat = s.TotalRevenueExclVat.Add(c.RevenueExclVat.Mul(sg))
	s.TotalProductCost = s.TotalProductCost.Add(c.ProductCost.Mul(sg))
	s.TotalCommission = s.TotalCommission.Add(c.Commission.Mul(sg))
	s.TotalCargoCost = s.TotalCargoCost.Add(c.CargoCost.Mul(sg))
	s.TotalPlatformFee = s.TotalPlatformFee.Add(c.PlatformFee.Mul(sg))
	s.TotalVatPayable = s.TotalVatPayable.Add(c.VatPayable.Mul(sg))
	s.TotalCost = s.TotalCost.Add(c.TotalCost.Mul(sg))
	s.TotalProfit = s.TotalProfit.Add(c.Profit.Mul(sg))
	if c.HasCostData {
		s.ItemsWithCost += sign * c.Quantity
	} else {
		s.ItemsWithoutCost += sign * c.Quantity
	}

	s.OrderRefs[c.OrderID] += sign
	if s.OrderRefs[c.OrderID] <= 0 {
		delete(s.OrderRefs, c.OrderID)
	}
}

// ApplyProduct aplica el delta sobre el acumulado del producto.
func ApplyProduct(a *entity.ProductProfitAggregate, d ProductDelta, now time.Time) {
	a.SellerID = d.Key.SellerID
	a.Barcode = d.Key.Barcode
	if d.Remove != nil {
		addProduct(a, d.Remove, -1)
	}
	if d.Add != nil {
		addProduct(a, d.Add, 1)
	}
	a.AverageMargin = Margin(a.TotalProfit, a.TotalRevenue)
	a.AverageProfitPerItem = decimal.Zero
	if a.TotalQuantitySold > 0 {
		a.AverageProfitPerItem = a.TotalProfit.DivRound(decimal.NewFromInt(a.TotalQuantitySold), 2)
	}
	a.IsProfitable = a.TotalProfit.IsPositive()
	a.UpdatedAt = now
}

func addProduct(a *entity.ProductProfitAggregate, c *Contribution, sign int64) {
	sg := decimal.NewFromInt(sign)
	a.TotalQuantitySold += sign * c.Quantity
	a.TotalRevenue = a.TotalRevenue.Add(c.RevenueExclVat.Mul(sg))
	a.TotalCost = a.TotalCost.Add(c.TotalCost.Mul(sg))
	a.TotalProfit = a.TotalProfit.Add(c.Profit.Mul(sg))
	a.ContributingLines += sign
	if !c.HasCostData {
		a.ProvisionalLines += sign
		a.ProvisionalProfit = a.ProvisionalProfit.Add(c.Profit.Mul(sg))
	}
}

// Margin margen ponderado por ingresos: Σutilidad / Σventa sin IVA × 100, 0 si no hay venta.
func Margin(profit, revenueExclVat decimal.Decimal) decimal.Decimal {
	if !revenueExclVat.IsPositive() {
		return decimal.Zero
	}
	return profit.Mul(hundred).DivRound(revenueExclVat, 2)
}
