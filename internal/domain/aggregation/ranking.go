package aggregation

import (
	"sort"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// DefaultTopN cantidad de productos por defecto en los rankings.
const DefaultTopN = 5

// TopProducts productos más rentables: utilidad desc, empate por cantidad vendida desc.
// Con includeProvisional=false se descartan los acumulados con alguna línea sin costo.
func TopProducts(aggs []entity.ProductProfitAggregate, n int, includeProvisional bool) []entity.ProductProfitAggregate {
	out := eligible(aggs, includeProvisional, func(a *entity.ProductProfitAggregate) bool { return true })
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].TotalProfit.Cmp(out[j].TotalProfit); c != 0 {
			return c > 0
		}
		return tieBreak(&out[i], &out[j])
	})
	return limit(out, n)
}

// LossProducts productos con pérdida, el peor primero, mismo desempate.
func LossProducts(aggs []entity.ProductProfitAggregate, n int, includeProvisional bool) []entity.ProductProfitAggregate {
	out := eligible(aggs, includeProvisional, func(a *entity.ProductProfitAggregate) bool {
		return a.TotalProfit.IsNegative()
	})
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].TotalProfit.Cmp(out[j].TotalProfit); c != 0 {
			return c < 0
		}
		return tieBreak(&out[i], &out[j])
	})
	return limit(out, n)
}

// Criterios de orden del listado de productos.
const (
	OrderByProfitDesc   = "-total_profit"
	OrderByProfitAsc    = "total_profit"
	OrderByMarginDesc   = "-average_margin"
	OrderByMarginAsc    = "average_margin"
	OrderByQuantityDesc = "-total_quantity_sold"
)

// ProductFilter filtros del listado completo de productos.
type ProductFilter struct {
	IncludeProvisional bool
	Profitable         *bool // nil = todos
	OrderBy            string
}

// ListProducts filtra y ordena todos los acumulados con líneas aportantes.
// Devuelve ok=false si el criterio de orden no existe. Empates: cantidad vendida desc y código de barras.
func ListProducts(aggs []entity.ProductProfitAggregate, f ProductFilter) ([]entity.ProductProfitAggregate, bool) {
	var cmp func(a, b *entity.ProductProfitAggregate) int
	switch f.OrderBy {
	case "", OrderByProfitDesc:
		cmp = func(a, b *entity.ProductProfitAggregate) int { return -a.TotalProfit.Cmp(b.TotalProfit) }
	case OrderByProfitAsc:
		cmp = func(a, b *entity.ProductProfitAggregate) int { return a.TotalProfit.Cmp(b.TotalProfit) }
	case OrderByMarginDesc:
		cmp = func(a, b *entity.ProductProfitAggregate) int { return -a.AverageMargin.Cmp(b.AverageMargin) }
	case OrderByMarginAsc:
		cmp = func(a, b *entity.ProductProfitAggregate) int { return a.AverageMargin.Cmp(b.AverageMargin) }
	case OrderByQuantityDesc:
		cmp = func(a, b *entity.ProductProfitAggregate) int { return 0 }
	default:
		return nil, false
	}

	out := eligible(aggs, f.IncludeProvisional, func(a *entity.ProductProfitAggregate) bool {
		return f.Profitable == nil || a.IsProfitable == *f.Profitable
	})
	sort.SliceStable(out, func(i, j int) bool {
		if c := cmp(&out[i], &out[j]); c != 0 {
			return c < 0
		}
		return tieBreak(&out[i], &out[j])
	})
	return out, true
}

func eligible(aggs []entity.ProductProfitAggregate, includeProvisional bool, keep func(*entity.ProductProfitAggregate) bool) []entity.ProductProfitAggregate {
	out := make([]entity.ProductProfitAggregate, 0, len(aggs))
	for i := range aggs {
		a := &aggs[i]
		if a.ContributingLines <= 0 {
			continue
		}
		if !includeProvisional && a.IsProvisional() {
			continue
		}
		if keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func tieBreak(a, b *entity.ProductProfitAggregate) bool {
	if a.TotalQuantitySold != b.TotalQuantitySold {
		return a.TotalQuantitySold > b.TotalQuantitySold
	}
	if a.SellerID != b.SellerID {
		return a.SellerID < b.SellerID
	}
	return a.Barcode < b.Barcode
}

func limit(out []entity.ProductProfitAggregate, n int) []entity.ProductProfitAggregate {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
