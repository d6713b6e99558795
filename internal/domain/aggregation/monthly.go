package aggregation

import (
	"sort"
	"time"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

type monthKey struct {
	seller string
	month  time.Time
}

// RollupMonthly agrupa resúmenes diarios por (vendedor, mes), ordenados por mes y vendedor.
// El margen se recalcula ponderado sobre los montos del mes, no como promedio de márgenes diarios.
func RollupMonthly(days []*entity.DailyProfitSummary) []entity.MonthlyProfitSummary {
	byMonth := make(map[monthKey]*entity.MonthlyProfitSummary)
	for _, d := range days {
		k := monthKey{seller: d.SellerID, month: time.Date(d.Date.Year(), d.Date.Month(), 1, 0, 0, 0, 0, time.UTC)}
		m, ok := byMonth[k]
		if !ok {
			m = &entity.MonthlyProfitSummary{SellerID: k.seller, Month: k.month}
			byMonth[k] = m
		}
		m.TotalOrders += d.TotalOrders
		m.TotalItems += d.TotalItems
		m.TotalRevenue = m.TotalRevenue.Add(d.TotalRevenue)
		m.TotalRevenueExclVat = m.TotalRevenueExclVat.Add(d.TotalRevenueExclVat)
		m.TotalCost = m.TotalCost.Add(d.TotalCost)
		m.TotalProfit = m.TotalProfit.Add(d.TotalProfit)
		m.ItemsWithoutCost += d.ItemsWithoutCost
	}

	out := make([]entity.MonthlyProfitSummary, 0, len(byMonth))
	for _, m := range byMonth {
		m.AverageMargin = Margin(m.TotalProfit, m.TotalRevenueExclVat)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].SellerID < out[j].SellerID
	})
	return out
}
