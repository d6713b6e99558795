package aggregation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/aggregation"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func calc(orderID, barcode string, date time.Time, qty int64, revenueExcl, profit string, hasCost bool) *entity.Calculation {
	return &entity.Calculation{
		OrderLineID: orderID + "-" + barcode,
		OrderID:     orderID,
		SellerID:    "S-1",
		Barcode:     barcode,
		OrderDate:   date,
		Quantity:    qty,
		Active:      true,
		HasCostData: hasCost,
		Breakdown: entity.Breakdown{
			NetSale:        d(revenueExcl).Mul(d("1.18")).Round(2),
			NetSaleExclVat: d(revenueExcl),
			TotalCost:      d(revenueExcl).Sub(d(profit)),
			NetProfit:      d(profit),
			HasCostData:    hasCost,
		},
	}
}

func applyAll(e *aggregation.Engine, daily map[entity.DailyKey]*entity.DailyProfitSummary, prods map[entity.ProductKey]*entity.ProductProfitAggregate, prev, next *entity.Calculation) {
	dd, pd := e.Deltas(prev, next)
	for _, x := range dd {
		s, ok := daily[x.Key]
		if !ok {
			s = &entity.DailyProfitSummary{}
			daily[x.Key] = s
		}
		aggregation.ApplyDaily(s, x, now)
	}
	for _, x := range pd {
		a, ok := prods[x.Key]
		if !ok {
			a = &entity.ProductProfitAggregate{}
			prods[x.Key] = a
		}
		aggregation.ApplyProduct(a, x, now)
	}
}

func TestRecalculoAplicaSoloLaDiferencia(t *testing.T) {
	e := aggregation.NewEngine(time.UTC)
	daily := map[entity.DailyKey]*entity.DailyProfitSummary{}
	prods := map[entity.ProductKey]*entity.ProductProfitAggregate{}
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	applyAll(e, daily, prods, nil, calc("O-1", "A", day, 1, "100", "10", true))
	applyAll(e, daily, prods, nil, calc("O-2", "B", day, 2, "50", "5", true))

	key := entity.DailyKey{SellerID: "S-1", Date: e.DayOf(day)}
	require.Contains(t, daily, key)
	assert.True(t, d("15").Equal(daily[key].TotalProfit))

	p1 := calc("O-1", "A", day, 1, "100", "10", true)
	p2 := calc("O-1", "A", day, 1, "100", "-4", true)
	applyAll(e, daily, prods, p1, p2)

	// 15 + (P2 − P1) = 15 + (−4 − 10) = 1
	assert.True(t, d("1").Equal(daily[key].TotalProfit), "obtenido %s", daily[key].TotalProfit)
	assert.Equal(t, int64(2), daily[key].TotalOrders)
	assert.Equal(t, int64(3), daily[key].TotalItems)
	// margen ponderado: 1 / 150 × 100
	assert.True(t, d("0.67").Equal(daily[key].AverageMargin), "obtenido %s", daily[key].AverageMargin)

	a := prods[entity.ProductKey{SellerID: "S-1", Barcode: "A"}]
	assert.True(t, d("-4").Equal(a.TotalProfit))
	assert.Equal(t, int64(1), a.ContributingLines)
	assert.False(t, a.IsProfitable)
}

func TestMismoCalculoDosVecesNoCambiaAgregados(t *testing.T) {
	e := aggregation.NewEngine(time.UTC)
	daily := map[entity.DailyKey]*entity.DailyProfitSummary{}
	prods := map[entity.ProductKey]*entity.ProductProfitAggregate{}
	c := calc("O-1", "A", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 2, "84.75", "8.43", true)

	applyAll(e, daily, prods, nil, c)
	var before entity.DailyProfitSummary
	for _, s := range daily {
		before = *s
	}

	applyAll(e, daily, prods, c, c)
	for _, s := range daily {
		assert.True(t, before.TotalProfit.Equal(s.TotalProfit))
		assert.True(t, before.TotalRevenueExclVat.Equal(s.TotalRevenueExclVat))
		assert.Equal(t, before.TotalItems, s.TotalItems)
		assert.Equal(t, before.TotalOrders, s.TotalOrders)
	}
	for _, a := range prods {
		assert.Equal(t, int64(2), a.TotalQuantitySold)
		assert.Equal(t, int64(1), a.ContributingLines)
		assert.True(t, d("4.22").Equal(a.AverageProfitPerItem), "obtenido %s", a.AverageProfitPerItem)
	}
}

func TestCambioDeFechaMueveElAporteDeBucket(t *testing.T) {
	e := aggregation.NewEngine(time.UTC)
	daily := map[entity.DailyKey]*entity.DailyProfitSummary{}
	prods := map[entity.ProductKey]*entity.ProductProfitAggregate{}
	d1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	prev := calc("O-1", "A", d1, 1, "100", "10", true)
	next := calc("O-1", "A", d2, 1, "100", "10", true)
	applyAll(e, daily, prods, nil, prev)

	dd, pd := e.Deltas(prev, next)
	require.Len(t, dd, 2)
	require.Len(t, pd, 1)
	assert.True(t, dd[0].Key.Date.Before(dd[1].Key.Date), "deltas ordenados por clave")

	applyAll(e, daily, prods, prev, next)
	k1 := entity.DailyKey{SellerID: "S-1", Date: e.DayOf(d1)}
	k2 := entity.DailyKey{SellerID: "S-1", Date: e.DayOf(d2)}
	assert.True(t, daily[k1].TotalProfit.IsZero())
	assert.Equal(t, int64(0), daily[k1].TotalOrders)
	assert.True(t, d("10").Equal(daily[k2].TotalProfit))
}

func TestLineaCanceladaRetiraSuAporte(t *testing.T) {
	e := aggregation.NewEngine(time.UTC)
	daily := map[entity.DailyKey]*entity.DailyProfitSummary{}
	prods := map[entity.ProductKey]*entity.ProductProfitAggregate{}
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	prev := calc("O-1", "A", day, 1, "100", "10", true)
	applyAll(e, daily, prods, nil, prev)

	cancelled := *prev
	cancelled.Active = false
	applyAll(e, daily, prods, prev, &cancelled)

	a := prods[entity.ProductKey{SellerID: "S-1", Barcode: "A"}]
	assert.Equal(t, int64(0), a.ContributingLines)
	assert.True(t, a.TotalProfit.IsZero())
}

func TestDayOfUsaLaZonaConfigurada(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	e := aggregation.NewEngine(loc)

	// 22:30 UTC del 1 de marzo ya es 2 de marzo en UTC+3
	got := e.DayOf(time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestSinCostoSeAcumulaComoProvisional(t *testing.T) {
	e := aggregation.NewEngine(time.UTC)
	daily := map[entity.DailyKey]*entity.DailyProfitSummary{}
	prods := map[entity.ProductKey]*entity.ProductProfitAggregate{}
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	applyAll(e, daily, prods, nil, calc("O-1", "A", day, 3, "100", "49.43", false))

	for _, s := range daily {
		assert.Equal(t, int64(3), s.TotalItems)
		assert.Equal(t, int64(3), s.ItemsWithoutCost)
		assert.True(t, d("100").Equal(s.TotalRevenueExclVat))
	}
	a := prods[entity.ProductKey{SellerID: "S-1", Barcode: "A"}]
	assert.True(t, a.IsProvisional())
	assert.True(t, d("49.43").Equal(a.ProvisionalProfit))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rankings
// ──────────────────────────────────────────────────────────────────────────────

func agg(barcode, profit string, qty int64, provisional int64) entity.ProductProfitAggregate {
	return entity.ProductProfitAggregate{
		SellerID: "S-1", Barcode: barcode, TotalProfit: d(profit), TotalQuantitySold: qty,
		ContributingLines: 1 + provisional, ProvisionalLines: provisional,
	}
}

func barcodes(aggs []entity.ProductProfitAggregate) []string {
	out := make([]string, len(aggs))
	for i, a := range aggs {
		out[i] = a.Barcode
	}
	return out
}

func TestTopProducts_EmpateSeResuelvePorCantidad(t *testing.T) {
	aggs := []entity.ProductProfitAggregate{
		agg("A", "100", 1, 0),
		agg("B", "100", 7, 0),
		agg("C", "250", 1, 0),
		agg("D", "100", 3, 0),
	}
	got := aggregation.TopProducts(aggs, 0, false)
	assert.Equal(t, []string{"C", "B", "D", "A"}, barcodes(got))

	got = aggregation.TopProducts(aggs, 2, false)
	assert.Equal(t, []string{"C", "B"}, barcodes(got))
}

func TestTopProducts_FiltroProvisional(t *testing.T) {
	aggs := []entity.ProductProfitAggregate{
		agg("A", "500", 1, 1),
		agg("B", "100", 1, 0),
	}
	assert.Equal(t, []string{"B"}, barcodes(aggregation.TopProducts(aggs, 5, false)))
	assert.Equal(t, []string{"A", "B"}, barcodes(aggregation.TopProducts(aggs, 5, true)))
}

func TestLossProducts_PeorPrimero(t *testing.T) {
	aggs := []entity.ProductProfitAggregate{
		agg("A", "-10", 1, 0),
		agg("B", "20", 1, 0),
		agg("C", "-50", 1, 0),
		agg("D", "-10", 4, 0),
		agg("E", "0", 9, 0),
		agg("F", "-99", 1, 2),
	}
	assert.Equal(t, []string{"C", "D", "A"}, barcodes(aggregation.LossProducts(aggs, 5, false)))
	assert.Equal(t, []string{"F", "C", "D", "A"}, barcodes(aggregation.LossProducts(aggs, 5, true)))
}

func TestRankingIgnoraAcumuladosVacios(t *testing.T) {
	empty := agg("Z", "0", 0, 0)
	empty.ContributingLines = 0
	got := aggregation.TopProducts([]entity.ProductProfitAggregate{empty, agg("A", "1", 1, 0)}, 5, true)
	assert.Equal(t, []string{"A"}, barcodes(got))
}

func TestListProducts_OrdenYFiltros(t *testing.T) {
	a := agg("A", "100", 1, 0)
	a.AverageMargin, a.IsProfitable = d("10"), true
	b := agg("B", "-20", 5, 0)
	b.AverageMargin = d("-4")
	c := agg("C", "300", 2, 1)
	c.AverageMargin, c.IsProfitable = d("30"), true
	aggs := []entity.ProductProfitAggregate{a, b, c}

	got, ok := aggregation.ListProducts(aggs, aggregation.ProductFilter{IncludeProvisional: true})
	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "B"}, barcodes(got))

	got, _ = aggregation.ListProducts(aggs, aggregation.ProductFilter{IncludeProvisional: true, OrderBy: aggregation.OrderByMarginAsc})
	assert.Equal(t, []string{"B", "A", "C"}, barcodes(got))

	got, _ = aggregation.ListProducts(aggs, aggregation.ProductFilter{IncludeProvisional: true, OrderBy: aggregation.OrderByQuantityDesc})
	assert.Equal(t, []string{"B", "C", "A"}, barcodes(got))

	profitable := true
	got, _ = aggregation.ListProducts(aggs, aggregation.ProductFilter{Profitable: &profitable})
	assert.Equal(t, []string{"A"}, barcodes(got), "sin provisionales y solo rentables")

	_, ok = aggregation.ListProducts(aggs, aggregation.ProductFilter{OrderBy: "barcode"})
	assert.False(t, ok)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resumen mensual
// ──────────────────────────────────────────────────────────────────────────────

func TestRollupMonthly_SumaYRecalculaElMargen(t *testing.T) {
	day := func(m time.Month, dd int, orders int64, revenueExcl, profit string) *entity.DailyProfitSummary {
		return &entity.DailyProfitSummary{
			SellerID: "S-1", Date: time.Date(2026, m, dd, 0, 0, 0, 0, time.UTC),
			TotalOrders: orders, TotalItems: orders,
			TotalRevenueExclVat: d(revenueExcl), TotalProfit: d(profit),
		}
	}
	months := aggregation.RollupMonthly([]*entity.DailyProfitSummary{
		day(time.April, 2, 1, "50", "-5"),
		day(time.March, 1, 2, "100", "30"),
		day(time.March, 31, 1, "300", "10"),
	})
	require.Len(t, months, 2)
	assert.Equal(t, time.March, months[0].Month.Month())
	assert.Equal(t, int64(3), months[0].TotalOrders)
	assert.True(t, d("40").Equal(months[0].TotalProfit))
	// 40 / 400 × 100, no el promedio de 30 % y 3,33 %
	assert.True(t, d("10").Equal(months[0].AverageMargin), "obtenido %s", months[0].AverageMargin)
	assert.True(t, d("-10").Equal(months[1].AverageMargin))
}
