package profitability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/aggregation"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/costbasis"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/infrastructure/memory"
)

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

var orderDay = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	lines    *memory.OrderLineRepo
	products *memory.ProductRepo
	uc       *profitability.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		lines:    memory.NewOrderLineRepository(store),
		products: memory.NewProductRepository(store),
	}
	f.uc = profitability.NewUseCase(
		f.lines,
		f.products,
		memory.NewSellerRepository(store),
		memory.NewCalculationRepository(store),
		memory.NewAggregateRepository(store),
		memory.NewTxRunner(store),
		costbasis.NewResolver(costbasis.SystemDefaults()),
		aggregation.NewEngine(time.UTC),
		zerolog.Nop(),
	)
	require.NoError(t, memory.NewSellerRepository(store).Save(context.Background(), &entity.SellerAccount{
		ID:                       "S-1",
		DefaultVatRate:           dp("18"),
		DefaultCommissionRate:    dp("15"),
		DefaultCommissionVatRate: dp("18"),
		DefaultCargoVatRate:      dp("20"),
		DefaultPlatformVatRate:   dp("18"),
	}))
	return f
}

func (f *fixture) addLine(t *testing.T, id, orderID, barcode string) {
	t.Helper()
	_, err := f.lines.Create(context.Background(), &entity.OrderLine{
		ID: id, OrderID: orderID, SellerID: "S-1", Barcode: barcode,
		UnitPrice: decimal.NewFromInt(100), Quantity: 1, DiscountAmount: decimal.Zero,
		OrderDate: orderDay, CargoCostExclVat: dp("10"), PlatformFeeExclVat: dp("2"),
	})
	require.NoError(t, err)
}

func (f *fixture) setCost(t *testing.T, barcode, cost string) {
	t.Helper()
	require.NoError(t, f.products.Save(context.Background(), &entity.Product{
		SellerID: "S-1", Barcode: barcode, ProductCostExclVat: dp(cost), Active: true,
	}))
}

func TestCompute_EjemploDeReferenciaDeExtremoAExtremo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")

	calc, err := f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), calc.Version)
	assert.True(t, decimal.RequireFromString("8.43").Equal(calc.Breakdown.NetProfit))
	assert.Equal(t, entity.TierSeller, calc.Basis.SourceOf(entity.FieldSalesVatRate))

	resp, err := f.uc.GetBreakdown(ctx, "S-1", "L-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ComputeComputed), resp.State)
	require.NotNil(t, resp.Breakdown)
	assert.True(t, decimal.RequireFromString("76.32").Equal(resp.Breakdown.TotalCost))

	daily, err := f.uc.GetDailySummaries(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-03-01", EndDate: "2026-03-01"})
	require.NoError(t, err)
	require.Len(t, daily.Days, 1)
	assert.Equal(t, int64(1), daily.Days[0].TotalOrders)
	assert.True(t, decimal.RequireFromString("8.43").Equal(daily.Days[0].TotalProfit))
	assert.True(t, decimal.RequireFromString("9.95").Equal(daily.Days[0].AverageMargin), "margen ponderado sobre montos redondeados")
}

func TestCompute_RecalculoAplicaDeltaYNoDuplica(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")
	f.addLine(t, "L-2", "O-2", "A")

	_, err := f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)
	_, err = f.uc.Compute(ctx, "L-2")
	require.NoError(t, err)

	f.setCost(t, "A", "60")
	calc, err := f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calc.Version)
	p2 := calc.Breakdown.NetProfit

	daily, err := f.uc.GetDailySummaries(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-03-01", EndDate: "2026-03-01"})
	require.NoError(t, err)
	require.Len(t, daily.Days, 1)
	want := decimal.RequireFromString("8.43").Add(p2)
	assert.True(t, want.Equal(daily.Days[0].TotalProfit), "esperado %s, obtenido %s", want, daily.Days[0].TotalProfit)
	assert.Equal(t, int64(2), daily.Days[0].TotalItems)
	assert.Equal(t, int64(2), daily.Days[0].TotalOrders)

	// recomputar sin cambios no mueve los agregados
	_, err = f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)
	again, err := f.uc.GetDailySummaries(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-03-01", EndDate: "2026-03-01"})
	require.NoError(t, err)
	assert.True(t, daily.Days[0].TotalProfit.Equal(again.Days[0].TotalProfit))
}

func TestGetBreakdown_SinCalculoDevuelveEstadoExplicito(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addLine(t, "L-1", "O-1", "A")

	resp, err := f.uc.GetBreakdown(ctx, "S-1", "L-1")
	require.ErrorIs(t, err, domain.ErrNotComputed)
	require.NotNil(t, resp)
	assert.Equal(t, string(entity.ComputeUncomputed), resp.State)
	assert.Nil(t, resp.Breakdown)

	f.uc.MarkFailed(ctx, "L-1", errors.New("sin conexión"))
	resp, err = f.uc.GetBreakdown(ctx, "S-1", "L-1")
	require.ErrorIs(t, err, domain.ErrNotComputed)
	assert.Equal(t, string(entity.ComputeFailed), resp.State)
	assert.Equal(t, "sin conexión", resp.Error)

	_, err = f.uc.GetBreakdown(ctx, "S-2", "L-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra cuenta no ve la línea")
}

func TestCompute_LineaInexistenteEsFatal(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Compute(context.Background(), "L-404")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, domain.IsFatal(err))
}

func TestCompute_FalloDeEscrituraEsTransitorioYNoDejaRastro(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")
	f.store.FailCommits(1)

	_, err := f.uc.Compute(ctx, "L-1")
	var te *domain.TransientStoreError
	require.True(t, errors.As(err, &te))
	assert.False(t, domain.IsFatal(err))

	_, err = f.uc.GetBreakdown(ctx, "S-1", "L-1")
	assert.ErrorIs(t, err, domain.ErrNotComputed)
	top, err := f.uc.GetTopProducts(ctx, "S-1", dto.RankingRequest{IncludeProvisional: true})
	require.NoError(t, err)
	assert.Empty(t, top.Products)

	calc, err := f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), calc.Version)
}

func TestRankings_FiltranProvisionales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.setCost(t, "L", "120")
	f.addLine(t, "L-1", "O-1", "A")
	f.addLine(t, "L-2", "O-1", "B") // sin costo: provisional
	f.addLine(t, "L-3", "O-2", "L") // pérdida

	for _, id := range []string{"L-1", "L-2", "L-3"} {
		_, err := f.uc.Compute(ctx, id)
		require.NoError(t, err)
	}

	top, err := f.uc.GetTopProducts(ctx, "S-1", dto.RankingRequest{})
	require.NoError(t, err)
	require.Len(t, top.Products, 2)
	assert.Equal(t, "A", top.Products[0].Barcode)
	assert.Equal(t, "L", top.Products[1].Barcode)

	top, err = f.uc.GetTopProducts(ctx, "S-1", dto.RankingRequest{IncludeProvisional: true})
	require.NoError(t, err)
	require.Len(t, top.Products, 3)
	assert.Equal(t, "B", top.Products[0].Barcode, "sin costo la utilidad queda sobrestimada")
	assert.True(t, top.Products[0].IsProvisional)

	loss, err := f.uc.GetLossProducts(ctx, "S-1", dto.RankingRequest{})
	require.NoError(t, err)
	require.Len(t, loss.Products, 1)
	assert.Equal(t, "L", loss.Products[0].Barcode)
	assert.True(t, loss.Products[0].TotalProfit.IsNegative())

	dash, err := f.uc.GetDashboard(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-03-01", EndDate: "2026-03-31"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), dash.TotalOrders)
	assert.Equal(t, int64(3), dash.TotalItems)
	assert.Equal(t, int64(1), dash.DataQuality.ItemsWithoutCost)
	assert.True(t, decimal.RequireFromString("66.67").Equal(dash.DataQuality.CostCoveragePct))
}

func TestCompute_LineaCanceladaRetiraSuAporte(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")
	_, err := f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)

	require.NoError(t, f.lines.UpdateStatus(ctx, "L-1", entity.LineStatusCancelled))
	_, err = f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)

	daily, err := f.uc.GetDailySummaries(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-03-01", EndDate: "2026-03-01"})
	require.NoError(t, err)
	require.Len(t, daily.Days, 1)
	assert.True(t, daily.Days[0].TotalProfit.IsZero())
	assert.Equal(t, int64(0), daily.Days[0].TotalOrders)

	resp, err := f.uc.GetBreakdown(ctx, "S-1", "L-1")
	require.NoError(t, err)
	assert.False(t, resp.Active)
}

func TestReportes_PeriodoInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.GetDailySummaries(context.Background(), "S-1", dto.PeriodRequest{StartDate: "2026-03-05", EndDate: "2026-03-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.GetDailySummaries(context.Background(), "S-1", dto.PeriodRequest{StartDate: "01/03/2026"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func (f *fixture) addLineAt(t *testing.T, id, orderID, barcode string, at time.Time) {
	t.Helper()
	_, err := f.lines.Create(context.Background(), &entity.OrderLine{
		ID: id, OrderID: orderID, SellerID: "S-1", Barcode: barcode,
		UnitPrice: decimal.NewFromInt(100), Quantity: 2, DiscountAmount: decimal.Zero,
		OrderDate: at, CargoCostExclVat: dp("10"), PlatformFeeExclVat: dp("2"),
	})
	require.NoError(t, err)
}

func TestGetBreakdown_RecalculoFallidoMarcaElAnteriorComoDesactualizado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")
	_, err := f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)

	f.uc.MarkFailed(ctx, "L-1", errors.New("timeout de base"))
	resp, err := f.uc.GetBreakdown(ctx, "S-1", "L-1")
	require.ErrorIs(t, err, domain.ErrNotComputed)
	assert.Equal(t, string(entity.ComputeFailed), resp.State)
	assert.True(t, resp.Stale)
	require.NotNil(t, resp.Breakdown, "se informa el cálculo anterior")
	assert.True(t, decimal.RequireFromString("8.43").Equal(resp.Breakdown.NetProfit))

	_, err = f.uc.Compute(ctx, "L-1")
	require.NoError(t, err)
	resp, err = f.uc.GetBreakdown(ctx, "S-1", "L-1")
	require.NoError(t, err)
	assert.False(t, resp.Stale)
}

func TestListOrderCalculations_TotalesYPendientes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")
	f.addLine(t, "L-2", "O-1", "A")
	f.addLine(t, "L-3", "O-1", "A")
	f.addLine(t, "L-9", "O-2", "A")
	for _, id := range []string{"L-1", "L-2", "L-9"} {
		_, err := f.uc.Compute(ctx, id)
		require.NoError(t, err)
	}

	out, err := f.uc.ListOrderCalculations(ctx, "S-1", "O-1")
	require.NoError(t, err)
	assert.Equal(t, 3, out.Lines)
	assert.Equal(t, 1, out.Pending, "L-3 sin calcular")
	require.Len(t, out.Items, 2)
	assert.Equal(t, "L-1", out.Items[0].OrderLineID)
	assert.True(t, decimal.RequireFromString("16.86").Equal(out.Totals.NetProfit), "obtenido %s", out.Totals.NetProfit)
	assert.True(t, decimal.RequireFromString("9.95").Equal(out.Totals.ProfitMarginPercent))

	_, err = f.uc.ListOrderCalculations(ctx, "S-2", "O-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra cuenta no ve la orden")
}

func TestGetMonthlySummaries_AgrupaPorMes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.addLine(t, "L-1", "O-1", "A")
	f.addLineAt(t, "L-2", "O-2", "A", time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC))
	for _, id := range []string{"L-1", "L-2"} {
		_, err := f.uc.Compute(ctx, id)
		require.NoError(t, err)
	}

	out, err := f.uc.GetMonthlySummaries(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-03-01", EndDate: "2026-04-30"})
	require.NoError(t, err)
	require.Len(t, out.Months, 2)
	assert.Equal(t, "2026-03", out.Months[0].Month)
	assert.Equal(t, "2026-04", out.Months[1].Month)
	assert.Equal(t, int64(1), out.Months[0].TotalOrders)
	assert.Equal(t, int64(2), out.Months[1].TotalItems)

	_, err = f.uc.GetMonthlySummaries(ctx, "S-1", dto.PeriodRequest{StartDate: "2026-05-01", EndDate: "2026-04-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListProducts_PaginaYUltimos30Dias(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setCost(t, "A", "50")
	f.setCost(t, "L", "120")
	recent := time.Now().Add(-24 * time.Hour)
	f.addLineAt(t, "L-1", "O-1", "A", recent)
	f.addLineAt(t, "L-2", "O-2", "A", time.Now().AddDate(0, 0, -90))
	f.addLineAt(t, "L-3", "O-3", "L", recent)
	f.addLineAt(t, "L-4", "O-4", "B", recent) // sin costo: provisional
	for _, id := range []string{"L-1", "L-2", "L-3", "L-4"} {
		_, err := f.uc.Compute(ctx, id)
		require.NoError(t, err)
	}

	out, err := f.uc.ListProducts(ctx, "S-1", dto.ProductListRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Page.Total)
	assert.Equal(t, "-total_profit", out.OrderBy)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "B", out.Products[0].Barcode)
	assert.True(t, out.Products[0].IsProvisional)
	assert.Equal(t, "A", out.Products[1].Barcode)
	assert.Equal(t, 2, out.Products[1].Rank)
	assert.Equal(t, int64(4), out.Products[1].TotalQuantitySold)
	assert.Equal(t, int64(2), out.Products[1].Last30DaysQuantity, "solo la línea reciente")
	assert.True(t, out.Products[1].TotalProfit.Div(decimal.NewFromInt(2)).Equal(out.Products[1].Last30DaysProfit))

	out, err = f.uc.ListProducts(ctx, "S-1", dto.ProductListRequest{Offset: 2, ExcludeProvisional: true})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page.Total)
	assert.Empty(t, out.Products)

	out, err = f.uc.ListProducts(ctx, "S-1", dto.ProductListRequest{Profitable: "false"})
	require.NoError(t, err)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "L", out.Products[0].Barcode)

	_, err = f.uc.ListProducts(ctx, "S-1", dto.ProductListRequest{OrderBy: "barcode"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.ListProducts(ctx, "S-1", dto.ProductListRequest{Profitable: "tal vez"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
