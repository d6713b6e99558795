package profitability

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/aggregation"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

const (
	maxTopN     = 100
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	windowDays  = 30
)

var hundred = decimal.NewFromInt(100)

// GetDailySummaries resúmenes diarios en el período; sellerID vacío = todos los vendedores.
func (uc *UseCase) GetDailySummaries(ctx context.Context, sellerID string, req dto.PeriodRequest) (*dto.DailySummariesResponse, error) {
	start, end, err := uc.parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	rows, err := uc.aggRepo.ListDaily(ctx, sellerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("reportes: resúmenes diarios: %w", err)
	}
	days := make([]dto.DailySummaryDTO, 0, len(rows))
	for _, r := range rows {
		days = append(days, toDailyDTO(r))
	}
	return &dto.DailySummariesResponse{
		Period: dto.PeriodDTO{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)},
		Days:   days,
	}, nil
}

// GetMonthlySummaries resúmenes por mes calendario. Por defecto: los últimos 12 meses incluido el actual.
func (uc *UseCase) GetMonthlySummaries(ctx context.Context, sellerID string, req dto.PeriodRequest) (*dto.MonthlySummariesResponse, error) {
	if req.StartDate == "" {
		today := uc.engine.DayOf(uc.now())
		req.StartDate = time.Date(today.Year(), today.Month()-11, 1, 0, 0, 0, 0, time.UTC).Format(dateLayout)
	}
	start, end, err := uc.parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	rows, err := uc.aggRepo.ListDaily(ctx, sellerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("reportes: resúmenes mensuales: %w", err)
	}
	months := aggregation.RollupMonthly(rows)
	out := &dto.MonthlySummariesResponse{
		Period: dto.PeriodDTO{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)},
		Months: make([]dto.MonthlySummaryDTO, 0, len(months)),
	}
	for _, m := range months {
		out.Months = append(out.Months, dto.MonthlySummaryDTO{
			SellerID:            m.SellerID,
			Month:               m.Month.Format(monthLayout),
			TotalOrders:         m.TotalOrders,
			TotalItems:          m.TotalItems,
			TotalRevenue:        m.TotalRevenue,
			TotalRevenueExclVat: m.TotalRevenueExclVat,
			TotalCost:           m.TotalCost,
			TotalProfit:         m.TotalProfit,
			AverageMargin:       m.AverageMargin,
			ItemsWithoutCost:    m.ItemsWithoutCost,
		})
	}
	return out, nil
}

// ListProducts página del listado completo de acumulados por producto, con cantidad y utilidad
// de los últimos 30 días. Los provisionales se incluyen (marcados) salvo ExcludeProvisional.
func (uc *UseCase) ListProducts(ctx context.Context, sellerID string, req dto.ProductListRequest) (*dto.ProductListResponse, error) {
	filter := aggregation.ProductFilter{IncludeProvisional: !req.ExcludeProvisional, OrderBy: req.OrderBy}
	switch req.Profitable {
	case "":
	case "true", "false":
		v := req.Profitable == "true"
		filter.Profitable = &v
	default:
		return nil, fmt.Errorf("profitable inválido %q: %w", req.Profitable, domain.ErrInvalidInput)
	}
	if filter.OrderBy == "" {
		filter.OrderBy = aggregation.OrderByProfitDesc
	}

	aggs, err := uc.aggRepo.ListProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("reportes: productos: %w", err)
	}
	listed, ok := aggregation.ListProducts(aggs, filter)
	if !ok {
		return nil, fmt.Errorf("order_by inválido %q: %w", req.OrderBy, domain.ErrInvalidInput)
	}

	page := dto.PageRequest{Limit: req.Limit, Offset: req.Offset}
	page.DefaultPage()
	total := len(listed)
	if page.Offset >= len(listed) {
		listed = nil
	} else {
		listed = listed[page.Offset:]
		if len(listed) > page.Limit {
			listed = listed[:page.Limit]
		}
	}

	window, err := uc.calcRepo.SumByProductSince(ctx, sellerID, uc.now().AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, fmt.Errorf("reportes: últimos %d días: %w", windowDays, err)
	}
	out := &dto.ProductListResponse{
		OrderBy:  filter.OrderBy,
		Products: make([]dto.ProductListItemDTO, 0, len(listed)),
		Page:     dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for i, a := range toRankingDTO(listed) {
		a.Rank = page.Offset + i + 1
		w := window[entity.ProductKey{SellerID: a.SellerID, Barcode: a.Barcode}]
		out.Products = append(out.Products, dto.ProductListItemDTO{
			ProductAggregateDTO: a,
			Last30DaysQuantity:  w.Quantity,
			Last30DaysProfit:    w.Profit,
		})
	}
	return out, nil
}

// GetTopProducts productos más rentables. Con IncludeProvisional=false se excluyen los que
// tienen utilidad calculada sin costo cargado.
func (uc *UseCase) GetTopProducts(ctx context.Context, sellerID string, req dto.RankingRequest) (*dto.RankingResponse, error) {
	aggs, err := uc.aggRepo.ListProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("reportes: productos: %w", err)
	}
	ranked := aggregation.TopProducts(aggs, clampN(req.N), req.IncludeProvisional)
	return &dto.RankingResponse{IncludeProvisional: req.IncludeProvisional, Products: toRankingDTO(ranked)}, nil
}

// GetLossProducts productos con pérdida, el peor primero.
func (uc *UseCase) GetLossProducts(ctx context.Context, sellerID string, req dto.RankingRequest) (*dto.RankingResponse, error) {
	aggs, err := uc.aggRepo.ListProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("reportes: productos: %w", err)
	}
	ranked := aggregation.LossProducts(aggs, clampN(req.N), req.IncludeProvisional)
	return &dto.RankingResponse{IncludeProvisional: req.IncludeProvisional, Products: toRankingDTO(ranked)}, nil
}

// GetDashboard totales del período, reparto de costos, cobertura de costos y rankings.
// Los rankings son históricos y no incluyen productos provisionales.
func (uc *UseCase) GetDashboard(ctx context.Context, sellerID string, req dto.PeriodRequest) (*dto.DashboardDTO, error) {
	start, end, err := uc.parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	type dailyResult struct {
		rows []*entity.DailyProfitSummary
		err  error
	}
	type productsResult struct {
		rows []entity.ProductProfitAggregate
		err  error
	}
	dailyCh := make(chan dailyResult, 1)
	productsCh := make(chan productsResult, 1)

	go func() {
		rows, err := uc.aggRepo.ListDaily(ctx, sellerID, start, end)
		dailyCh <- dailyResult{rows, err}
	}()
	go func() {
		rows, err := uc.aggRepo.ListProducts(ctx, sellerID)
		productsCh <- productsResult{rows, err}
	}()

	daily := <-dailyCh
	products := <-productsCh
	if daily.err != nil {
		return nil, fmt.Errorf("dashboard: resúmenes diarios: %w", daily.err)
	}
	if products.err != nil {
		return nil, fmt.Errorf("dashboard: productos: %w", products.err)
	}

	out := &dto.DashboardDTO{
		Period: dto.PeriodDTO{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)},
		Daily:  make([]dto.DailySummaryDTO, 0, len(daily.rows)),
	}
	var revenueExcl decimal.Decimal
	for _, s := range daily.rows {
		out.TotalOrders += s.TotalOrders
		out.TotalItems += s.TotalItems
		out.TotalRevenue = out.TotalRevenue.Add(s.TotalRevenue)
		out.TotalCost = out.TotalCost.Add(s.TotalCost)
		out.TotalProfit = out.TotalProfit.Add(s.TotalProfit)
		revenueExcl = revenueExcl.Add(s.TotalRevenueExclVat)

		out.CostBreakdown.ProductCost = out.CostBreakdown.ProductCost.Add(s.TotalProductCost)
		out.CostBreakdown.Commission = out.CostBreakdown.Commission.Add(s.TotalCommission)
		out.CostBreakdown.CargoCost = out.CostBreakdown.CargoCost.Add(s.TotalCargoCost)
		out.CostBreakdown.PlatformFee = out.CostBreakdown.PlatformFee.Add(s.TotalPlatformFee)
		out.CostBreakdown.VatPayable = out.CostBreakdown.VatPayable.Add(s.TotalVatPayable)

		out.DataQuality.ItemsWithCost += s.ItemsWithCost
		out.DataQuality.ItemsWithoutCost += s.ItemsWithoutCost
		out.Daily = append(out.Daily, toDailyDTO(s))
	}
	out.AverageMargin = aggregation.Margin(out.TotalProfit, revenueExcl)
	out.DataQuality.CostCoveragePct = decimal.Zero
	if items := out.DataQuality.ItemsWithCost + out.DataQuality.ItemsWithoutCost; items > 0 {
		out.DataQuality.CostCoveragePct = decimal.NewFromInt(out.DataQuality.ItemsWithCost).
			Mul(hundred).DivRound(decimal.NewFromInt(items), 2)
	}
	out.TopProducts = toRankingDTO(aggregation.TopProducts(products.rows, aggregation.DefaultTopN, false))
	out.LossProducts = toRankingDTO(aggregation.LossProducts(products.rows, aggregation.DefaultTopN, false))
	return out, nil
}

// parsePeriod convierte los strings de fecha en días calendario de la zona del motor.
// Por defecto: desde el primer día del mes actual hasta hoy.
func (uc *UseCase) parsePeriod(startStr, endStr string) (start, end time.Time, err error) {
	today := uc.engine.DayOf(uc.now())

	if endStr == "" {
		end = today
	} else {
		end, err = time.ParseInLocation(dateLayout, endStr, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end_date inválido: %w", domain.ErrInvalidInput)
		}
	}

	if startStr == "" {
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		start, err = time.ParseInLocation(dateLayout, startStr, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start_date inválido: %w", domain.ErrInvalidInput)
		}
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date no puede ser posterior a end_date: %w", domain.ErrInvalidInput)
	}
	return start, end, nil
}

func clampN(n int) int {
	if n <= 0 {
		return aggregation.DefaultTopN
	}
	if n > maxTopN {
		return maxTopN
	}
	return n
}

func toDailyDTO(s *entity.DailyProfitSummary) dto.DailySummaryDTO {
	return dto.DailySummaryDTO{
		SellerID:            s.SellerID,
		Date:                s.Date.Format(dateLayout),
		TotalOrders:         s.TotalOrders,
		TotalItems:          s.TotalItems,
		TotalRevenue:        s.TotalRevenue,
		TotalRevenueExclVat: s.TotalRevenueExclVat,
		TotalProductCost:    s.TotalProductCost,
		TotalCommission:     s.TotalCommission,
		TotalCargoCost:      s.TotalCargoCost,
		TotalPlatformFee:    s.TotalPlatformFee,
		TotalVatPayable:     s.TotalVatPayable,
		TotalCost:           s.TotalCost,
		TotalProfit:         s.TotalProfit,
		AverageMargin:       s.AverageMargin,
		ItemsWithCost:       s.ItemsWithCost,
		ItemsWithoutCost:    s.ItemsWithoutCost,
	}
}

func toRankingDTO(aggs []entity.ProductProfitAggregate) []dto.ProductAggregateDTO {
	out := make([]dto.ProductAggregateDTO, 0, len(aggs))
	for i := range aggs {
		a := &aggs[i]
		out = append(out, dto.ProductAggregateDTO{
			Rank:                 i + 1,
			SellerID:             a.SellerID,
			Barcode:              a.Barcode,
			TotalQuantitySold:    a.TotalQuantitySold,
			TotalRevenue:         a.TotalRevenue,
			TotalCost:            a.TotalCost,
			TotalProfit:          a.TotalProfit,
			AverageMargin:        a.AverageMargin,
			AverageProfitPerItem: a.AverageProfitPerItem,
			IsProfitable:         a.IsProfitable,
			IsProvisional:        a.IsProvisional(),
			ProvisionalLines:     a.ProvisionalLines,
			UpdatedAt:            a.UpdatedAt,
		})
	}
	return out
}
