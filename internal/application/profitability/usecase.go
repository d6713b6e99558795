// Package profitability orquesta el cálculo de rentabilidad de una línea de orden y
// las consultas de reportes sobre los agregados.
package profitability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/aggregation"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/costbasis"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/profit"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

// UseCase cálculo de una línea: resolver base de costo → motor → upsert + agregados.
type UseCase struct {
	lineRepo    repository.OrderLineRepository
	productRepo repository.ProductRepository
	sellerRepo  repository.SellerRepository
	calcRepo    repository.CalculationRepository
	aggRepo     repository.AggregateRepository
	tx          TxRunner
	resolver    *costbasis.Resolver
	engine      *aggregation.Engine
	log         zerolog.Logger
	now         func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	lineRepo repository.OrderLineRepository,
	productRepo repository.ProductRepository,
	sellerRepo repository.SellerRepository,
	calcRepo repository.CalculationRepository,
	aggRepo repository.AggregateRepository,
	tx TxRunner,
	resolver *costbasis.Resolver,
	engine *aggregation.Engine,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		lineRepo:    lineRepo,
		productRepo: productRepo,
		sellerRepo:  sellerRepo,
		calcRepo:    calcRepo,
		aggRepo:     aggRepo,
		tx:          tx,
		resolver:    resolver,
		engine:      engine,
		log:         log,
		now:         time.Now,
	}
}

// Compute calcula (o recalcula) la línea y aplica el delta a sus agregados en una sola transacción.
// Errores: ErrNotFound si la línea no existe y *ResolutionError son fatales; los fallos de
// lectura o escritura vuelven como *TransientStoreError para que el scheduler reintente.
func (uc *UseCase) Compute(ctx context.Context, lineID string) (*entity.Calculation, error) {
	line, err := uc.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("profitability: línea %s: %w", lineID, err)
		}
		return nil, domain.NewTransient("leer línea", err)
	}
	if err := uc.lineRepo.SetComputeState(ctx, lineID, entity.ComputeComputing, ""); err != nil {
		return nil, domain.NewTransient("estado de cómputo", err)
	}

	seller, err := uc.sellerRepo.GetByID(ctx, line.SellerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewTransient("leer vendedor", err)
	}
	product, err := uc.productRepo.GetByBarcode(ctx, line.SellerID, line.Barcode)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewTransient("leer producto", err)
	}

	basis, err := uc.resolver.Resolve(line, product, seller)
	if err != nil {
		return nil, err
	}
	bd := profit.Calculate(profit.LineInput{
		UnitPrice:      line.UnitPrice,
		Quantity:       line.Quantity,
		DiscountAmount: line.DiscountAmount,
	}, basis)

	now := uc.now()
	calc := &entity.Calculation{
		ID:          uuid.New().String(),
		OrderLineID: line.ID,
		OrderID:     line.OrderID,
		SellerID:    line.SellerID,
		Barcode:     line.Barcode,
		OrderDate:   line.OrderDate,
		Quantity:    line.Quantity,
		Active:      line.IsRevenue(),
		Breakdown:   bd,
		Basis:       basis,
		HasCostData: bd.HasCostData,
		ComputedAt:  now,
	}

	err = uc.tx.Run(ctx, func(calcRepo repository.CalculationRepository, aggRepo repository.AggregateRepository) error {
		prev, err := calcRepo.Upsert(ctx, calc)
		if err != nil {
			return fmt.Errorf("upsert cálculo: %w", err)
		}
		daily, products := uc.engine.Deltas(prev, calc)
		for _, d := range daily {
			d := d
			if err := aggRepo.ApplyDaily(ctx, d.Key, func(s *entity.DailyProfitSummary) error {
				aggregation.ApplyDaily(s, d, now)
				return nil
			}); err != nil {
				return fmt.Errorf("resumen diario %s %s: %w", d.Key.SellerID, d.Key.Date.Format("2006-01-02"), err)
			}
		}
		for _, p := range products {
			p := p
			if err := aggRepo.ApplyProduct(ctx, p.Key, func(a *entity.ProductProfitAggregate) error {
				aggregation.ApplyProduct(a, p, now)
				return nil
			}); err != nil {
				return fmt.Errorf("acumulado producto %s %s: %w", p.Key.SellerID, p.Key.Barcode, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewTransient("guardar cálculo", err)
	}

	if err := uc.lineRepo.SetComputeState(ctx, lineID, entity.ComputeComputed, ""); err != nil {
		// el cálculo ya quedó confirmado; el estado se corrige en el próximo cómputo
		uc.log.Warn().Err(err).Str("line_id", lineID).Msg("no se pudo marcar la línea como calculada")
	}
	uc.log.Debug().
		Str("line_id", lineID).
		Int64("version", calc.Version).
		Str("net_profit", bd.NetProfit.String()).
		Bool("has_cost_data", bd.HasCostData).
		Msg("línea calculada")
	return calc, nil
}

// MarkFailed deja la línea en estado Failed con el mensaje de error.
func (uc *UseCase) MarkFailed(ctx context.Context, lineID string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := uc.lineRepo.SetComputeState(ctx, lineID, entity.ComputeFailed, msg); err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.log.Error().Err(err).Str("line_id", lineID).Msg("no se pudo marcar la línea como fallida")
	}
}

// GetBreakdown devuelve el cálculo vigente de la línea. Si la línea existe pero aún no tiene
// cálculo, o el último cómputo falló o sigue pendiente, devuelve la respuesta con su estado
// (y el cálculo anterior marcado Stale, si lo hay) junto con domain.ErrNotComputed.
// sellerID vacío omite el control de pertenencia.
func (uc *UseCase) GetBreakdown(ctx context.Context, sellerID, lineID string) (*dto.BreakdownResponse, error) {
	line, err := uc.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if sellerID != "" && line.SellerID != sellerID {
		return nil, domain.ErrNotFound
	}
	out := &dto.BreakdownResponse{
		OrderLineID: line.ID,
		OrderID:     line.OrderID,
		SellerID:    line.SellerID,
		Barcode:     line.Barcode,
		OrderDate:   line.OrderDate,
		Quantity:    line.Quantity,
		State:       string(line.ComputeState),
		Error:       line.ComputeError,
		Active:      line.IsRevenue(),
	}
	if out.State == "" {
		out.State = string(entity.ComputeUncomputed)
	}

	calc, err := uc.calcRepo.GetByOrderLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return out, domain.ErrNotComputed
		}
		return nil, err
	}
	bd := calc.Breakdown
	basis := calc.Basis
	computedAt := calc.ComputedAt
	out.Active = calc.Active
	out.HasCostData = calc.HasCostData
	out.Version = calc.Version
	out.ComputedAt = &computedAt
	out.Breakdown = &bd
	out.CostBasis = &basis
	if out.State != string(entity.ComputeComputed) {
		out.Stale = true
		return out, domain.ErrNotComputed
	}
	return out, nil
}

// ListCalculations cálculos del vendedor, el más reciente primero.
func (uc *UseCase) ListCalculations(ctx context.Context, sellerID string, page dto.PageRequest) (*dto.CalculationListResponse, error) {
	page.DefaultPage()
	calcs, err := uc.calcRepo.ListBySeller(ctx, sellerID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar cálculos: %w", err)
	}
	items := make([]dto.CalculationItemDTO, 0, len(calcs))
	for _, c := range calcs {
		items = append(items, toCalculationItem(c))
	}
	return &dto.CalculationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// ListOrderCalculations cálculos de las líneas de una orden con sus totales.
// Devuelve domain.ErrNotFound si la orden no tiene líneas para el vendedor.
func (uc *UseCase) ListOrderCalculations(ctx context.Context, sellerID, orderID string) (*dto.OrderCalculationsResponse, error) {
	lineIDs, err := uc.lineRepo.ListIDsByOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, fmt.Errorf("líneas de la orden %s: %w", orderID, err)
	}
	if len(lineIDs) == 0 {
		return nil, fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
	}
	calcs, err := uc.calcRepo.ListByOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, fmt.Errorf("cálculos de la orden %s: %w", orderID, err)
	}

	out := &dto.OrderCalculationsResponse{
		OrderID: orderID,
		Lines:   len(lineIDs),
		Pending: len(lineIDs) - len(calcs),
		Items:   make([]dto.CalculationItemDTO, 0, len(calcs)),
	}
	var revenueExcl decimal.Decimal
	for _, c := range calcs {
		out.Items = append(out.Items, toCalculationItem(c))
		if !c.Active {
			continue
		}
		out.Totals.NetSale = out.Totals.NetSale.Add(c.Breakdown.NetSale)
		out.Totals.TotalCost = out.Totals.TotalCost.Add(c.Breakdown.TotalCost)
		out.Totals.NetProfit = out.Totals.NetProfit.Add(c.Breakdown.NetProfit)
		revenueExcl = revenueExcl.Add(c.Breakdown.NetSaleExclVat)
	}
	out.Totals.ProfitMarginPercent = aggregation.Margin(out.Totals.NetProfit, revenueExcl)
	return out, nil
}

func toCalculationItem(c *entity.Calculation) dto.CalculationItemDTO {
	return dto.CalculationItemDTO{
		OrderLineID:  c.OrderLineID,
		OrderID:      c.OrderID,
		Barcode:      c.Barcode,
		OrderDate:    c.OrderDate,
		Quantity:     c.Quantity,
		Active:       c.Active,
		HasCostData:  c.HasCostData,
		NetSale:      c.Breakdown.NetSale,
		TotalCost:    c.Breakdown.TotalCost,
		NetProfit:    c.Breakdown.NetProfit,
		ProfitMargin: c.Breakdown.ProfitMarginPercent,
		Version:      c.Version,
		ComputedAt:   c.ComputedAt,
	}
}
