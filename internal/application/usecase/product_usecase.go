package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/application/scheduler"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/costbasis"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

// ProductUseCase edición de costos de producto y recálculos por producto.
type ProductUseCase struct {
	repo    repository.ProductRepository
	trigger RecalcTrigger
	log     zerolog.Logger
	now     func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, trigger RecalcTrigger, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, trigger: trigger, log: log, now: time.Now}
}

// UpdateCost valida la edición, guarda el costo anterior en el historial, actualiza el producto
// (lo crea si el código de barras aún no existía) y encola el recálculo de las líneas futuras.
func (uc *ProductUseCase) UpdateCost(ctx context.Context, sellerID, barcode string, in dto.UpdateCostRequest) (*dto.UpdateCostResponse, error) {
	now := uc.now()
	edit := entity.CostEdit{
		Barcode:                 barcode,
		ProductCostExclVat:      in.ProductCostExclVat,
		PurchaseVatRate:         in.PurchaseVatRate,
		SalesVatRate:            in.SalesVatRate,
		CommissionRateOverride:  in.CommissionRateOverride,
		ClearCommissionOverride: in.ClearCommissionOverride,
	}
	if in.EffectiveFrom != "" {
		from, err := time.Parse("2006-01-02", in.EffectiveFrom)
		if err != nil {
			return nil, &domain.ValidationError{Field: "effective_from", Reason: "formato esperado YYYY-MM-DD"}
		}
		edit.EffectiveFrom = &from
	}
	return uc.ApplyCostEdit(ctx, sellerID, edit, in.Title, now)
}

// ApplyCostEdit aplica un evento de edición de costo (formulario o mensaje de ingesta).
func (uc *ProductUseCase) ApplyCostEdit(ctx context.Context, sellerID string, edit entity.CostEdit, title string, now time.Time) (*dto.UpdateCostResponse, error) {
	if err := costbasis.ValidateCostEdit(edit); err != nil {
		return nil, err
	}

	product, err := uc.repo.GetByBarcode(ctx, sellerID, edit.Barcode)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("producto %s: %w", edit.Barcode, err)
		}
		product = &entity.Product{SellerID: sellerID, Barcode: edit.Barcode, Active: true}
	}

	if product.HasCostData() && product.ID != "" {
		effective := now
		if product.CostUpdatedAt != nil {
			effective = *product.CostUpdatedAt
		}
		if err := uc.repo.AddCostHistory(ctx, &entity.ProductCostHistory{
			ProductID:       product.ID,
			CostExclVat:     *product.ProductCostExclVat,
			PurchaseVatRate: product.PurchaseVatRate,
			EffectiveDate:   effective,
			CreatedAt:       now,
		}); err != nil {
			return nil, fmt.Errorf("historial de costo %s: %w", edit.Barcode, err)
		}
	}

	cost := edit.ProductCostExclVat
	purchaseVat := edit.PurchaseVatRate
	product.ProductCostExclVat = &cost
	product.PurchaseVatRate = &purchaseVat
	if edit.SalesVatRate != nil {
		product.SalesVatRate = edit.SalesVatRate
	}
	switch {
	case edit.CommissionRateOverride != nil:
		product.CommissionRateOverride = edit.CommissionRateOverride
	case edit.ClearCommissionOverride:
		product.CommissionRateOverride = nil
	}
	if title != "" {
		product.Title = title
	}
	product.CostUpdatedAt = &now
	if err := uc.repo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("guardar producto %s: %w", edit.Barcode, err)
	}

	effectiveFrom := now
	if edit.EffectiveFrom != nil {
		effectiveFrom = *edit.EffectiveFrom
	}
	res, err := uc.trigger.ProductCostChanged(ctx, sellerID, edit.Barcode, effectiveFrom)
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("seller_id", sellerID).
		Str("barcode", edit.Barcode).
		Str("costo", cost.String()).
		Int("lineas", res.Lines).
		Msg("costo de producto actualizado")

	return &dto.UpdateCostResponse{
		Product:       toProductResponse(product),
		Recalculation: toRecalculateResponse(res),
	}, nil
}

// RecalculateProduct recalcula todo el histórico de líneas del producto.
func (uc *ProductUseCase) RecalculateProduct(ctx context.Context, sellerID, barcode string) (*dto.RecalculateResponse, error) {
	res, err := uc.trigger.RecalculateProduct(ctx, sellerID, barcode)
	if err != nil {
		return nil, err
	}
	if res.Lines == 0 {
		if _, err := uc.repo.GetByBarcode(ctx, sellerID, barcode); err != nil {
			return nil, err
		}
	}
	out := toRecalculateResponse(res)
	return &out, nil
}

// GetCostHistory costos anteriores del producto, el más reciente primero.
func (uc *ProductUseCase) GetCostHistory(ctx context.Context, sellerID, barcode string) ([]dto.CostHistoryDTO, error) {
	product, err := uc.repo.GetByBarcode(ctx, sellerID, barcode)
	if err != nil {
		return nil, err
	}
	rows, err := uc.repo.ListCostHistory(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("historial de costo %s: %w", barcode, err)
	}
	out := make([]dto.CostHistoryDTO, 0, len(rows))
	for _, h := range rows {
		out = append(out, dto.CostHistoryDTO{
			CostExclVat:     h.CostExclVat,
			PurchaseVatRate: h.PurchaseVatRate,
			EffectiveDate:   h.EffectiveDate,
		})
	}
	return out, nil
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                     p.ID,
		SellerID:               p.SellerID,
		Barcode:                p.Barcode,
		Title:                  p.Title,
		ProductCostExclVat:     p.ProductCostExclVat,
		PurchaseVatRate:        p.PurchaseVatRate,
		SalesVatRate:           p.SalesVatRate,
		CommissionRateOverride: p.CommissionRateOverride,
		HasCostData:            p.HasCostData(),
		CostUpdatedAt:          p.CostUpdatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func toRecalculateResponse(r scheduler.Result) dto.RecalculateResponse {
	return dto.RecalculateResponse{
		Status:    "accepted",
		Lines:     r.Lines,
		Queued:    r.Queued,
		Coalesced: r.Coalesced,
	}
}
