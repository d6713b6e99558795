package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

// OrderLineUseCase ingesta de líneas de orden y recálculo manual por orden.
type OrderLineUseCase struct {
	repo    repository.OrderLineRepository
	trigger RecalcTrigger
	log     zerolog.Logger
}

// NewOrderLineUseCase construye el caso de uso.
func NewOrderLineUseCase(repo repository.OrderLineRepository, trigger RecalcTrigger, log zerolog.Logger) *OrderLineUseCase {
	return &OrderLineUseCase{repo: repo, trigger: trigger, log: log}
}

// Ingest guarda las líneas nuevas y las encola. Una línea ya ingerida no se modifica,
// salvo el estado (cancelada/devuelta), que retira su aporte en el recálculo.
// Todo el lote se valida antes de escribir. Si una escritura falla a mitad del lote, las
// líneas ya guardadas se encolan igual; un duplicado que sigue sin calcular se vuelve a encolar.
func (uc *OrderLineUseCase) Ingest(ctx context.Context, sellerID string, in dto.IngestOrderLinesRequest) (*dto.IngestOrderLinesResponse, error) {
	if len(in.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "lote vacío"}
	}
	for i := range in.Lines {
		if err := validateLine(i, &in.Lines[i]); err != nil {
			return nil, err
		}
	}

	out := &dto.IngestOrderLinesResponse{Received: len(in.Lines)}
	toQueue, err := uc.store(ctx, sellerID, in.Lines, out)
	res := uc.trigger.LineIngested(toQueue...)
	if err != nil {
		uc.log.Warn().
			Err(err).
			Str("seller_id", sellerID).
			Int("encoladas", res.Queued).
			Msg("ingesta interrumpida; líneas guardadas encoladas")
		return nil, err
	}
	out.Queued = res.Queued
	uc.log.Info().
		Str("seller_id", sellerID).
		Int("recibidas", out.Received).
		Int("nuevas", out.Created).
		Int("duplicadas", out.Duplicates).
		Msg("líneas de orden ingeridas")
	return out, nil
}

// store escribe el lote y devuelve las líneas a encolar, también cuando corta por error.
func (uc *OrderLineUseCase) store(ctx context.Context, sellerID string, lines []dto.OrderLineRequest, out *dto.IngestOrderLinesResponse) ([]string, error) {
	var toQueue []string
	for _, l := range lines {
		line := &entity.OrderLine{
			ID:                 l.LineID,
			OrderID:            l.OrderID,
			SellerID:           sellerID,
			Barcode:            l.Barcode,
			UnitPrice:          l.UnitPrice,
			Quantity:           l.Quantity,
			DiscountAmount:     l.DiscountAmount,
			OrderDate:          l.OrderDate,
			CargoCostExclVat:   l.CargoCostExclVat,
			PlatformFeeExclVat: l.PlatformFeeExclVat,
			Status:             l.Status,
			ComputeState:       entity.ComputeUncomputed,
		}
		created, err := uc.repo.Create(ctx, line)
		if err != nil {
			return toQueue, fmt.Errorf("ingesta línea %s: %w", l.LineID, err)
		}
		if created {
			out.Created++
			toQueue = append(toQueue, line.ID)
			continue
		}

		existing, err := uc.repo.GetByID(ctx, l.LineID)
		if err != nil {
			return toQueue, fmt.Errorf("ingesta línea %s: %w", l.LineID, err)
		}
		if existing.SellerID != sellerID {
			return toQueue, fmt.Errorf("línea %s pertenece a otro vendedor: %w", l.LineID, domain.ErrConflict)
		}
		if l.Status != "" && l.Status != existing.Status {
			if err := uc.repo.UpdateStatus(ctx, l.LineID, l.Status); err != nil {
				return toQueue, fmt.Errorf("estado línea %s: %w", l.LineID, err)
			}
			out.Updated++
			toQueue = append(toQueue, l.LineID)
			continue
		}
		out.Duplicates++
		switch existing.ComputeState {
		case "", entity.ComputeUncomputed, entity.ComputeFailed:
			toQueue = append(toQueue, l.LineID)
		}
	}
	return toQueue, nil
}

// RecalculateOrder recálculo manual de todas las líneas de la orden.
func (uc *OrderLineUseCase) RecalculateOrder(ctx context.Context, sellerID, orderID string) (*dto.RecalculateResponse, error) {
	res, err := uc.trigger.TriggerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	out := toRecalculateResponse(res)
	return &out, nil
}

func validateLine(i int, l *dto.OrderLineRequest) error {
	field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }
	switch {
	case l.LineID == "":
		return &domain.ValidationError{Field: field("line_id"), Reason: "requerido"}
	case l.OrderID == "":
		return &domain.ValidationError{Field: field("order_id"), Reason: "requerido"}
	case l.Barcode == "":
		return &domain.ValidationError{Field: field("barcode"), Reason: "requerido"}
	case l.Quantity < 0:
		return &domain.ValidationError{Field: field("quantity"), Reason: "no puede ser negativa"}
	case l.UnitPrice.IsNegative():
		return &domain.ValidationError{Field: field("unit_price"), Reason: "no puede ser negativo"}
	case l.DiscountAmount.IsNegative():
		return &domain.ValidationError{Field: field("discount_amount"), Reason: "no puede ser negativo"}
	case l.OrderDate.IsZero():
		return &domain.ValidationError{Field: field("order_date"), Reason: "requerida"}
	case l.CargoCostExclVat != nil && l.CargoCostExclVat.IsNegative():
		return &domain.ValidationError{Field: field("cargo_cost_excl_vat"), Reason: "no puede ser negativo"}
	case l.PlatformFeeExclVat != nil && l.PlatformFeeExclVat.IsNegative():
		return &domain.ValidationError{Field: field("platform_fee_excl_vat"), Reason: "no puede ser negativo"}
	}
	switch l.Status {
	case "", entity.LineStatusActive, entity.LineStatusCancelled, entity.LineStatusReturned:
		return nil
	default:
		return &domain.ValidationError{Field: field("status"), Reason: "valor desconocido: " + l.Status}
	}
}
