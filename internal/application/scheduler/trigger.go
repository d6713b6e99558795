package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
)

// LineFinder consulta de líneas afectadas por un disparo.
type LineFinder interface {
	ListIDsByOrder(ctx context.Context, sellerID, orderID string) ([]string, error)
	ListIDsByProduct(ctx context.Context, sellerID, barcode string, since *time.Time) ([]string, error)
}

// Result líneas alcanzadas por un disparo y cómo quedaron en la cola.
type Result struct {
	Lines int
	Accepted
}

// Triggers traduce los eventos del sistema a claves encoladas en el scheduler.
//
// Un cambio de costo alcanza solo las líneas futuras (OrderDate >= vigencia de la edición);
// el recálculo explícito de producto alcanza todo el histórico. Son dos políticas distintas.
type Triggers struct {
	s     *Scheduler
	lines LineFinder
	log   zerolog.Logger
}

// NewTriggers construye los disparadores.
func NewTriggers(s *Scheduler, lines LineFinder, log zerolog.Logger) *Triggers {
	return &Triggers{s: s, lines: lines, log: log}
}

// LineIngested encola líneas recién ingeridas.
func (t *Triggers) LineIngested(lineIDs ...string) Result {
	return Result{Lines: len(lineIDs), Accepted: t.s.Submit(lineIDs...)}
}

// TriggerOrder recálculo manual de todas las líneas de una orden.
// Devuelve domain.ErrNotFound si la orden no tiene líneas para el vendedor.
func (t *Triggers) TriggerOrder(ctx context.Context, sellerID, orderID string) (Result, error) {
	ids, err := t.lines.ListIDsByOrder(ctx, sellerID, orderID)
	if err != nil {
		return Result{}, fmt.Errorf("disparo por orden %s: %w", orderID, err)
	}
	if len(ids) == 0 {
		return Result{}, fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
	}
	res := Result{Lines: len(ids), Accepted: t.s.Submit(ids...)}
	t.log.Info().Str("order_id", orderID).Int("lineas", res.Lines).Int("encoladas", res.Queued).Msg("recálculo de orden encolado")
	return res, nil
}

// ProductCostChanged se dispara tras una edición de costo: solo líneas con OrderDate >= effectiveFrom.
func (t *Triggers) ProductCostChanged(ctx context.Context, sellerID, barcode string, effectiveFrom time.Time) (Result, error) {
	ids, err := t.lines.ListIDsByProduct(ctx, sellerID, barcode, &effectiveFrom)
	if err != nil {
		return Result{}, fmt.Errorf("disparo por costo %s: %w", barcode, err)
	}
	res := Result{Lines: len(ids), Accepted: t.s.Submit(ids...)}
	t.log.Info().
		Str("seller_id", sellerID).
		Str("barcode", barcode).
		Time("desde", effectiveFrom).
		Int("lineas", res.Lines).
		Msg("cambio de costo: recálculo de líneas futuras encolado")
	return res, nil
}

// RecalculateProduct recálculo explícito de todo el histórico del producto.
func (t *Triggers) RecalculateProduct(ctx context.Context, sellerID, barcode string) (Result, error) {
	ids, err := t.lines.ListIDsByProduct(ctx, sellerID, barcode, nil)
	if err != nil {
		return Result{}, fmt.Errorf("recálculo de producto %s: %w", barcode, err)
	}
	res := Result{Lines: len(ids), Accepted: t.s.Submit(ids...)}
	t.log.Info().Str("seller_id", sellerID).Str("barcode", barcode).Int("lineas", res.Lines).Msg("recálculo histórico de producto encolado")
	return res, nil
}
