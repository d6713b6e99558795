// Package kafka consume líneas de orden y ediciones de costo desde Kafka y las entrega
// a los mismos casos de uso que la API HTTP. Los offsets se confirman después de procesar.
package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// MessageReader subconjunto de *kafkago.Reader usado por el listener.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// LineIngester implementado por usecase.OrderLineUseCase.
type LineIngester interface {
	Ingest(ctx context.Context, sellerID string, in dto.IngestOrderLinesRequest) (*dto.IngestOrderLinesResponse, error)
}

// CostEditor implementado por usecase.ProductUseCase.
type CostEditor interface {
	ApplyCostEdit(ctx context.Context, sellerID string, edit entity.CostEdit, title string, now time.Time) (*dto.UpdateCostResponse, error)
}

// Config reintentos ante errores no fatales del caso de uso.
type Config struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// Listener consume los topics configurados. Un reader nil desactiva ese topic.
type Listener struct {
	cfg    Config
	lines  MessageReader
	costs  MessageReader
	ingest LineIngester
	edits  CostEditor
	log    zerolog.Logger
}

// NewReader reader con commit manual (CommitInterval 0) para confirmar después de procesar.
func NewReader(brokers []string, groupID, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

// NewListener construye el listener.
func NewListener(cfg Config, lines, costs MessageReader, ingest LineIngester, edits CostEditor, log zerolog.Logger) *Listener {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &Listener{cfg: cfg, lines: lines, costs: costs, ingest: ingest, edits: edits, log: log}
}

// Run consume hasta que ctx se cancele y cierra los readers al salir.
func (l *Listener) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if l.lines != nil {
		g.Go(func() error { return l.consume(gctx, "order-lines", l.lines, l.handleOrderLine) })
	}
	if l.costs != nil {
		g.Go(func() error { return l.consume(gctx, "product-cost-edits", l.costs, l.handleCostEdit) })
	}
	err := g.Wait()
	for _, r := range []MessageReader{l.lines, l.costs} {
		if r != nil {
			_ = r.Close()
		}
	}
	return err
}

func (l *Listener) consume(ctx context.Context, topic string, r MessageReader, handle func(context.Context, []byte) error) error {
	log := l.log.With().Str("topic", topic).Logger()
	log.Info().Msg("listener de Kafka iniciado")
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Msg("error leyendo de Kafka")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := l.process(ctx, m.Value, handle); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// mensaje descartado: se confirma igual para no bloquear la partición
			log.Error().Err(err).Int64("offset", m.Offset).Int("partition", m.Partition).Msg("mensaje descartado")
		}
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Int64("offset", m.Offset).Msg("no se pudo confirmar el offset")
		}
	}
}

// process reintenta los errores no fatales; validación, conflicto y no encontrado se descartan de inmediato.
func (l *Listener) process(ctx context.Context, value []byte, handle func(context.Context, []byte) error) error {
	b := retry.WithMaxRetries(l.cfg.MaxRetries, retry.WithJitterPercent(10, retry.NewExponential(l.cfg.BaseDelay)))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := handle(ctx, value)
		if err == nil || domain.IsFatal(err) || errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (l *Listener) handleOrderLine(ctx context.Context, value []byte) error {
	sellerID, line, err := DecodeOrderLine(value)
	if err != nil {
		return err
	}
	_, err = l.ingest.Ingest(ctx, sellerID, dto.IngestOrderLinesRequest{Lines: []dto.OrderLineRequest{line}})
	return err
}

func (l *Listener) handleCostEdit(ctx context.Context, value []byte) error {
	sellerID, edit, title, err := DecodeCostEdit(value)
	if err != nil {
		return err
	}
	_, err = l.edits.ApplyCostEdit(ctx, sellerID, edit, title, time.Now().UTC())
	return err
}
