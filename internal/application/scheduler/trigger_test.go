package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rentabilidad-api/internal/application/scheduler"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/infrastructure/memory"
)

func seedLines(t *testing.T) *memory.OrderLineRepo {
	t.Helper()
	repo := memory.NewOrderLineRepository(memory.NewStore())
	for i, day := range []int{1, 10, 20} {
		_, err := repo.Create(context.Background(), &entity.OrderLine{
			ID:        []string{"L-old", "L-mid", "L-new"}[i],
			OrderID:   "O-1",
			SellerID:  "S-1",
			Barcode:   "A",
			UnitPrice: decimal.NewFromInt(100),
			Quantity:  1,
			OrderDate: time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	return repo
}

func TestTriggers_CambioDeCostoSoloLineasFuturas(t *testing.T) {
	fc := newFakeComputer(nil)
	s := scheduler.New(cfg(), fc, zerolog.Nop())
	tr := scheduler.NewTriggers(s, seedLines(t), zerolog.Nop())

	res, err := tr.ProductCostChanged(context.Background(), "S-1", "A", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)

	start(t, s)
	waitIdle(t, s)
	assert.Equal(t, 0, fc.callsOf("L-old"), "las líneas anteriores a la vigencia no se tocan")
	assert.Equal(t, 1, fc.callsOf("L-mid"))
	assert.Equal(t, 1, fc.callsOf("L-new"))
}

func TestTriggers_RecalculoDeProductoTodoElHistorico(t *testing.T) {
	fc := newFakeComputer(nil)
	s := scheduler.New(cfg(), fc, zerolog.Nop())
	tr := scheduler.NewTriggers(s, seedLines(t), zerolog.Nop())

	res, err := tr.RecalculateProduct(context.Background(), "S-1", "A")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 3, res.Queued)

	start(t, s)
	waitIdle(t, s)
	for _, id := range []string{"L-old", "L-mid", "L-new"} {
		assert.Equal(t, 1, fc.callsOf(id), id)
	}
}

func TestTriggers_OrdenInexistente(t *testing.T) {
	s := scheduler.New(cfg(), newFakeComputer(nil), zerolog.Nop())
	tr := scheduler.NewTriggers(s, seedLines(t), zerolog.Nop())

	_, err := tr.TriggerOrder(context.Background(), "S-1", "O-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = tr.TriggerOrder(context.Background(), "S-2", "O-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "la orden es de otro vendedor")

	res, err := tr.TriggerOrder(context.Background(), "S-1", "O-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Queued)

	again, err := tr.TriggerOrder(context.Background(), "S-1", "O-1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Coalesced, "sin workers las claves siguen en cola")
}
