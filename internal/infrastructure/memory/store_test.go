package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Rentabilidad-api/internal/infrastructure/memory"
)

func TestCalculationRepo_UpsertReemplazaEIncrementaVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCalculationRepository(memory.NewStore())

	first := &entity.Calculation{OrderLineID: "L-1", SellerID: "S-1", Breakdown: entity.Breakdown{NetProfit: decimal.NewFromInt(10)}}
	prev, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Equal(t, int64(1), first.Version)
	require.NotEmpty(t, first.ID)

	second := &entity.Calculation{OrderLineID: "L-1", SellerID: "S-1", Breakdown: entity.Breakdown{NetProfit: decimal.NewFromInt(4)}}
	prev, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.True(t, decimal.NewFromInt(10).Equal(prev.Breakdown.NetProfit))
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, first.ID, second.ID, "el reemplazo conserva la fila")

	got, err := repo.GetByOrderLine(ctx, "L-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(got.Breakdown.NetProfit))

	list, err := repo.ListBySeller(ctx, "S-1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1, "una sola fila por línea")

	_, err = repo.GetByOrderLine(ctx, "L-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTxRunner_ErrorNoConfirmaNada(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	key := entity.DailyKey{SellerID: "S-1", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	boom := errors.New("boom")

	err := tx.Run(ctx, func(calcs repository.CalculationRepository, aggs repository.AggregateRepository) error {
		if _, err := calcs.Upsert(ctx, &entity.Calculation{OrderLineID: "L-1"}); err != nil {
			return err
		}
		if err := aggs.ApplyDaily(ctx, key, func(s *entity.DailyProfitSummary) error {
			s.TotalItems = 99
			return nil
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = memory.NewCalculationRepository(store).GetByOrderLine(ctx, "L-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	rows, err := memory.NewAggregateRepository(store).ListDaily(ctx, "S-1", key.Date, key.Date)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTxRunner_FalloInyectadoEnCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.FailCommits(1)
	tx := memory.NewTxRunner(store)

	run := func() error {
		return tx.Run(ctx, func(calcs repository.CalculationRepository, _ repository.AggregateRepository) error {
			_, err := calcs.Upsert(ctx, &entity.Calculation{OrderLineID: "L-1"})
			return err
		})
	}
	assert.ErrorIs(t, run(), memory.ErrInjected)
	require.NoError(t, run())

	got, err := memory.NewCalculationRepository(store).GetByOrderLine(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestAggregateRepo_ApplyConcurrenteNoPierdeActualizaciones(t *testing.T) {
	ctx := context.Background()
	aggs := memory.NewAggregateRepository(memory.NewStore())
	key := entity.ProductKey{SellerID: "S-1", Barcode: "A"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := aggs.ApplyProduct(ctx, key, func(a *entity.ProductProfitAggregate) error {
				a.TotalQuantitySold++
				a.TotalProfit = a.TotalProfit.Add(decimal.NewFromInt(2))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows, err := aggs.ListProducts(ctx, "S-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(50), rows[0].TotalQuantitySold)
	assert.True(t, decimal.NewFromInt(100).Equal(rows[0].TotalProfit))
}

func TestOrderLineRepo_DuplicadosYFiltroPorFecha(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderLineRepository(memory.NewStore())
	d1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, &entity.OrderLine{ID: "L-1", OrderID: "O-1", SellerID: "S-1", Barcode: "A", Quantity: 1, OrderDate: d1})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Create(ctx, &entity.OrderLine{ID: "L-1", OrderID: "O-1", SellerID: "S-1", Barcode: "A", Quantity: 7, OrderDate: d1})
	require.NoError(t, err)
	assert.False(t, created, "una línea ya ingerida no se modifica")
	_, err = repo.Create(ctx, &entity.OrderLine{ID: "L-2", OrderID: "O-2", SellerID: "S-1", Barcode: "A", Quantity: 1, OrderDate: d2})
	require.NoError(t, err)

	l, err := repo.GetByID(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.Quantity)
	assert.Equal(t, entity.ComputeUncomputed, l.ComputeState)

	all, err := repo.ListIDsByProduct(ctx, "S-1", "A", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"L-1", "L-2"}, all)

	since := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	future, err := repo.ListIDsByProduct(ctx, "S-1", "A", &since)
	require.NoError(t, err)
	assert.Equal(t, []string{"L-2"}, future)

	require.NoError(t, repo.SetComputeState(ctx, "L-1", entity.ComputeFailed, "x"))
	assert.ErrorIs(t, repo.SetComputeState(ctx, "L-9", entity.ComputeFailed, "x"), domain.ErrNotFound)
}
