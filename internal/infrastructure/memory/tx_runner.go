package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var _ profitability.TxRunner = (*TxRunner)(nil)

// TxRunner transacción en memoria: las escrituras quedan en un área de staging con los locks
// de sus claves tomados y se vuelcan al store recién en el commit. Si fn falla no se escribe nada.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios atados a la transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	calcRepo repository.CalculationRepository,
	aggRepo repository.AggregateRepository,
) error) error {
	return r.s.inTx(func(t *txn) error {
		return fn(&CalculationRepo{s: r.s, tx: t}, &AggregateRepo{s: r.s, tx: t})
	})
}

type txn struct {
	s        *Store
	held     []string
	calcs    map[string]*entity.Calculation
	daily    map[entity.DailyKey]*entity.DailyProfitSummary
	products map[entity.ProductKey]*entity.ProductProfitAggregate
}

func (s *Store) inTx(fn func(t *txn) error) error {
	t := &txn{
		s:        s,
		calcs:    make(map[string]*entity.Calculation),
		daily:    make(map[entity.DailyKey]*entity.DailyProfitSummary),
		products: make(map[entity.ProductKey]*entity.ProductProfitAggregate),
	}
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (t *txn) lock(key string) {
	for _, k := range t.held {
		if k == key {
			return
		}
	}
	t.s.locks.Lock(key)
	t.held = append(t.held, key)
}

func (t *txn) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.Unlock(t.held[i])
	}
	t.held = nil
}

func (t *txn) commit() error {
	if t.s.takeInjectedFailure() {
		return ErrInjected
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for k, c := range t.calcs {
		t.s.calcs[k] = c
	}
	for k, d := range t.daily {
		t.s.daily[k] = d
	}
	for k, a := range t.products {
		t.s.productAggs[k] = a
	}
	return nil
}

func (t *txn) upsert(calc *entity.Calculation) (*entity.Calculation, error) {
	if calc.OrderLineID == "" {
		return nil, fmt.Errorf("upsert cálculo: order_line_id vacío: %w", domain.ErrInvalidInput)
	}
	t.lock("calc:" + calc.OrderLineID)

	prev, ok := t.calcs[calc.OrderLineID]
	if !ok {
		t.s.mu.RLock()
		prev = t.s.calcs[calc.OrderLineID]
		t.s.mu.RUnlock()
	}
	if prev != nil {
		calc.ID = prev.ID
		calc.Version = prev.Version + 1
	} else {
		if calc.ID == "" {
			calc.ID = uuid.New().String()
		}
		calc.Version = 1
	}
	if calc.ComputedAt.IsZero() {
		calc.ComputedAt = t.s.now()
	}
	t.calcs[calc.OrderLineID] = cloneCalc(calc)
	return cloneCalc(prev), nil
}

func (t *txn) applyDaily(key entity.DailyKey, fn func(*entity.DailyProfitSummary) error) error {
	t.lock("daily:" + key.SellerID + "|" + key.Date.Format("2006-01-02"))

	cur, ok := t.daily[key]
	if !ok {
		t.s.mu.RLock()
		committed := t.s.daily[key]
		t.s.mu.RUnlock()
		if committed != nil {
			cur = cloneDaily(committed)
		} else {
			cur = &entity.DailyProfitSummary{SellerID: key.SellerID, Date: key.Date, OrderRefs: map[string]int64{}}
		}
	} else {
		cur = cloneDaily(cur)
	}
	if err := fn(cur); err != nil {
		return err
	}
	t.daily[key] = cur
	return nil
}

func (t *txn) applyProduct(key entity.ProductKey, fn func(*entity.ProductProfitAggregate) error) error {
	t.lock("product:" + key.SellerID + "|" + key.Barcode)

	cur, ok := t.products[key]
	if !ok {
		t.s.mu.RLock()
		committed := t.s.productAggs[key]
		t.s.mu.RUnlock()
		if committed != nil {
			cur = cloneProductAgg(committed)
		} else {
			cur = &entity.ProductProfitAggregate{SellerID: key.SellerID, Barcode: key.Barcode}
		}
	} else {
		cur = cloneProductAgg(cur)
	}
	if err := fn(cur); err != nil {
		return err
	}
	t.products[key] = cur
	return nil
}

// ── repositorios ──────────────────────────────────────────────────────────────

var (
	_ repository.CalculationRepository = (*CalculationRepo)(nil)
	_ repository.AggregateRepository   = (*AggregateRepo)(nil)
)

// CalculationRepo cálculos en memoria. Fuera de una transacción cada escritura se confirma sola.
type CalculationRepo struct {
	s  *Store
	tx *txn
}

// NewCalculationRepository construye el repositorio sin transacción.
func NewCalculationRepository(s *Store) *CalculationRepo {
	return &CalculationRepo{s: s}
}

// Upsert reemplaza o crea el cálculo de la línea.
func (r *CalculationRepo) Upsert(_ context.Context, calc *entity.Calculation) (*entity.Calculation, error) {
	if r.tx != nil {
		return r.tx.upsert(calc)
	}
	var prev *entity.Calculation
	err := r.s.inTx(func(t *txn) error {
		var err error
		prev, err = t.upsert(calc)
		return err
	})
	return prev, err
}

// GetByOrderLine devuelve domain.ErrNotFound si la línea no tiene cálculo.
func (r *CalculationRepo) GetByOrderLine(_ context.Context, orderLineID string) (*entity.Calculation, error) {
	if r.tx != nil {
		if c, ok := r.tx.calcs[orderLineID]; ok {
			return cloneCalc(c), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.calcs[orderLineID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCalc(c), nil
}

// ListBySeller cálculos del vendedor, los más recientes primero.
func (r *CalculationRepo) ListBySeller(_ context.Context, sellerID string, limit, offset int) ([]*entity.Calculation, error) {
	r.s.mu.RLock()
	var all []*entity.Calculation
	for _, c := range r.s.calcs {
		if c.SellerID == sellerID {
			all = append(all, cloneCalc(c))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].OrderDate.Equal(all[j].OrderDate) {
			return all[i].OrderDate.After(all[j].OrderDate)
		}
		return all[i].OrderLineID < all[j].OrderLineID
	})
	if offset >= len(all) {
		return []*entity.Calculation{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListByOrder cálculos de la orden del vendedor, por order_line_id.
func (r *CalculationRepo) ListByOrder(_ context.Context, sellerID, orderID string) ([]*entity.Calculation, error) {
	r.s.mu.RLock()
	var out []*entity.Calculation
	for _, c := range r.s.calcs {
		if c.OrderID == orderID && (sellerID == "" || c.SellerID == sellerID) {
			out = append(out, cloneCalc(c))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OrderLineID < out[j].OrderLineID })
	return out, nil
}

// SumByProductSince suma cantidad y utilidad de las líneas activas desde since.
func (r *CalculationRepo) SumByProductSince(_ context.Context, sellerID string, since time.Time) (map[entity.ProductKey]entity.ProductWindow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[entity.ProductKey]entity.ProductWindow)
	for _, c := range r.s.calcs {
		if !c.Active || c.OrderDate.Before(since) {
			continue
		}
		if sellerID != "" && c.SellerID != sellerID {
			continue
		}
		k := entity.ProductKey{SellerID: c.SellerID, Barcode: c.Barcode}
		w := out[k]
		w.Quantity += c.Quantity
		w.Profit = w.Profit.Add(c.Breakdown.NetProfit)
		out[k] = w
	}
	return out, nil
}

// AggregateRepo resúmenes y acumulados en memoria.
type AggregateRepo struct {
	s  *Store
	tx *txn
}

// NewAggregateRepository construye el repositorio sin transacción.
func NewAggregateRepository(s *Store) *AggregateRepo {
	return &AggregateRepo{s: s}
}

// ApplyDaily ejecuta fn con el lock del bucket (vendedor, día) tomado.
func (r *AggregateRepo) ApplyDaily(_ context.Context, key entity.DailyKey, fn func(*entity.DailyProfitSummary) error) error {
	if r.tx != nil {
		return r.tx.applyDaily(key, fn)
	}
	return r.s.inTx(func(t *txn) error { return t.applyDaily(key, fn) })
}

// ApplyProduct ejecuta fn con el lock del bucket (vendedor, producto) tomado.
func (r *AggregateRepo) ApplyProduct(_ context.Context, key entity.ProductKey, fn func(*entity.ProductProfitAggregate) error) error {
	if r.tx != nil {
		return r.tx.applyProduct(key, fn)
	}
	return r.s.inTx(func(t *txn) error { return t.applyProduct(key, fn) })
}

// ListDaily resúmenes con fecha en [start, end], por fecha y vendedor.
func (r *AggregateRepo) ListDaily(_ context.Context, sellerID string, start, end time.Time) ([]*entity.DailyProfitSummary, error) {
	r.s.mu.RLock()
	var out []*entity.DailyProfitSummary
	for k, s := range r.s.daily {
		if sellerID != "" && k.SellerID != sellerID {
			continue
		}
		if k.Date.Before(start) || k.Date.After(end) {
			continue
		}
		out = append(out, cloneDaily(s))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].SellerID < out[j].SellerID
	})
	return out, nil
}

// ListProducts acumulados por producto, por vendedor y código de barras.
func (r *AggregateRepo) ListProducts(_ context.Context, sellerID string) ([]entity.ProductProfitAggregate, error) {
	r.s.mu.RLock()
	out := make([]entity.ProductProfitAggregate, 0, len(r.s.productAggs))
	for k, a := range r.s.productAggs {
		if sellerID != "" && k.SellerID != sellerID {
			continue
		}
		out = append(out, *a)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SellerID != out[j].SellerID {
			return out[i].SellerID < out[j].SellerID
		}
		return out[i].Barcode < out[j].Barcode
	})
	return out, nil
}
