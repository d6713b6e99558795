// Package memory implementa los repositorios sobre mapas en memoria. Sirve para pruebas y
// para levantar la API sin base de datos (DB_DRIVER=memory).
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// ErrInjected error devuelto por los commits forzados a fallar con FailCommits.
var ErrInjected = errors.New("memory: fallo de escritura inyectado")

type productKey struct {
	sellerID string
	barcode  string
}

// Store estado compartido por todos los repositorios en memoria.
// mu protege los mapas; las escrituras de cálculos y agregados además toman un lock por clave.
type Store struct {
	mu          sync.RWMutex
	products    map[productKey]*entity.Product
	history     map[string][]*entity.ProductCostHistory
	sellers     map[string]*entity.SellerAccount
	lines       map[string]*entity.OrderLine
	calcs       map[string]*entity.Calculation
	daily       map[entity.DailyKey]*entity.DailyProfitSummary
	productAggs map[entity.ProductKey]*entity.ProductProfitAggregate
	users       map[string]*entity.User // por email

	locks *keyLocks

	failMu      sync.Mutex
	failCommits int

	now func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:    make(map[productKey]*entity.Product),
		history:     make(map[string][]*entity.ProductCostHistory),
		sellers:     make(map[string]*entity.SellerAccount),
		lines:       make(map[string]*entity.OrderLine),
		calcs:       make(map[string]*entity.Calculation),
		daily:       make(map[entity.DailyKey]*entity.DailyProfitSummary),
		productAggs: make(map[entity.ProductKey]*entity.ProductProfitAggregate),
		users:       make(map[string]*entity.User),
		locks:       newKeyLocks(),
		now:         time.Now,
	}
}

// FailCommits hace fallar los próximos n commits con ErrInjected (simula fallos transitorios).
func (s *Store) FailCommits(n int) {
	s.failMu.Lock()
	s.failCommits = n
	s.failMu.Unlock()
}

func (s *Store) takeInjectedFailure() bool {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failCommits > 0 {
		s.failCommits--
		return true
	}
	return false
}

// keyLocks mutex por clave con conteo de referencias para no acumular entradas.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: make(map[string]*keyLock)}
}

func (k *keyLocks) Lock(key string) {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
}

func (k *keyLocks) Unlock(key string) {
	k.mu.Lock()
	l := k.m[key]
	l.refs--
	if l.refs == 0 {
		delete(k.m, key)
	}
	k.mu.Unlock()
	l.mu.Unlock()
}

// ── copias ────────────────────────────────────────────────────────────────────

func decPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	c.ProductCostExclVat = decPtr(p.ProductCostExclVat)
	c.PurchaseVatRate = decPtr(p.PurchaseVatRate)
	c.SalesVatRate = decPtr(p.SalesVatRate)
	c.CommissionRateOverride = decPtr(p.CommissionRateOverride)
	if p.CostUpdatedAt != nil {
		t := *p.CostUpdatedAt
		c.CostUpdatedAt = &t
	}
	return &c
}

func cloneLine(l *entity.OrderLine) *entity.OrderLine {
	c := *l
	c.CargoCostExclVat = decPtr(l.CargoCostExclVat)
	c.PlatformFeeExclVat = decPtr(l.PlatformFeeExclVat)
	return &c
}

func cloneCalc(calc *entity.Calculation) *entity.Calculation {
	if calc == nil {
		return nil
	}
	c := *calc
	if calc.Breakdown.Notes != nil {
		c.Breakdown.Notes = append([]string(nil), calc.Breakdown.Notes...)
	}
	if calc.Basis.Sources != nil {
		c.Basis.Sources = make(map[string]entity.Tier, len(calc.Basis.Sources))
		for k, v := range calc.Basis.Sources {
			c.Basis.Sources[k] = v
		}
	}
	return &c
}

func cloneDaily(s *entity.DailyProfitSummary) *entity.DailyProfitSummary {
	c := *s
	c.OrderRefs = make(map[string]int64, len(s.OrderRefs))
	for k, v := range s.OrderRefs {
		c.OrderRefs[k] = v
	}
	return &c
}

func cloneProductAgg(a *entity.ProductProfitAggregate) *entity.ProductProfitAggregate {
	c := *a
	return &c
}
