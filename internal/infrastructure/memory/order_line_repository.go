package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var _ repository.OrderLineRepository = (*OrderLineRepo)(nil)

// OrderLineRepo líneas de orden en memoria.
type OrderLineRepo struct {
	s *Store
}

// NewOrderLineRepository construye el repositorio sobre el store.
func NewOrderLineRepository(s *Store) *OrderLineRepo {
	return &OrderLineRepo{s: s}
}

// Create guarda la línea; si el ID ya existe no la modifica y devuelve created=false.
func (r *OrderLineRepo) Create(_ context.Context, line *entity.OrderLine) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lines[line.ID]; ok {
		return false, nil
	}
	if line.ComputeState == "" {
		line.ComputeState = entity.ComputeUncomputed
	}
	if line.Status == "" {
		line.Status = entity.LineStatusActive
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = r.s.now()
	}
	r.s.lines[line.ID] = cloneLine(line)
	return true, nil
}

// GetByID devuelve domain.ErrNotFound si no existe.
func (r *OrderLineRepo) GetByID(_ context.Context, id string) (*entity.OrderLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.lines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneLine(l), nil
}

// UpdateStatus cambia el estado informado por el marketplace.
func (r *OrderLineRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = status
	return nil
}

// ListIDsByOrder líneas de la orden ordenadas por ID.
func (r *OrderLineRepo) ListIDsByOrder(_ context.Context, sellerID, orderID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for _, l := range r.s.lines {
		if l.OrderID == orderID && (sellerID == "" || l.SellerID == sellerID) {
			ids = append(ids, l.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ListIDsByProduct líneas del producto ordenadas por fecha de orden.
func (r *OrderLineRepo) ListIDsByProduct(_ context.Context, sellerID, barcode string, since *time.Time) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found []*entity.OrderLine
	for _, l := range r.s.lines {
		if l.SellerID != sellerID || l.Barcode != barcode {
			continue
		}
		if since != nil && l.OrderDate.Before(*since) {
			continue
		}
		found = append(found, l)
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].OrderDate.Equal(found[j].OrderDate) {
			return found[i].OrderDate.Before(found[j].OrderDate)
		}
		return found[i].ID < found[j].ID
	})
	ids := make([]string, len(found))
	for i, l := range found {
		ids[i] = l.ID
	}
	return ids, nil
}

// SetComputeState actualiza el estado de cómputo y el último error.
func (r *OrderLineRepo) SetComputeState(_ context.Context, id string, state entity.ComputeState, errMsg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.ComputeState = state
	l.ComputeError = errMsg
	return nil
}
