package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.SellerRepository  = (*SellerRepo)(nil)
)

// ProductRepo productos en memoria.
type ProductRepo struct {
	s *Store
}

// NewProductRepository construye el repositorio sobre el store.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

// GetByBarcode devuelve domain.ErrNotFound si no existe.
func (r *ProductRepo) GetByBarcode(_ context.Context, sellerID, barcode string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[productKey{sellerID, barcode}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

// Save crea o reemplaza el producto por (vendedor, código de barras).
func (r *ProductRepo) Save(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := productKey{product.SellerID, product.Barcode}
	now := r.s.now()
	if cur, ok := r.s.products[key]; ok {
		product.ID = cur.ID
		product.CreatedAt = cur.CreatedAt
	} else {
		if product.ID == "" {
			product.ID = uuid.New().String()
		}
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.s.products[key] = cloneProduct(product)
	return nil
}

// AddCostHistory agrega un registro al historial del producto.
func (r *ProductRepo) AddCostHistory(_ context.Context, h *entity.ProductCostHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = r.s.now()
	}
	c := *h
	c.PurchaseVatRate = decPtr(h.PurchaseVatRate)
	r.s.history[h.ProductID] = append(r.s.history[h.ProductID], &c)
	return nil
}

// ListCostHistory historial del producto, el más reciente primero.
func (r *ProductRepo) ListCostHistory(_ context.Context, productID string) ([]*entity.ProductCostHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.history[productID]
	out := make([]*entity.ProductCostHistory, 0, len(src))
	for _, h := range src {
		c := *h
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SellerRepo cuentas de vendedor en memoria.
type SellerRepo struct {
	s *Store
}

// NewSellerRepository construye el repositorio sobre el store.
func NewSellerRepository(s *Store) *SellerRepo {
	return &SellerRepo{s: s}
}

// GetByID devuelve domain.ErrNotFound si no existe.
func (r *SellerRepo) GetByID(_ context.Context, id string) (*entity.SellerAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	s, ok := r.s.sellers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *s
	return &c, nil
}

// Save crea o reemplaza la cuenta.
func (r *SellerRepo) Save(_ context.Context, seller *entity.SellerAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if cur, ok := r.s.sellers[seller.ID]; ok {
		seller.CreatedAt = cur.CreatedAt
	} else {
		seller.CreatedAt = now
	}
	seller.UpdatedAt = now
	c := *seller
	r.s.sellers[seller.ID] = &c
	return nil
}
