package repository

import (
	"context"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByBarcode devuelve domain.ErrNotFound si el vendedor no tiene ese código de barras.
type ProductRepository interface {
	GetByBarcode(ctx context.Context, sellerID, barcode string) (*entity.Product, error)
	// Save crea o actualiza por (vendedor, código de barras). Completa ID si viene vacío.
	Save(ctx context.Context, product *entity.Product) error
	AddCostHistory(ctx context.Context, h *entity.ProductCostHistory) error
	ListCostHistory(ctx context.Context, productID string) ([]*entity.ProductCostHistory, error)
}

// SellerRepository lectura de cuentas de vendedor y sus valores por defecto.
type SellerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.SellerAccount, error)
	Save(ctx context.Context, seller *entity.SellerAccount) error
}
