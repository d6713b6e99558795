package costbasis

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Defaults valores del sistema, último nivel de la cadena producto → vendedor → sistema.
type Defaults struct {
	VatRate            decimal.Decimal
	CommissionRate     decimal.Decimal
	CommissionVatRate  decimal.Decimal
	CargoCostExclVat   decimal.Decimal
	CargoVatRate       decimal.Decimal
	PlatformFeeExclVat decimal.Decimal
	PlatformVatRate    decimal.Decimal
	WithholdingTaxRate decimal.Decimal
}

// SystemDefaults IVA general 20 %, comisión 12 %, sin cargo de envío ni tarifa de plataforma.
func SystemDefaults() Defaults {
	twenty := decimal.NewFromInt(20)
	return Defaults{
		VatRate:            twenty,
		CommissionRate:     decimal.NewFromInt(12),
		CommissionVatRate:  twenty,
		CargoCostExclVat:   decimal.Zero,
		CargoVatRate:       twenty,
		PlatformFeeExclVat: decimal.Zero,
		PlatformVatRate:    twenty,
		WithholdingTaxRate: decimal.Zero,
	}
}

type candidate struct {
	tier  entity.Tier
	value *decimal.Decimal
}

// Resolver arma la base de costo de una línea. No modifica Product ni SellerAccount.
type Resolver struct {
	defaults Defaults
}

// NewResolver construye el resolver con los valores del sistema.
func NewResolver(defaults Defaults) *Resolver {
	return &Resolver{defaults: defaults}
}

// Resolve aplica la precedencia por campo y etiqueta el nivel que aportó cada valor.
// product y seller pueden ser nil (código de barras sin producto vinculado, vendedor sin defaults).
// HasCostData solo es true si el producto tiene costo cargado; el valor por defecto nunca lo satisface.
func (r *Resolver) Resolve(line *entity.OrderLine, product *entity.Product, seller *entity.SellerAccount) (entity.CostBasisSnapshot, error) {
	var p entity.Product
	if product != nil {
		p = *product
	}
	var s entity.SellerAccount
	if seller != nil {
		s = *seller
	}
	d := r.defaults
	snap := entity.CostBasisSnapshot{Sources: make(map[string]entity.Tier, 10)}

	pick := func(field string, system decimal.Decimal, chain ...candidate) decimal.Decimal {
		for _, c := range chain {
			if c.value != nil {
				snap.Sources[field] = c.tier
				return *c.value
			}
		}
		snap.Sources[field] = entity.TierSystem
		return system
	}

	snap.HasCostData = product.HasCostData()
	if snap.HasCostData {
		snap.UnitCostExclVat = *p.ProductCostExclVat
		snap.Sources[entity.FieldProductCost] = entity.TierProduct
	} else {
		snap.UnitCostExclVat = decimal.Zero
		snap.Sources[entity.FieldProductCost] = entity.TierSystem
	}
	snap.ProductCostExclVat = snap.UnitCostExclVat.Mul(decimal.NewFromInt(line.Quantity))

	snap.PurchaseVatRate = pick(entity.FieldPurchaseVatRate, d.VatRate,
		candidate{entity.TierProduct, p.PurchaseVatRate},
		candidate{entity.TierSeller, s.DefaultVatRate})
	snap.SalesVatRate = pick(entity.FieldSalesVatRate, d.VatRate,
		candidate{entity.TierProduct, p.SalesVatRate},
		candidate{entity.TierSeller, s.DefaultVatRate})
	snap.CommissionRate = pick(entity.FieldCommissionRate, d.CommissionRate,
		candidate{entity.TierProduct, p.CommissionRateOverride},
		candidate{entity.TierSeller, s.DefaultCommissionRate})
	snap.CommissionVatRate = pick(entity.FieldCommissionVatRate, d.CommissionVatRate,
		candidate{entity.TierSeller, s.DefaultCommissionVatRate},
		candidate{entity.TierSeller, s.DefaultVatRate})
	snap.CargoCostExclVat = pick(entity.FieldCargoCost, d.CargoCostExclVat,
		candidate{entity.TierLine, line.CargoCostExclVat},
		candidate{entity.TierSeller, s.DefaultCargoCostExclVat})
	snap.CargoVatRate = pick(entity.FieldCargoVatRate, d.CargoVatRate,
		candidate{entity.TierSeller, s.DefaultCargoVatRate})
	snap.PlatformFeeExclVat = pick(entity.FieldPlatformFee, d.PlatformFeeExclVat,
		candidate{entity.TierLine, line.PlatformFeeExclVat},
		candidate{entity.TierSeller, s.DefaultPlatformFeeExclVat})
	snap.PlatformVatRate = pick(entity.FieldPlatformVatRate, d.PlatformVatRate,
		candidate{entity.TierSeller, s.DefaultPlatformVatRate})
	snap.WithholdingTaxRate = pick(entity.FieldWithholdingRate, d.WithholdingTaxRate,
		candidate{entity.TierSeller, s.WithholdingTaxRate})

	if err := checkSnapshot(line.ID, snap); err != nil {
		return entity.CostBasisSnapshot{}, err
	}
	return snap, nil
}

func checkSnapshot(lineID string, s entity.CostBasisSnapshot) error {
	rates := []struct {
		field string
		v     decimal.Decimal
	}{
		{entity.FieldPurchaseVatRate, s.PurchaseVatRate},
		{entity.FieldSalesVatRate, s.SalesVatRate},
		{entity.FieldCommissionRate, s.CommissionRate},
		{entity.FieldCommissionVatRate, s.CommissionVatRate},
		{entity.FieldCargoVatRate, s.CargoVatRate},
		{entity.FieldPlatformVatRate, s.PlatformVatRate},
		{entity.FieldWithholdingRate, s.WithholdingTaxRate},
	}
	for _, r := range rates {
		if !validRate(r.v) {
			return &domain.ResolutionError{LineID: lineID, Field: r.field, Reason: "tasa fuera de [0,100]: " + r.v.String()}
		}
	}
	costs := []struct {
		field string
		v     decimal.Decimal
	}{
		{entity.FieldProductCost, s.UnitCostExclVat},
		{entity.FieldCargoCost, s.CargoCostExclVat},
		{entity.FieldPlatformFee, s.PlatformFeeExclVat},
	}
	for _, c := range costs {
		if c.v.IsNegative() {
			return &domain.ResolutionError{LineID: lineID, Field: c.field, Reason: "costo negativo: " + c.v.String()}
		}
	}
	return nil
}

func validRate(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(hundred)
}

// ValidateCostEdit rechaza ediciones de costo inválidas antes de que lleguen al resolver.
func ValidateCostEdit(e entity.CostEdit) error {
	if e.Barcode == "" {
		return &domain.ValidationError{Field: "barcode", Reason: "requerido"}
	}
	if e.ProductCostExclVat.IsNegative() {
		return &domain.ValidationError{Field: entity.FieldProductCost, Reason: "no puede ser negativo"}
	}
	if !validRate(e.PurchaseVatRate) {
		return &domain.ValidationError{Field: entity.FieldPurchaseVatRate, Reason: "debe estar entre 0 y 100"}
	}
	if e.SalesVatRate != nil && !validRate(*e.SalesVatRate) {
		return &domain.ValidationError{Field: entity.FieldSalesVatRate, Reason: "debe estar entre 0 y 100"}
	}
	if e.CommissionRateOverride != nil && !validRate(*e.CommissionRateOverride) {
		return &domain.ValidationError{Field: entity.FieldCommissionRate, Reason: "debe estar entre 0 y 100"}
	}
	if e.CommissionRateOverride != nil && e.ClearCommissionOverride {
		return &domain.ValidationError{Field: entity.FieldCommissionRate, Reason: "no se puede fijar y quitar a la vez"}
	}
	return nil
}
