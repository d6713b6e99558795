package costbasis_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/costbasis"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func line(qty int64) *entity.OrderLine {
	return &entity.OrderLine{
		ID: "L-1", OrderID: "O-1", SellerID: "S-1", Barcode: "869000",
		UnitPrice: decimal.NewFromInt(100), Quantity: qty, OrderDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestResolve_ProductoSobreVendedorSobreSistema(t *testing.T) {
	r := costbasis.NewResolver(costbasis.SystemDefaults())
	product := &entity.Product{
		Barcode:            "869000",
		ProductCostExclVat: dp("50"),
		SalesVatRate:       dp("10"),
	}
	seller := &entity.SellerAccount{
		ID:                    "S-1",
		DefaultVatRate:        dp("18"),
		DefaultCommissionRate: dp("15"),
	}

	snap, err := r.Resolve(line(2), product, seller)
	require.NoError(t, err)

	assert.True(t, snap.HasCostData)
	assert.True(t, decimal.NewFromInt(50).Equal(snap.UnitCostExclVat))
	assert.True(t, decimal.NewFromInt(100).Equal(snap.ProductCostExclVat), "costo de línea = unitario × cantidad")
	assert.Equal(t, entity.TierProduct, snap.SourceOf(entity.FieldProductCost))

	assert.True(t, decimal.NewFromInt(10).Equal(snap.SalesVatRate))
	assert.Equal(t, entity.TierProduct, snap.SourceOf(entity.FieldSalesVatRate))

	assert.True(t, decimal.NewFromInt(18).Equal(snap.PurchaseVatRate))
	assert.Equal(t, entity.TierSeller, snap.SourceOf(entity.FieldPurchaseVatRate))

	assert.True(t, decimal.NewFromInt(15).Equal(snap.CommissionRate))
	assert.Equal(t, entity.TierSeller, snap.SourceOf(entity.FieldCommissionRate))

	// el IVA de comisión cae al IVA general del vendedor
	assert.True(t, decimal.NewFromInt(18).Equal(snap.CommissionVatRate))
	assert.Equal(t, entity.TierSeller, snap.SourceOf(entity.FieldCommissionVatRate))

	assert.True(t, decimal.NewFromInt(20).Equal(snap.CargoVatRate))
	assert.Equal(t, entity.TierSystem, snap.SourceOf(entity.FieldCargoVatRate))
}

func TestResolve_ValoresDeLaLineaTienenPrioridad(t *testing.T) {
	r := costbasis.NewResolver(costbasis.SystemDefaults())
	l := line(1)
	l.CargoCostExclVat = dp("7.50")
	seller := &entity.SellerAccount{DefaultCargoCostExclVat: dp("12"), DefaultPlatformFeeExclVat: dp("3")}

	snap, err := r.Resolve(l, nil, seller)
	require.NoError(t, err)

	assert.True(t, dp("7.50").Equal(snap.CargoCostExclVat))
	assert.Equal(t, entity.TierLine, snap.SourceOf(entity.FieldCargoCost))
	assert.True(t, dp("3").Equal(snap.PlatformFeeExclVat))
	assert.Equal(t, entity.TierSeller, snap.SourceOf(entity.FieldPlatformFee))
}

func TestResolve_SinCostoCargadoNoHayDatosDeCosto(t *testing.T) {
	r := costbasis.NewResolver(costbasis.SystemDefaults())

	snap, err := r.Resolve(line(1), &entity.Product{Barcode: "869000", PurchaseVatRate: dp("8")}, nil)
	require.NoError(t, err)
	assert.False(t, snap.HasCostData, "el valor por defecto nunca satisface el dato de costo")
	assert.True(t, snap.ProductCostExclVat.IsZero())
	assert.Equal(t, entity.TierSystem, snap.SourceOf(entity.FieldProductCost))
	assert.Equal(t, entity.TierProduct, snap.SourceOf(entity.FieldPurchaseVatRate), "la tasa sí puede venir del producto")

	snap, err = r.Resolve(line(1), nil, nil)
	require.NoError(t, err)
	assert.False(t, snap.HasCostData)
	assert.True(t, decimal.NewFromInt(12).Equal(snap.CommissionRate))
}

func TestResolve_NoModificaEntradas(t *testing.T) {
	r := costbasis.NewResolver(costbasis.SystemDefaults())
	product := &entity.Product{ProductCostExclVat: dp("10")}
	seller := &entity.SellerAccount{}

	_, err := r.Resolve(line(3), product, seller)
	require.NoError(t, err)
	assert.True(t, dp("10").Equal(*product.ProductCostExclVat))
	assert.Nil(t, seller.DefaultVatRate)
}

func TestResolve_TasaFueraDeRangoEsErrorDeResolucion(t *testing.T) {
	r := costbasis.NewResolver(costbasis.SystemDefaults())

	_, err := r.Resolve(line(1), &entity.Product{SalesVatRate: dp("120")}, nil)
	var re *domain.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, entity.FieldSalesVatRate, re.Field)
	assert.True(t, domain.IsFatal(err))

	_, err = r.Resolve(line(1), nil, &entity.SellerAccount{DefaultCargoCostExclVat: dp("-1")})
	require.True(t, errors.As(err, &re))
	assert.Equal(t, entity.FieldCargoCost, re.Field)
}

func TestValidateCostEdit(t *testing.T) {
	ok := entity.CostEdit{Barcode: "869000", ProductCostExclVat: decimal.NewFromInt(10), PurchaseVatRate: decimal.NewFromInt(20)}
	assert.NoError(t, costbasis.ValidateCostEdit(ok))

	bad := ok
	bad.ProductCostExclVat = decimal.NewFromInt(-5)
	err := costbasis.ValidateCostEdit(bad)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = ok
	bad.CommissionRateOverride = dp("101")
	assert.Error(t, costbasis.ValidateCostEdit(bad))

	bad = ok
	bad.CommissionRateOverride = dp("8")
	bad.ClearCommissionOverride = true
	assert.ErrorIs(t, costbasis.ValidateCostEdit(bad), domain.ErrInvalidInput)

	bad = ok
	bad.Barcode = ""
	assert.Error(t, costbasis.ValidateCostEdit(bad))
}
