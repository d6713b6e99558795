package profit

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// Precisión de las divisiones intermedias; el redondeo a 2 decimales se aplica solo al final.
const divPrecision = 20

var hundred = decimal.NewFromInt(100)

// LineInput datos de venta de una línea (precios con IVA incluido).
type LineInput struct {
	UnitPrice      decimal.Decimal
	Quantity       int64
	DiscountAmount decimal.Decimal
}

// Calculate implementa el desglose de rentabilidad de una línea (servicio de dominio, sin I/O).
//
//	netSale        = unitPrice × qty − discount (mínimo 0)
//	salesVat       = netSale − netSale / (1 + salesVatRate/100)
//	netSaleExclVat = netSale − salesVat
//	commission     = netSaleExclVat × commissionRate/100
//	deductibleVat  = purchaseVat + commissionVat + cargoVat + platformVat
//	netVatPayable  = salesVat − deductibleVat (negativo = crédito de IVA)
//	totalCost      = productCost + netVatPayable + commission + cargo + platformFee + withholding
//	netProfit      = netSaleExclVat − totalCost
//
// Mismas entradas producen exactamente el mismo resultado.
func Calculate(in LineInput, basis entity.CostBasisSnapshot) entity.Breakdown {
	if in.Quantity <= 0 {
		return zeroBreakdown(basis.HasCostData)
	}
	var notes []string

	gross := in.UnitPrice.Mul(decimal.NewFromInt(in.Quantity))
	netSale := gross.Sub(in.DiscountAmount)
	if netSale.IsNegative() {
		netSale = decimal.Zero
		notes = append(notes, "descuento mayor que la venta bruta, venta neta ajustada a 0")
	}

	divisor := decimal.NewFromInt(1).Add(pct(basis.SalesVatRate))
	netSaleExclVat := netSale.DivRound(divisor, divPrecision)
	salesVat := netSale.Sub(netSaleExclVat)

	commission := netSaleExclVat.Mul(pct(basis.CommissionRate))
	commissionVat := commission.Mul(pct(basis.CommissionVatRate))

	productCost := decimal.Zero
	if basis.HasCostData {
		productCost = basis.ProductCostExclVat
	} else {
		notes = append(notes, "costo del producto no cargado, se calculó con 0")
	}
	purchaseVat := productCost.Mul(pct(basis.PurchaseVatRate))

	cargoVat := basis.CargoCostExclVat.Mul(pct(basis.CargoVatRate))
	platformVat := basis.PlatformFeeExclVat.Mul(pct(basis.PlatformVatRate))
	withholding := netSaleExclVat.Mul(pct(basis.WithholdingTaxRate))

	deductibleVat := purchaseVat.Add(commissionVat).Add(cargoVat).Add(platformVat)
	netVatPayable := salesVat.Sub(deductibleVat)
	if netVatPayable.IsNegative() {
		notes = append(notes, "crédito de IVA: "+netVatPayable.Abs().StringFixed(2))
	}

	totalCost := productCost.
		Add(netVatPayable).
		Add(commission).
		Add(basis.CargoCostExclVat).
		Add(basis.PlatformFeeExclVat).
		Add(withholding)
	netProfit := netSaleExclVat.Sub(totalCost)

	margin := decimal.Zero
	if netSaleExclVat.IsPositive() {
		margin = netProfit.DivRound(netSaleExclVat, divPrecision).Mul(hundred)
	}

	commissionTotal := commission.Add(commissionVat)
	cargoTotal := basis.CargoCostExclVat.Add(cargoVat)
	platformTotal := basis.PlatformFeeExclVat.Add(platformVat)

	bd := entity.Breakdown{
		GrossSale:                  r2(gross),
		DiscountAmount:             r2(in.DiscountAmount),
		NetSale:                    r2(netSale),
		SalesVat:                   r2(salesVat),
		NetSaleExclVat:             r2(netSaleExclVat),
		ProductCostExclVat:         r2(productCost),
		PurchaseVat:                r2(purchaseVat),
		ProductCostInclVat:         r2(productCost.Add(purchaseVat)),
		Commission:                 r2(commission),
		CommissionVat:              r2(commissionVat),
		CommissionTotal:            r2(commissionTotal),
		CargoCostExclVat:           r2(basis.CargoCostExclVat),
		CargoVat:                   r2(cargoVat),
		CargoCostTotal:             r2(cargoTotal),
		PlatformFeeExclVat:         r2(basis.PlatformFeeExclVat),
		PlatformVat:                r2(platformVat),
		PlatformFeeTotal:           r2(platformTotal),
		WithholdingTax:             r2(withholding),
		DeductibleVat:              r2(deductibleVat),
		NetVatPayable:              r2(netVatPayable),
		TotalMarketplaceDeductions: r2(commissionTotal.Add(cargoTotal).Add(platformTotal)),
		TotalCost:                  r2(totalCost),
		NetProfit:                  r2(netProfit),
		ProfitMarginPercent:        r2(margin),
		HasCostData:                basis.HasCostData,
	}
	bd.IsProfitable = bd.NetProfit.IsPositive()
	if !bd.IsProfitable && basis.HasCostData {
		notes = append(notes, "la línea genera pérdida")
	}
	bd.Notes = notes
	return bd
}

// zeroBreakdown línea con cantidad 0: se guarda igual, con todos los montos en cero.
func zeroBreakdown(hasCostData bool) entity.Breakdown {
	z := decimal.Zero
	return entity.Breakdown{
		GrossSale: z, DiscountAmount: z, NetSale: z, SalesVat: z, NetSaleExclVat: z,
		ProductCostExclVat: z, PurchaseVat: z, ProductCostInclVat: z,
		Commission: z, CommissionVat: z, CommissionTotal: z,
		CargoCostExclVat: z, CargoVat: z, CargoCostTotal: z,
		PlatformFeeExclVat: z, PlatformVat: z, PlatformFeeTotal: z,
		WithholdingTax: z, DeductibleVat: z, NetVatPayable: z,
		TotalMarketplaceDeductions: z, TotalCost: z, NetProfit: z, ProfitMarginPercent: z,
		HasCostData: hasCostData,
		Notes:       []string{"cantidad 0"},
	}
}

func pct(rate decimal.Decimal) decimal.Decimal {
	return rate.Div(hundred)
}

// r2 redondeo half-up (alejándose de cero) a 2 decimales.
func r2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
