package kafka

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
)

// OrderLineMessage línea de orden publicada por el colaborador de ingesta (topic order-lines).
type OrderLineMessage struct {
	SellerID           string           `json:"sellerId"`
	OrderID            string           `json:"orderId"`
	LineID             string           `json:"lineId"`
	Barcode            string           `json:"barcode"`
	UnitPrice          decimal.Decimal  `json:"unitPrice"`
	Quantity           int64            `json:"quantity"`
	DiscountAmount     decimal.Decimal  `json:"discountAmount"`
	OrderDate          time.Time        `json:"orderDate"`
	CargoCostExclVat   *decimal.Decimal `json:"cargoCostExclVat,omitempty"`
	PlatformFeeExclVat *decimal.Decimal `json:"platformFeeExclVat,omitempty"`
	Status             string           `json:"status,omitempty"`
}

// CostEditMessage edición de costo (topic product-cost-edits), típicamente de una carga masiva.
type CostEditMessage struct {
	SellerID               string           `json:"sellerId"`
	Barcode                string           `json:"barcode"`
	Title                  string           `json:"title,omitempty"`
	ProductCostExclVat     decimal.Decimal  `json:"productCostExclVat"`
	PurchaseVatRate        decimal.Decimal  `json:"purchaseVatRate"`
	SalesVatRate           *decimal.Decimal `json:"salesVatRate,omitempty"`
	CommissionRateOverride *decimal.Decimal `json:"commissionRateOverride,omitempty"`
	ClearCommissionRate    bool             `json:"clearCommissionRateOverride,omitempty"`
	EffectiveFrom          *time.Time       `json:"effectiveFrom,omitempty"`
}

// DecodeOrderLine valida lo mínimo del sobre; el resto lo valida el caso de uso.
func DecodeOrderLine(b []byte) (string, dto.OrderLineRequest, error) {
	var m OrderLineMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return "", dto.OrderLineRequest{}, &domain.ValidationError{Field: "message", Reason: fmt.Sprintf("JSON inválido: %v", err)}
	}
	if strings.TrimSpace(m.SellerID) == "" {
		return "", dto.OrderLineRequest{}, &domain.ValidationError{Field: "sellerId", Reason: "requerido"}
	}
	return m.SellerID, dto.OrderLineRequest{
		OrderID:            m.OrderID,
		LineID:             m.LineID,
		Barcode:            m.Barcode,
		UnitPrice:          m.UnitPrice,
		Quantity:           m.Quantity,
		DiscountAmount:     m.DiscountAmount,
		OrderDate:          m.OrderDate,
		CargoCostExclVat:   m.CargoCostExclVat,
		PlatformFeeExclVat: m.PlatformFeeExclVat,
		Status:             m.Status,
	}, nil
}

// DecodeCostEdit convierte el mensaje en el evento de edición de costo.
func DecodeCostEdit(b []byte) (string, entity.CostEdit, string, error) {
	var m CostEditMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return "", entity.CostEdit{}, "", &domain.ValidationError{Field: "message", Reason: fmt.Sprintf("JSON inválido: %v", err)}
	}
	if strings.TrimSpace(m.SellerID) == "" {
		return "", entity.CostEdit{}, "", &domain.ValidationError{Field: "sellerId", Reason: "requerido"}
	}
	return m.SellerID, entity.CostEdit{
		Barcode:                 m.Barcode,
		ProductCostExclVat:      m.ProductCostExclVat,
		PurchaseVatRate:         m.PurchaseVatRate,
		SalesVatRate:            m.SalesVatRate,
		CommissionRateOverride:  m.CommissionRateOverride,
		ClearCommissionOverride: m.ClearCommissionRate,
		EffectiveFrom:           m.EffectiveFrom,
	}, m.Title, nil
}
