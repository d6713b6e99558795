package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
	"github.com/jhoicas/Rentabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
)

// CalculationHandler desglose por línea y recálculo por orden.
type CalculationHandler struct {
	profit *profitability.UseCase
	orders *usecase.OrderLineUseCase
}

// NewCalculationHandler construye el handler.
func NewCalculationHandler(profit *profitability.UseCase, orders *usecase.OrderLineUseCase) *CalculationHandler {
	return &CalculationHandler{profit: profit, orders: orders}
}

// List godoc
// @Summary      Listar cálculos del vendedor
// @Tags         calculations
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "1..100 (default 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.CalculationListResponse
// @Router       /api/calculations [get]
func (h *CalculationHandler) List(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de página inválidos"})
	}
	out, err := h.profit.ListCalculations(c.UserContext(), sellerID, page)
	if err != nil {
		return writeError(c, err, "")
	}
	return c.JSON(out)
}

// GetBreakdown godoc
// @Summary      Desglose de rentabilidad de una línea
// @Description  202 si la línea existe pero su cálculo aún no está disponible o quedó desactualizado
// @Description  (estado en el cuerpo; con stale=true el desglose es el del cómputo anterior).
// @Tags         calculations
// @Security     Bearer
// @Produce      json
// @Param        lineId  path  string  true  "ID de la línea del marketplace"
// @Success      200  {object}  dto.BreakdownResponse
// @Success      202  {object}  dto.BreakdownResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/calculations/{lineId} [get]
func (h *CalculationHandler) GetBreakdown(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	lineID := c.Params("lineId")
	out, err := h.profit.GetBreakdown(c.UserContext(), sellerID, lineID)
	if errors.Is(err, domain.ErrNotComputed) {
		return c.Status(fiber.StatusAccepted).JSON(out)
	}
	if err != nil {
		return writeError(c, err, "línea no encontrada")
	}
	return c.JSON(out)
}

// ListByOrder godoc
// @Summary      Cálculos de las líneas de una orden
// @Description  Incluye totales de las líneas activas y cuántas líneas siguen sin cálculo.
// @Tags         calculations
// @Security     Bearer
// @Produce      json
// @Param        orderId  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderCalculationsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{orderId}/calculations [get]
func (h *CalculationHandler) ListByOrder(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	out, err := h.profit.ListOrderCalculations(c.UserContext(), sellerID, c.Params("orderId"))
	if err != nil {
		return writeError(c, err, "orden no encontrada")
	}
	return c.JSON(out)
}

// RecalculateOrder godoc
// @Summary      Encolar recálculo de todas las líneas de una orden
// @Tags         calculations
// @Security     Bearer
// @Produce      json
// @Param        orderId  path  string  true  "ID de la orden"
// @Success      202  {object}  dto.RecalculateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{orderId}/recalculate [post]
func (h *CalculationHandler) RecalculateOrder(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	out, err := h.orders.RecalculateOrder(c.UserContext(), sellerID, c.Params("orderId"))
	if err != nil {
		return writeError(c, err, "orden no encontrada")
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}
