package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/application/usecase"
)

// ProductHandler costos de producto y recálculo por producto (protegido).
type ProductHandler struct {
	uc *usecase.ProductUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// UpdateCost godoc
// @Summary      Editar costo de un producto
// @Description  Guarda el costo anterior en el historial y encola el recálculo de las líneas desde effective_from.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        barcode  path  string  true  "Código de barras"
// @Param        body     body  dto.UpdateCostRequest  true  "Costo y tasas"
// @Success      200  {object}  dto.UpdateCostResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/{barcode}/cost [put]
func (h *ProductHandler) UpdateCost(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var in dto.UpdateCostRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateCost(c.UserContext(), sellerID, c.Params("barcode"), in)
	if err != nil {
		return writeError(c, err, "producto no encontrado")
	}
	return c.JSON(out)
}

// Recalculate godoc
// @Summary      Encolar recálculo de todo el historial de un producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        barcode  path  string  true  "Código de barras"
// @Success      202  {object}  dto.RecalculateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{barcode}/recalculate [post]
func (h *ProductHandler) Recalculate(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	out, err := h.uc.RecalculateProduct(c.UserContext(), sellerID, c.Params("barcode"))
	if err != nil {
		return writeError(c, err, "producto no encontrado")
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// CostHistory godoc
// @Summary      Historial de costos de un producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        barcode  path  string  true  "Código de barras"
// @Success      200  {array}   dto.CostHistoryDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{barcode}/cost-history [get]
func (h *ProductHandler) CostHistory(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	out, err := h.uc.GetCostHistory(c.UserContext(), sellerID, c.Params("barcode"))
	if err != nil {
		return writeError(c, err, "producto no encontrado")
	}
	return c.JSON(out)
}
