package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/application/usecase"
)

// OrderLineHandler ingesta de líneas de orden.
type OrderLineHandler struct {
	uc *usecase.OrderLineUseCase
}

// NewOrderLineHandler construye el handler.
func NewOrderLineHandler(uc *usecase.OrderLineUseCase) *OrderLineHandler {
	return &OrderLineHandler{uc: uc}
}

// Ingest godoc
// @Summary      Ingerir líneas de orden
// @Description  Las líneas nuevas se encolan para cálculo; las repetidas se ignoran salvo cambio de estado.
// @Tags         order-lines
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IngestOrderLinesRequest  true  "Lote de líneas"
// @Success      202  {object}  dto.IngestOrderLinesResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/order-lines [post]
func (h *OrderLineHandler) Ingest(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var in dto.IngestOrderLinesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Lines) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "lines es requerido"})
	}
	out, err := h.uc.Ingest(c.UserContext(), sellerID, in)
	if err != nil {
		return writeError(c, err, "línea no encontrada")
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}
