package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
)

// ReportHandler reportes de rentabilidad. Solo leen agregados confirmados.
type ReportHandler struct {
	uc *profitability.UseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *profitability.UseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Daily godoc
// @Summary      Resúmenes diarios
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD (default: primer día del mes)"
// @Param        end_date    query  string  false  "YYYY-MM-DD (default: hoy)"
// @Success      200  {object}  dto.DailySummariesResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/daily [get]
func (h *ReportHandler) Daily(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var req dto.PeriodRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	out, err := h.uc.GetDailySummaries(c.UserContext(), sellerID, req)
	if err != nil {
		return writeError(c, err, "sin datos")
	}
	return c.JSON(out)
}

// Monthly godoc
// @Summary      Resúmenes mensuales
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD (default: primer día de hace 11 meses)"
// @Param        end_date    query  string  false  "YYYY-MM-DD (default: hoy)"
// @Success      200  {object}  dto.MonthlySummariesResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly [get]
func (h *ReportHandler) Monthly(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var req dto.PeriodRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	out, err := h.uc.GetMonthlySummaries(c.UserContext(), sellerID, req)
	if err != nil {
		return writeError(c, err, "sin datos")
	}
	return c.JSON(out)
}

// Products godoc
// @Summary      Listado de productos con su rentabilidad acumulada
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        limit                query  int     false  "1..100 (default 20)"
// @Param        offset               query  int     false  "desplazamiento"
// @Param        order_by             query  string  false  "-total_profit | total_profit | -average_margin | average_margin | -total_quantity_sold"
// @Param        profitable           query  bool    false  "Filtrar por rentables / no rentables"
// @Param        exclude_provisional  query  bool    false  "Excluir productos con líneas sin costo"
// @Success      200  {object}  dto.ProductListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/products [get]
func (h *ReportHandler) Products(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var req dto.ProductListRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	out, err := h.uc.ListProducts(c.UserContext(), sellerID, req)
	if err != nil {
		return writeError(c, err, "sin datos")
	}
	return c.JSON(out)
}

// TopProducts godoc
// @Summary      Productos más rentables
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        n                    query  int   false  "Cantidad (default 5)"
// @Param        include_provisional  query  bool  false  "Incluir productos con líneas sin costo"
// @Success      200  {object}  dto.RankingResponse
// @Router       /api/reports/top-products [get]
func (h *ReportHandler) TopProducts(c *fiber.Ctx) error {
	return h.ranking(c, h.uc.GetTopProducts)
}

// LossProducts godoc
// @Summary      Productos con pérdida (el peor primero)
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        n                    query  int   false  "Cantidad (default 5)"
// @Param        include_provisional  query  bool  false  "Incluir productos con líneas sin costo"
// @Success      200  {object}  dto.RankingResponse
// @Router       /api/reports/loss-products [get]
func (h *ReportHandler) LossProducts(c *fiber.Ctx) error {
	return h.ranking(c, h.uc.GetLossProducts)
}

func (h *ReportHandler) ranking(c *fiber.Ctx, get func(context.Context, string, dto.RankingRequest) (*dto.RankingResponse, error)) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var req dto.RankingRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	out, err := get(c.UserContext(), sellerID, req)
	if err != nil {
		return writeError(c, err, "sin datos")
	}
	return c.JSON(out)
}

// Dashboard godoc
// @Summary      Dashboard del período
// @Description  Totales, reparto de costos, cobertura de costos cargados y rankings (sin productos provisionales).
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD"
// @Param        end_date    query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  dto.DashboardDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	sellerID, ok := requireSeller(c)
	if !ok {
		return nil
	}
	var req dto.PeriodRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	out, err := h.uc.GetDashboard(c.UserContext(), sellerID, req)
	if err != nil {
		return writeError(c, err, "sin datos")
	}
	return c.JSON(out)
}
