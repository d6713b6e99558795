package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/auth"
	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
	"github.com/jhoicas/Rentabilidad-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ProfitUC    *profitability.UseCase
	ProductUC   *usecase.ProductUseCase
	OrderLineUC *usecase.OrderLineUseCase
	Stats       StatsSource
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", NewHealthHandler(deps.Stats).Health)

	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Post("/auth/register", RequireRole(RoleAdmin), authHandler.Register)

	calcHandler := NewCalculationHandler(deps.ProfitUC, deps.OrderLineUC)
	protected.Get("/calculations", calcHandler.List)
	protected.Get("/calculations/:lineId", calcHandler.GetBreakdown)
	protected.Get("/orders/:orderId/calculations", calcHandler.ListByOrder)
	protected.Post("/orders/:orderId/recalculate", calcHandler.RecalculateOrder)

	// Products (costos)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Put("/:barcode/cost", RequireRole(RoleAdmin, RoleSeller), productHandler.UpdateCost)
	products.Get("/:barcode/cost-history", productHandler.CostHistory)
	products.Post("/:barcode/recalculate", productHandler.Recalculate)

	// Ingesta de líneas (vendedor o colaborador de ingesta)
	orderLineHandler := NewOrderLineHandler(deps.OrderLineUC)
	protected.Post("/order-lines", RequireRole(RoleAdmin, RoleSeller, RoleService), orderLineHandler.Ingest)

	// Reportes
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ProfitUC)
	reports.Get("/daily", reportHandler.Daily)
	reports.Get("/monthly", reportHandler.Monthly)
	reports.Get("/products", reportHandler.Products)
	reports.Get("/top-products", reportHandler.TopProducts)
	reports.Get("/loss-products", reportHandler.LossProducts)
	reports.Get("/dashboard", reportHandler.Dashboard)
}
