package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Rentabilidad-api/internal/application/auth"
	"github.com/jhoicas/Rentabilidad-api/internal/application/profitability"
	"github.com/jhoicas/Rentabilidad-api/internal/application/scheduler"
	"github.com/jhoicas/Rentabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/aggregation"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/costbasis"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Rentabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Rentabilidad-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Rentabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Rentabilidad-api/internal/interfaces/kafka"
	"github.com/jhoicas/Rentabilidad-api/pkg/config"
	"github.com/jhoicas/Rentabilidad-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// stores repositorios según DB_DRIVER.
type stores struct {
	lines    repository.OrderLineRepository
	products repository.ProductRepository
	sellers  repository.SellerRepository
	calcs    repository.CalculationRepository
	aggs     repository.AggregateRepository
	users    repository.UserRepository
	tx       profitability.TxRunner
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	if cfg.DB.Migrations != "" && cfg.DB.Driver != "memory" {
		log.Info().Str("file", cfg.DB.Migrations).Msg("migración aplicada")
	}
	defer st.close()

	loc, err := cfg.Engine.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria del motor")
	}

	profitUC := profitability.NewUseCase(
		st.lines, st.products, st.sellers, st.calcs, st.aggs, st.tx,
		costbasis.NewResolver(systemDefaults(cfg.Engine)),
		aggregation.NewEngine(loc),
		log.Component("profitability"),
	)
	sched := scheduler.New(scheduler.Config{
		Workers:    cfg.Engine.Workers,
		MaxRetries: uint64(max(cfg.Engine.MaxRetries, 0)),
		BaseDelay:  cfg.Engine.RetryBase,
	}, profitUC, log.Component("scheduler"))
	triggers := scheduler.NewTriggers(sched, st.lines, log.Component("triggers"))

	authUC := auth.NewAuthUseCase(st.users, st.sellers, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))
	if cfg.Auth.AdminEmail != "" {
		if err := authUC.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("crear administrador inicial")
		}
	}

	productUC := usecase.NewProductUseCase(st.products, triggers, log.Component("products"))
	orderLineUC := usecase.NewOrderLineUseCase(st.lines, triggers, log.Component("order-lines"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Rentabilidad API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ProfitUC:    profitUC,
		ProductUC:   productUC,
		OrderLineUC: orderLineUC,
		Stats:       sched,
		JWTSecret:   cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })

	if cfg.Kafka.Enabled() {
		listener := kafka.NewListener(
			kafka.Config{MaxRetries: uint64(max(cfg.Engine.MaxRetries, 0)), BaseDelay: cfg.Engine.RetryBase},
			kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrderLinesTopic),
			kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.CostEditsTopic),
			orderLineUC, productUC,
			log.Component("kafka"),
		)
		g.Go(func() error { return listener.Run(gctx) })
	}

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("apagado del servidor")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
	}
	stats := sched.Stats()
	log.Info().
		Int64("calculadas", stats.Computed).
		Int64("fallidas", stats.Failed).
		Int("descartadas_en_cola", stats.Pending).
		Msg("aplicación detenida")
}

// openStores PostgreSQL por defecto; DB_DRIVER=memory levanta la API sin base de datos.
func openStores(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*stores, error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &stores{
			lines:    memory.NewOrderLineRepository(s),
			products: memory.NewProductRepository(s),
			sellers:  memory.NewSellerRepository(s),
			calcs:    memory.NewCalculationRepository(s),
			aggs:     memory.NewAggregateRepository(s),
			users:    memory.NewUserRepository(s),
			tx:       memory.NewTxRunner(s),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Migrations != "" {
		if err := postgres.Migrate(ctx, pool, cfg.Migrations); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &stores{
		lines:    postgres.NewOrderLineRepository(pool),
		products: postgres.NewProductRepository(pool),
		sellers:  postgres.NewSellerRepository(pool),
		calcs:    postgres.NewCalculationRepository(pool),
		aggs:     postgres.NewAggregateRepository(pool),
		users:    postgres.NewUserRepository(pool),
		tx:       postgres.NewTxRunner(pool),
		close:    pool.Close,
	}, nil
}

func systemDefaults(e config.EngineConfig) costbasis.Defaults {
	return costbasis.Defaults{
		VatRate:            e.DefaultVatRate,
		CommissionRate:     e.DefaultCommissionRate,
		CommissionVatRate:  e.DefaultCommissionVatRate,
		CargoCostExclVat:   e.DefaultCargoCostExclVat,
		CargoVatRate:       e.DefaultCargoVatRate,
		PlatformFeeExclVat: e.DefaultPlatformFeeExclVat,
		PlatformVatRate:    e.DefaultPlatformVatRate,
		WithholdingTaxRate: e.DefaultWithholdingRate,
	}
}
