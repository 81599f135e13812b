package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/infrastructure/memlock"
	"github.com/invorya/ledger-api/internal/infrastructure/postgres"
	"github.com/invorya/ledger-api/internal/infrastructure/rediscache"
	httpRouter "github.com/invorya/ledger-api/internal/interfaces/http"
	"github.com/invorya/ledger-api/pkg/config"
	"github.com/invorya/ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Guard de concurrencia: en proceso para una sola instancia; advisory
	// locks de PostgreSQL para varias instancias contra la misma base.
	var guard ledger.Guard
	switch cfg.Ledger.LockBackend {
	case "postgres":
		guard = postgres.NewAdvisoryGuard(pool, cfg.Ledger.LockTimeout)
		log.Info().Msg("guard: advisory locks de PostgreSQL")
	default:
		guard = memlock.New(cfg.Ledger.LockTimeout)
		log.Info().Msg("guard: mutexes en proceso")
	}

	// Caché de saldos opcional (solo camino de lectura externo).
	var cache ledger.BalanceCache
	if cfg.Redis.Addr != "" {
		client, err := rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		cache = rediscache.New(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de saldos habilitada")
	}

	movementRepo := postgres.NewMovementRepository(pool)
	balanceRepo := postgres.NewBalanceRepository(pool)
	grnRepo := postgres.NewReceivingRepository(pool)
	salesRepo := postgres.NewSalesOrderRepository(pool)
	adjRepo := postgres.NewAdjustmentRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	receivingUC := ledger.NewReceivingUseCase(txRunner, guard, cache, grnRepo, productRepo, warehouseRepo, supplierRepo)
	salesUC := ledger.NewSalesUseCase(txRunner, guard, cache, salesRepo, productRepo, warehouseRepo, customerRepo)
	adjustmentUC := ledger.NewAdjustmentUseCase(txRunner, guard, cache, adjRepo, productRepo, warehouseRepo)
	transferUC := ledger.NewTransferUseCase(txRunner, guard, cache, transferRepo, productRepo, warehouseRepo)
	projector := ledger.NewBalanceProjector(balanceRepo, movementRepo, cache, cfg.Redis.TTL)
	movementQuery := ledger.NewMovementQuery(movementRepo)

	// Reconciliación periódica: el log siempre gana sobre la materialización.
	reconciler := ledger.NewReconciler(movementRepo, balanceRepo, log)
	go reconciler.RunPeriodically(ctx, cfg.Ledger.ReconcileInterval)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invorya Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ReceivingUC:   receivingUC,
		SalesUC:       salesUC,
		AdjustmentUC:  adjustmentUC,
		TransferUC:    transferUC,
		Projector:     projector,
		MovementQuery: movementQuery,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
