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
	"github.com/shopspring/decimal"

	appcounting "github.com/jhoicas/Conteos-api/internal/application/counting"
	"github.com/jhoicas/Conteos-api/internal/application/auth"
	"github.com/jhoicas/Conteos-api/internal/application/usecase"
	domcounting "github.com/jhoicas/Conteos-api/internal/domain/counting"
	infrapdf "github.com/jhoicas/Conteos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Conteos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Conteos-api/internal/interfaces/http"
	"github.com/jhoicas/Conteos-api/pkg/config"
	"github.com/jhoicas/Conteos-api/pkg/logger"
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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	countRepo := postgres.NewCycleCountRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	companyUC := usecase.NewCompanyUseCase(companyRepo)
	userUC := usecase.NewUserUseCase(userRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	moduleSvc := usecase.NewModuleService(companyRepo)

	countCfg := appcounting.Config{
		Thresholds:       countThresholds(cfg.Count, log),
		RandomSampleSize: cfg.Count.RandomSampleSize,
	}
	countUC := appcounting.NewCycleCountUseCase(
		txRunner, countRepo, productRepo, warehouseRepo,
		appcounting.DefaultCapabilities(), countCfg, log,
	)
	sheetUC := appcounting.NewSheetUseCase(
		countRepo, productRepo, warehouseRepo, infrapdf.NewCountSheetGenerator(),
	)

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

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
		Title:    "Conteos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:   companyUC,
		UserUC:      userUC,
		WarehouseUC: warehouseUC,
		ProductUC:   productUC,
		CountUC:     countUC,
		SheetUC:     sheetUC,
		AuthUC:      authUC,
		ModuleSvc:   moduleSvc,
		JWTSecret:   cfg.JWT.Secret,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// countThresholds parsea los umbrales de config. Un valor malformado no
// tumba el arranque: se usa el default y se deja registro.
func countThresholds(c config.CountConfig, log *logger.Logger) domcounting.Thresholds {
	t := domcounting.DefaultThresholds()
	if v, err := decimal.NewFromString(c.PercentThreshold); err == nil {
		t.Percent = v
	} else {
		log.Warn().Str("value", c.PercentThreshold).Msg("COUNT_PERCENT_THRESHOLD inválido, usando default")
	}
	if v, err := decimal.NewFromString(c.CostThreshold); err == nil {
		t.Cost = v
	} else {
		log.Warn().Str("value", c.CostThreshold).Msg("COUNT_COST_THRESHOLD inválido, usando default")
	}
	return t
}
