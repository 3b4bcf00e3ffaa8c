package main

import (
	"context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/sol1corejz/loyaltydesk/cmd/config"
	"github.com/sol1corejz/loyaltydesk/internal/auth"
	"github.com/sol1corejz/loyaltydesk/internal/handlers"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/middleware"
	"github.com/sol1corejz/loyaltydesk/internal/points"
	"github.com/sol1corejz/loyaltydesk/internal/storage"
	"github.com/sol1corejz/loyaltydesk/internal/workers"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	config.ParseFlags()

	if err := logger.Initialize(config.LogLevel); err != nil {
		logger.Log.Fatal("Failed to initialize logger", zap.Error(err))
	}

	if config.JWTSecret == "" {
		logger.Log.Fatal("JWT secret is required")
	}
	auth.SetSecret(config.JWTSecret)

	rate, err := decimal.NewFromString(config.PointsRate)
	if err != nil || rate.IsNegative() {
		logger.Log.Fatal("Invalid points rate", zap.String("rate", config.PointsRate))
	}

	if err := storage.Init(); err != nil {
		logger.Log.Error("Failed to init storage", zap.Error(err))
		return
	}
	defer storage.DB.Close()

	policy := points.New(config.ClaimUnit)
	handlers.Init(storage.Ledger{Unit: policy.Unit}, policy.Unit, rate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = handlers.BootstrapStaff(bootstrapCtx, config.AdminEmail, config.AdminPassword)
	cancel()
	if err != nil {
		logger.Log.Error("Failed to create bootstrap staff account", zap.Error(err))
		return
	}

	workers.InitTokenSweeper(ctx, config.SweepInterval)

	if err := run(ctx); err != nil {
		logger.Log.Fatal("Failed to run server", zap.Error(err))
	}
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Post("/api/auth/login", handlers.LoginHandler)

	authRoutes := app.Group("/api/auth", middleware.AuthMiddleware)
	authRoutes.Post("/logout", handlers.LogoutHandler)
	authRoutes.Post("/password", handlers.ChangePasswordHandler)
	authRoutes.Get("/me", handlers.MeHandler)

	uploads := app.Group("/api/uploads", middleware.AuthMiddleware)
	uploads.Post("/", handlers.UploadSalesHandler)
	uploads.Post("/preview", handlers.PreviewSalesHandler)
	uploads.Get("/last", handlers.LastUploadHandler)

	customers := app.Group("/api/customers", middleware.AuthMiddleware)
	customers.Get("/", handlers.GetCustomersHandler)
	customers.Get("/export", handlers.ExportCustomersHandler)
	customers.Post("/", handlers.CreateCustomerHandler)
	customers.Get("/:code", handlers.GetCustomerHandler)
	customers.Put("/:code", handlers.UpdateCustomerHandler)
	customers.Delete("/:code", handlers.DeleteCustomerHandler)
	customers.Get("/:code/points", handlers.GetCustomerPointsHandler)
	customers.Post("/:code/claim", handlers.ClaimPointsHandler)
	customers.Get("/:code/claims", handlers.GetClaimHistoryHandler)

	return app
}

func run(ctx context.Context) error {
	app := newApp()

	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("Failed to shut down server", zap.Error(err))
		}
	}()

	logger.Log.Info("Running server", zap.String("address", config.RunAddress))
	return app.Listen(config.RunAddress)
}
