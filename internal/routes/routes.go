// Package routes defines the API routing configuration.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tripwallet/internal/handlers"
	"tripwallet/internal/middleware"
	"tripwallet/internal/models"
	"tripwallet/internal/services/recon"
	"tripwallet/internal/services/refundquote"
	"tripwallet/internal/services/settlement"
	"tripwallet/internal/services/topup"
	"tripwallet/internal/services/wallet"
)

// Dependencies carries everything the HTTP layer needs. Redis and Gatherer
// are optional.
type Dependencies struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Gatherer    prometheus.Gatherer
	JWTSecret   string
	Logger      *logrus.Logger
	Wallet      wallet.Service
	Settlements *settlement.Service
	Quotes      *refundquote.Calculator
	Topups      *topup.Service
	TopupConfig topup.Config
	Reconciler  *recon.Reconciler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	quotes := deps.Quotes
	if quotes == nil {
		quotes = refundquote.NewCalculator()
	}

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	walletHandler := handlers.NewWalletHandler(deps.Wallet, logger)
	refundHandler := handlers.NewRefundHandler(deps.Settlements, quotes, logger)
	topupHandler := handlers.NewTopupHandler(deps.Topups, deps.TopupConfig, logger)
	reconHandler := handlers.NewReconHandler(deps.Reconciler, logger)

	app.Get("/health", healthHandler.Check)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := middleware.NewAuthMiddleware(deps.JWTSecret, logger)
	api := app.Group("/api", auth.Handler)

	// User routes
	walletRoutes := api.Group("/wallet", middleware.HasPermission(models.PermissionWalletRead))
	walletRoutes.Get("/balance", walletHandler.GetBalance)
	walletRoutes.Get("/transactions", walletHandler.ListTransactions)

	api.Post("/refunds/quote", middleware.HasPermission(models.PermissionRefundQuote), refundHandler.Quote)

	topupRoutes := api.Group("/topups", middleware.HasPermission(models.PermissionTopupCreate))
	topupRoutes.Get("/packages", topupHandler.Packages)
	topupRoutes.Get("/", topupHandler.ListMine)
	topupRoutes.Post("/", topupHandler.Create)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminOnly)

	adminWallet := admin.Group("/wallet")
	adminWallet.Post("/credit", middleware.HasPermission(models.PermissionWalletAdjust), walletHandler.Credit)
	adminWallet.Post("/debit", middleware.HasPermission(models.PermissionWalletAdjust), walletHandler.Debit)
	adminWallet.Post("/void", middleware.HasPermission(models.PermissionWalletAdjust), walletHandler.Void)
	adminWallet.Get("/:userId/balance", middleware.HasPermission(models.PermissionReadAdmin), walletHandler.GetUserBalance)
	adminWallet.Get("/:userId/transactions", middleware.HasPermission(models.PermissionReadAdmin), walletHandler.ListUserTransactions)

	adminTopups := admin.Group("/topups", middleware.HasPermission(models.PermissionTopupReview))
	adminTopups.Get("/", topupHandler.List)
	adminTopups.Post("/:id/credit", topupHandler.Credit)
	adminTopups.Post("/:id/reject", topupHandler.Reject)

	adminRefunds := admin.Group("/refunds/:refundId", middleware.HasPermission(models.PermissionRefundSettle))
	adminRefunds.Put("/settlements", refundHandler.PutSettlement)
	adminRefunds.Get("/settlements", refundHandler.ListSettlements)
	adminRefunds.Post("/wallet-credit", refundHandler.WalletCredit)
	adminRefunds.Post("/payout", refundHandler.Payout)

	admin.Post("/reconcile", middleware.HasPermission(models.PermissionWriteAdmin), reconHandler.Run)
}
