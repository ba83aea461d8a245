package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fuswap/backend/internal/config"
	"github.com/fuswap/backend/internal/database"
	"github.com/fuswap/backend/internal/handlers"
	"github.com/fuswap/backend/internal/jobs"
	"github.com/fuswap/backend/internal/middleware"
	"github.com/fuswap/backend/internal/routes"
	"github.com/fuswap/backend/internal/security"
	"github.com/fuswap/backend/internal/services/auth"
	"github.com/fuswap/backend/internal/services/exchange"
	"github.com/fuswap/backend/internal/services/market"
	"github.com/fuswap/backend/internal/services/referral"
	"github.com/fuswap/backend/internal/services/session"
	"github.com/fuswap/backend/internal/services/settlement"
	"github.com/fuswap/backend/internal/services/transaction"
	"github.com/fuswap/backend/internal/services/transfer"
	"github.com/fuswap/backend/internal/services/user"
	"github.com/fuswap/backend/internal/services/voucher"
	"github.com/fuswap/backend/internal/services/wallet"
	"github.com/fuswap/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const intentExpiryInterval = time.Minute

func main() {
	cfg := config.LoadConfig()

	logger, err := config.NewLogger(cfg.Log, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.InitDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Services
	marketService := market.NewService(cfg.Market.BaseURL, cfg.Market.CacheTTL, logger.Named("market"))
	rateService := exchange.NewRateService(
		db,
		exchange.NewRedisRateCache(redisClient, cfg.Exchange.RateCacheTTL),
		exchange.DefaultRates(cfg.Exchange.DefaultTONUSDT, cfg.Exchange.DefaultTONFUS),
		logger.Named("rates"),
	)
	quoteService := exchange.NewQuoteService(rateService, marketService, logger.Named("quotes"))
	voucherService := voucher.NewVoucherService(db, cfg.Exchange.VoucherTransactionLimit, logger.Named("vouchers"))
	ledger := referral.NewLedger(db, logger.Named("referrals"))
	recorder := transaction.NewRecorder(db, logger.Named("transactions"))
	walletDirectory := wallet.NewDirectory(db, logger.Named("wallets"))
	sessionStore := session.NewStore(redisClient, cfg.Exchange.SessionTTL, logger.Named("sessions"))
	verifier := auth.NewBcryptVerifier()
	userService := user.NewUserService(db, verifier, logger.Named("users"))
	adminAuth := auth.NewAdminAuthenticator(cfg.Admin.PasswordHash, cfg.Admin.TOTPSecret, verifier, logger.Named("admin"))
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)

	gateway := transfer.NewTonCenterGateway(cfg.TonCenter.BaseURL, cfg.TonCenter.APIKey, cfg.TonCenter.PollInterval, logger.Named("toncenter"))
	settlementService := settlement.NewSettlementService(db, settlement.Deps{
		Quotes:   quoteService,
		Vouchers: voucherService,
		Ledger:   ledger,
		Recorder: recorder,
		Wallets:  walletDirectory,
		Gateway:  gateway,
	}, settlement.Config{
		ReceiverAddress: cfg.Exchange.ReceiverAddress,
		ValidityWindow:  cfg.Exchange.TransferValidity,
		ConfirmTimeout:  cfg.Exchange.ConfirmTimeout,
		ExpiryGrace:     cfg.Exchange.ExpiryGrace,
	}, logger.Named("settlement"))

	// Seed defaults so a fresh database prices swaps and sells vouchers
	if err := rateService.SeedDefaults(ctx); err != nil {
		logger.Fatal("Failed to seed exchange rates", zap.Error(err))
	}
	if err := voucherService.SeedDefaults(ctx); err != nil {
		logger.Fatal("Failed to seed vouchers", zap.Error(err))
	}

	// Background jobs
	scheduler := jobs.NewScheduler(logger.Named("jobs"))
	if err := scheduler.ScheduleIntentExpiry(settlementService, intentExpiryInterval); err != nil {
		logger.Fatal("Failed to schedule intent expiry", zap.Error(err))
	}
	if err := scheduler.ScheduleMarketRefresh(marketService, cfg.Market.RefreshInterval); err != nil {
		logger.Fatal("Failed to schedule market refresh", zap.Error(err))
	}
	scheduler.Start()

	rateLimiter := middleware.NewRateLimiter(10, 10, 20, 5)
	loginGuard := security.NewLoginProtection(security.DefaultLoginProtectionConfig())

	router := routes.NewRouter(cfg, routes.Handlers{
		Exchange: handlers.NewExchangeHandler(rateService, quoteService, logger),
		Voucher:  handlers.NewVoucherHandler(voucherService, settlementService, logger),
		Wallet:   handlers.NewWalletHandler(sessionStore, walletDirectory, voucherService, recorder, logger),
		Swap:     handlers.NewSwapHandler(quoteService, voucherService, settlementService, logger),
		User:     handlers.NewUserHandler(userService, ledger, tokens, loginGuard, logger),
		Admin:    handlers.NewAdminHandler(adminAuth, tokens, userService, ledger, walletDirectory, recorder, loginGuard, logger),
		Market:   handlers.NewMarketHandler(marketService, logger),
		Health:   handlers.NewHealthHandler(db, redisClient, logger),
	}, routes.Guards{
		Tokens:      tokens,
		Sessions:    sessionStore,
		RateLimiter: rateLimiter,
	}, logger.Named("http"))

	srv := startServer(router, cfg.Server, logger)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	scheduler.Stop()
	rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, cfg config.ServerConfig, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))
	return srv
}
