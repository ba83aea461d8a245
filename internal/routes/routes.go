package routes

import (
	"time"

	"github.com/fuswap/backend/internal/config"
	"github.com/fuswap/backend/internal/handlers"
	"github.com/fuswap/backend/internal/middleware"
	"github.com/fuswap/backend/internal/services/session"
	"github.com/fuswap/backend/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP handler of the API
type Handlers struct {
	Exchange *handlers.ExchangeHandler
	Voucher  *handlers.VoucherHandler
	Wallet   *handlers.WalletHandler
	Swap     *handlers.SwapHandler
	User     *handlers.UserHandler
	Admin    *handlers.AdminHandler
	Market   *handlers.MarketHandler
	Health   *handlers.HealthHandler
}

// Guards holds what the route middleware needs
type Guards struct {
	Tokens      *utils.TokenManager
	Sessions    *session.Store
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine with global middleware and all routes
func NewRouter(cfg *config.Config, h Handlers, g Guards, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.WalletSessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig(cfg.IsProduction())))
	router.Use(g.RateLimiter.IPRateLimiterMiddleware())

	router.GET("/health", h.Health.Health)

	RegisterPublicRoutes(router, h, g)
	RegisterWalletRoutes(router, h, g, log)
	RegisterUserRoutes(router, h, g)
	RegisterAdminRoutes(router, h, g)

	return router
}

// RegisterPublicRoutes registers routes that need no credentials
func RegisterPublicRoutes(router *gin.Engine, h Handlers, g Guards) {
	api := router.Group("/api")
	{
		api.GET("/currencies", h.Exchange.GetCurrencies)
		api.GET("/rates", h.Exchange.GetRates)
		api.GET("/rates/:pair", h.Exchange.GetRate)
		api.GET("/vouchers", h.Voucher.GetVouchers)
		api.GET("/market/coins", h.Market.GetCoins)
		api.POST("/wallets/connect", h.Wallet.Connect)
	}

	authGroup := router.Group("/api")
	authGroup.Use(g.RateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/users/register", h.User.Register)
		authGroup.POST("/users/login", h.User.Login)
		authGroup.POST("/admin/login", h.Admin.Login)
	}
}

// RegisterWalletRoutes registers routes for a connected wallet
func RegisterWalletRoutes(router *gin.Engine, h Handlers, g Guards, log *zap.Logger) {
	wallet := router.Group("/api")
	wallet.Use(middleware.WalletSessionMiddleware(g.Sessions, log))
	{
		wallet.GET("/wallets/me", h.Wallet.GetMe)
		wallet.DELETE("/wallets/session", h.Wallet.Disconnect)

		wallet.POST("/swaps/quote", h.Swap.Quote)
		wallet.POST("/swaps", h.Swap.CreateSwap)
		wallet.POST("/vouchers/:id/purchase", h.Voucher.PurchaseVoucher)

		wallet.GET("/transfers/:id", h.Swap.GetTransfer)
		wallet.POST("/transfers/:id/confirm", h.Swap.ConfirmTransfer)
	}
}

// RegisterUserRoutes registers routes for a logged in referrer
func RegisterUserRoutes(router *gin.Engine, h Handlers, g Guards) {
	users := router.Group("/api/users")
	users.Use(middleware.AuthMiddleware(g.Tokens))
	{
		users.GET("/me", h.User.GetMe)
		users.GET("/me/referrals", h.User.GetReferrals)
		users.PUT("/me/referral-code", h.User.UpdateReferralCode)
	}
}

// RegisterAdminRoutes registers the administration API
func RegisterAdminRoutes(router *gin.Engine, h Handlers, g Guards) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(g.Tokens), middleware.AdminMiddleware())
	{
		admin.PUT("/rates/:pair", h.Exchange.UpdateRate)
		admin.PUT("/vouchers/:id", h.Voucher.UpdateVoucher)

		admin.GET("/stats", h.Admin.GetStats)
		admin.GET("/wallets", h.Admin.GetWallets)
		admin.GET("/transactions", h.Admin.GetTransactions)

		admin.GET("/users", h.Admin.GetUsers)
		admin.POST("/users", h.Admin.CreateUser)
		admin.PUT("/users/:id/commission-rate", h.Admin.UpdateCommissionRate)
		admin.PUT("/users/:id/referral-code", h.Admin.UpdateReferralCode)
		admin.PUT("/users/:id/password", h.Admin.SetPassword)
	}
}
