package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/cache"
	"github.com/helping-hands-dev/helping-hands/internal/config"
	"github.com/helping-hands-dev/helping-hands/internal/feed"
	"github.com/helping-hands-dev/helping-hands/internal/handlers"
	"github.com/helping-hands-dev/helping-hands/internal/ledger"
	"github.com/helping-hands-dev/helping-hands/internal/mailer"
	"github.com/helping-hands-dev/helping-hands/internal/middleware"
	"github.com/helping-hands-dev/helping-hands/internal/types"
)

// Dependencies carries everything the handlers need. Constructed once in
// main and threaded through; nothing here is a package global.
type Dependencies struct {
	DB     *gorm.DB
	Cache  *cache.Cache
	Mailer mailer.Mailer
	Feed   *feed.Hub
	Ledger *ledger.Coordinator
	Config config.Config
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Mailer, deps.Config)
	passwordHandler := handlers.NewPasswordHandler(deps.DB, deps.Mailer, deps.Config)
	donationHandler := handlers.NewDonationHandler(deps.DB, deps.Ledger, deps.Feed, deps.Mailer, deps.Config)
	requestHandler := handlers.NewRequestHandler(deps.DB, deps.Config)
	statsHandler := handlers.NewStatsHandler(deps.DB, deps.Cache)
	userHandler := handlers.NewUserHandler(deps.DB)

	requireAuth := middleware.RequireAuth(deps.DB)
	optionalAuth := middleware.OptionalAuth(deps.DB)
	requireAdmin := middleware.RequireAdmin()

	donationLimiter := middleware.RateLimit(rate.Every(time.Second), 20)
	resetLimiter := middleware.RateLimit(rate.Every(time.Minute/3), 3)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		if deps.Feed != nil {
			api.GET("/ws/feed", deps.Feed.Handler)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
			auth.PUT("/change-password", requireAuth, authHandler.ChangePassword)

			auth.POST("/forgot-password", resetLimiter, passwordHandler.ForgotPassword)
			auth.PUT("/reset-password/:token", passwordHandler.ResetPassword)
			auth.GET("/verify-reset-token/:token", passwordHandler.VerifyResetToken)
		}

		donations := api.Group("/donations")
		{
			donations.POST("", donationLimiter, optionalAuth, donationHandler.CreateDonation)
			donations.GET("", donationHandler.ListDonations)
			donations.GET("/:id", donationHandler.GetDonation)
			donations.GET("/my/donations", requireAuth, donationHandler.GetMyDonations)
			donations.PUT("/:id/status", requireAuth, requireAdmin, donationHandler.UpdateDonationStatus)
			donations.DELETE("/:id", requireAuth, requireAdmin, donationHandler.DeleteDonation)
		}

		requests := api.Group("/requests")
		{
			requests.GET("", requestHandler.ListRequests)
			requests.GET("/:id", requestHandler.GetRequest)
			requests.POST("", requireAuth, requestHandler.CreateRequest)
			requests.GET("/my/requests", requireAuth, requestHandler.GetMyRequests)
			requests.PUT("/:id", requireAuth, requestHandler.UpdateRequest)
			requests.DELETE("/:id", requireAuth, requestHandler.DeleteRequest)
			requests.PUT("/:id/approve", requireAuth, requireAdmin, requestHandler.ApproveRequest)
			requests.PUT("/:id/reject", requireAuth, requireAdmin, requestHandler.RejectRequest)
		}

		stats := api.Group("/stats")
		{
			stats.GET("/overall", statsHandler.GetOverallStats)
			stats.GET("/donations", statsHandler.GetDonationStats)
			stats.GET("/requests", statsHandler.GetRequestStats)
			stats.GET("/users", statsHandler.GetUserStats)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("", requireAdmin, userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", requireAdmin, userHandler.DeleteUser)
			users.GET("/:id/donations", userHandler.GetUserDonations)
			users.GET("/:id/requests", userHandler.GetUserRequests)
		}
	}

	return r
}
