package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qforge/qpgen-backend/internal/config"
	"github.com/qforge/qpgen-backend/internal/handler"
	"github.com/qforge/qpgen-backend/internal/middleware"
	"github.com/qforge/qpgen-backend/internal/response"
	"github.com/qforge/qpgen-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Upload   *handler.UploadHandler
	Generate *handler.GenerateHandler
	Paper    *handler.PaperHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	requireJWT := middleware.RequireUserJWT(authService)
	checkSession := middleware.CheckSession(authService)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/send-reset-otp", handlers.Auth.SendResetOTP)
		auth.POST("/reset-password", handlers.Auth.ResetPassword)

		// Authenticated account routes
		auth.POST("/logout", requireJWT, checkSession, handlers.Auth.Logout)
		auth.GET("/is-auth", requireJWT, checkSession, handlers.Auth.IsAuth)
		auth.GET("/profile", requireJWT, checkSession, handlers.Auth.Profile)
		auth.PUT("/profile", requireJWT, checkSession, handlers.Auth.UpdateProfile)
		auth.PUT("/password", requireJWT, checkSession, handlers.Auth.UpdatePassword)
		auth.POST("/send-verify-otp", requireJWT, checkSession, handlers.Auth.SendVerifyOTP)
		auth.POST("/verify-account", requireJWT, checkSession, handlers.Auth.VerifyAccount)
	}

	// ─── 2. Uploads Group (JWT + Active Session) ───────────────────────
	uploads := router.Group("/api/v1/uploads")
	uploads.Use(requireJWT, checkSession)
	{
		uploads.POST("", handlers.Upload.Upload)
		uploads.GET("", handlers.Upload.ListFiles)
		uploads.DELETE("/:file_id", handlers.Upload.DeleteFile)
	}

	// ─── 3. Papers Group (JWT + Active Session) ────────────────────────
	papers := router.Group("/api/v1/papers")
	papers.Use(requireJWT, checkSession)
	{
		papers.POST("/generate", handlers.Generate.Generate)
		papers.GET("/subjects/:file_id", handlers.Generate.Subjects)
		papers.POST("", handlers.Paper.Save)
		papers.GET("", handlers.Paper.List)
		papers.DELETE("/:paper_id", handlers.Paper.Delete)
	}

	return router
}
