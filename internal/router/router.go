package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/handler"
	"github.com/sayu/sayu-backend/internal/middleware"
	"github.com/sayu/sayu-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz    *handler.QuizHandler
	Profile *handler.ProfileHandler
	Match   *handler.MatchHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	limiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())

	// Brotli skips /metrics and WebSocket upgrades.
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ─── 1. Public Group (Rate Limited) ────────────────────────────────
	public := router.Group("/api/v1")
	public.Use(limiter.Middleware())
	{
		public.GET("/compatibility/:host/:candidate", handlers.Match.Compatibility)
	}

	// ─── 2. User Group (JWT + Rate Limited) ────────────────────────────
	userAPI := router.Group("/api/v1")
	userAPI.Use(
		middleware.RequireUserJWT(auth),
		limiter.Middleware(),
	)
	{
		quiz := userAPI.Group("/quiz/sessions")
		{
			quiz.POST("", handlers.Quiz.StartQuiz)
			quiz.GET("/:id", handlers.Quiz.GetState)
			quiz.POST("/:id/answers", handlers.Quiz.SubmitAnswer)
			quiz.POST("/:id/complete", handlers.Quiz.CompleteQuiz)
		}

		userAPI.GET("/profile", handlers.Profile.GetProfile)
		userAPI.GET("/recommendations", handlers.Profile.GetRecommendations)

		matches := userAPI.Group("/matches")
		{
			matches.POST("", handlers.Match.CreateRequest)
			matches.GET("/:id/candidates", handlers.Match.FindCandidates)
			matches.POST("/:id/accept", handlers.Match.Accept)
			matches.POST("/:id/reject", handlers.Match.Reject)
			matches.DELETE("/:id", handlers.Match.Cancel)
		}

		userAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 3. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(auth))
	{
		ws.GET("/quiz/sessions/:id/stream", handlers.WS.QuizStream)
	}

	return router
}
