package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"facetimer/backend/internal/handler"
	"facetimer/backend/internal/middleware"
	"facetimer/backend/internal/service"
)

type Options struct {
	CORSOrigins       []string
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	urgencyHandler *handler.UrgencyHandler,
	opts Options,
) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestLogger(opts.Logger),
		gin.Recovery(),
		middleware.CORS(opts.CORSOrigins),
		middleware.RateLimit(opts.RequestsPerSecond, opts.Burst),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	api.GET("/urgency", urgencyHandler.Classify)
	api.GET("/urgency/levels", urgencyHandler.Levels)
	api.GET("/urgency/levels/:level", urgencyHandler.Level)

	timers := api.Group("/timers")
	timers.Use(middleware.Auth(authService))
	timers.POST("", timerHandler.Create)
	timers.GET("", timerHandler.List)
	timers.GET("/:id", timerHandler.Get)
	timers.DELETE("/:id", timerHandler.Delete)
	timers.GET("/:id/state", timerHandler.State)
	timers.GET("/:id/events", timerHandler.Events)
	timers.POST("/:id/tick", timerHandler.Tick)
	timers.POST("/:id/pause", timerHandler.Pause)
	timers.POST("/:id/resume", timerHandler.Resume)
	timers.POST("/:id/reset", timerHandler.Reset)

	return engine
}
