package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/cleancook/internal/logging"
	"github.com/sujalbistaa/cleancook/internal/metrics"
	"github.com/sujalbistaa/cleancook/internal/ratelimit"
	"github.com/sujalbistaa/cleancook/internal/ws"
)

// Options holds the gateway settings that do not belong to a handler.
type Options struct {
	CORSOrigin string
	Limiter    ratelimit.Limiter
}

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, env *Env, opts Options) {

	// --- Middleware ---
	router.Use(RecoveryMiddleware(env.Log))
	router.Use(logging.Middleware(env.Log))
	router.Use(metrics.Middleware())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{corsOrigin},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	router.Use(BodyLimitMiddleware())
	if opts.Limiter != nil {
		router.Use(RateLimitMiddleware(opts.Limiter, env.Log))
	}

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/health", env.Health)

		api.GET("/stories", env.GetStories)
		api.POST("/stories", env.CreateStory)
		api.POST("/stories/:id/like", env.LikeStory)

		api.GET("/threads", env.GetThreads)
		api.POST("/threads", env.CreateThread)
		api.GET("/threads/:id/comments", env.GetComments)
		api.POST("/threads/:id/comments", env.CreateComment)

		api.GET("/stats", env.GetStats)
	}

	// --- Uploaded images ---
	router.Static("/uploads", env.Uploads.Dir)

	// --- Live updates and metrics ---
	if env.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			ws.ServeWs(env.Hub, c.Writer, c.Request)
		})
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}
