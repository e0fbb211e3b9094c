package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/config"
	"nnm-backend/internal/handlers"
	"nnm-backend/internal/middleware"
)

// corsMiddleware CORS middleware.
// Origins come from config (env override handled at config load).
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigins := []string{"*"}
		allowCredentials := false
		maxAge := 3600

		if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if strings.TrimSpace(allowedOrigin) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				logrus.WithFields(logrus.Fields{
					"request_origin": origin,
					"path":           c.Request.URL.Path,
					"method":         c.Request.Method,
				}).Warn("🚫 CORS: Request blocked - Origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter wires all HTTP routes.
func SetupRouter(
	mintHandler *handlers.MintHandler,
	assetHandler *handlers.AssetHandler,
	adminAuthHandler *handlers.AdminAuthHandler,
	adminOpsHandler *handlers.AdminOpsHandler,
	wsHandler *handlers.WebSocketHandler,
) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	// ============ Check ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// ============ Health Check ============
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "nnm-backend",
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	api := r.Group("/api")
	{
		api.POST("/mint", mintHandler.MintHandler)
		api.GET("/mint/plan", mintHandler.PlanHandler)
		api.GET("/mint/attempts/:id", mintHandler.AttemptHandler)

		api.GET("/assets", assetHandler.ListAssetsHandler)
		api.GET("/assets/owner/:address", assetHandler.AssetsByOwnerHandler)
		api.GET("/assets/:id", assetHandler.GetAssetHandler)

		api.GET("/names/:name/available", assetHandler.NameAvailableHandler)
	}

	// ============ Admin Routes ============
	adminAuth := middleware.NewAdminAuthMiddleware(logrus.StandardLogger())
	admin := api.Group("/admin")
	{
		admin.POST("/login", adminAuthHandler.AdminLoginHandler)

		protected := admin.Group("")
		protected.Use(adminAuth.RequireAdminAuth())
		{
			protected.POST("/reindex", adminOpsHandler.ReindexHandler)
			protected.GET("/attempts", adminOpsHandler.AttemptsHandler)
		}
	}

	// ============ WebSocket ============
	r.GET("/ws/attempts/:id", wsHandler.AttemptStreamHandler)

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path

		if len(path) >= 4 && path[:4] != "/api" {
			c.JSON(http.StatusNotFound, gin.H{
				"message":    "Endpoint not found",
				"path":       path,
				"suggestion": "Check /api endpoints for available APIs",
			})
			return
		}

		c.JSON(http.StatusNotFound, gin.H{
			"message":    "API endpoint not found",
			"path":       path,
			"suggestion": "Check documentation for available /api endpoints",
		})
	})

	return r
}
