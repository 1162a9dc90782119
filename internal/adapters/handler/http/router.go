package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/metrics"
)

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

type RouterDependencies struct {
	AuthHandler      *AuthHandler
	CatalogHandler   *CatalogHandler
	ProgressHandler  *ProgressHandler
	GoalHandler      *GoalHandler
	DashboardHandler *DashboardHandler
	TokenService     *services.TokenService

	Redis      *redis.Client
	RateLimit  int
	RateWindow time.Duration

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   logrus.FieldLogger

	HealthChecks map[string]HealthCheck
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.Use(middleware.RequestLogger(log))
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}
	if deps.Redis != nil {
		limit, window := deps.RateLimit, deps.RateWindow
		if limit <= 0 {
			limit = 100
		}
		if window <= 0 {
			window = time.Minute
		}
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, limit, window, log))
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		statusCode := http.StatusOK
		checks := gin.H{}
		for name, check := range deps.HealthChecks {
			if err := check(ctx); err != nil {
				checks[name] = "unreachable"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "connected"
		}

		status := "ok"
		if statusCode != http.StatusOK {
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"services": checks,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")

	deps.CatalogHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.AuthHandler.RegisterRoutes(apiV1, protected)
		deps.ProgressHandler.RegisterRoutes(protected)
		deps.GoalHandler.RegisterRoutes(protected)
		deps.DashboardHandler.RegisterRoutes(protected)
	}

	return router
}
