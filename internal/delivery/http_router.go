package delivery

import (
	"time"

	"wbreport/internal/delivery/middleware"
	"wbreport/pkg/logger"
	"wbreport/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPRouter struct {
	handlers       *HTTPHandlers
	logger         *logger.Logger
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	requestTimeout time.Duration
}

func NewHTTPRouter(
	handlers *HTTPHandlers,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	requestTimeout time.Duration,
) *HTTPRouter {
	return &HTTPRouter{
		handlers:       handlers,
		logger:         logger,
		metrics:        metrics,
		gatherer:       gatherer,
		requestTimeout: requestTimeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.requestTimeout))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "Authorization", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		reports := v1.Group("/reports")
		{
			reports.POST("", r.handlers.GenerateReport)
			reports.GET("", r.handlers.ListReports)
			reports.GET("/:id", r.handlers.GetReport)
			reports.GET("/:id/periods", r.handlers.GetReportPeriods)
			reports.GET("/:id/products", r.handlers.GetReportProducts)
			reports.POST("/:id/export", r.handlers.ExportReport)
		}

		costPrices := v1.Group("/cost-prices")
		{
			costPrices.GET("", r.handlers.ListCostPrices)
			costPrices.PUT("", r.handlers.UpsertCostPrices)
			costPrices.GET("/template", r.handlers.CostPriceTemplate)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}
