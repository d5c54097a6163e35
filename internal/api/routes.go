package api

import (
	"renditr/internal/api/handlers"
	"renditr/internal/api/middleware"
	"renditr/internal/config"
	"renditr/internal/service"

	"github.com/gin-gonic/gin"
)

// Router holds the HTTP router and dependencies
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	imageHandler  *handlers.ImageHandler
	adminHandler  *handlers.AdminHandler
	healthHandler *handlers.HealthHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	cfg *config.Config,
	ingestService service.IngestService,
	compareService service.CompareService,
	purgeService service.PurgeService,
	metricsService service.MetricsService,
	healthService service.HealthService,
) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	router := &Router{
		engine:        engine,
		config:        cfg,
		imageHandler:  handlers.NewImageHandler(ingestService, cfg),
		adminHandler:  handlers.NewAdminHandler(compareService, purgeService, metricsService),
		healthHandler: handlers.NewHealthHandler(healthService),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(gin.Logger())
	r.engine.Use(gin.Recovery())

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.config))
	r.engine.Use(middleware.RateLimit(r.config))
	r.engine.Use(middleware.RequestSizeLimit(r.config.Image.MaxUploadBytes))
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthHandler.Health)

	v1 := r.engine.Group("/v1")
	{
		images := v1.Group("/images")
		{
			images.POST("", r.imageHandler.Ingest)
			images.GET("/:id", r.imageHandler.Get)
			images.POST("/:id/use", r.imageHandler.MarkInUse)
		}

		v1.POST("/compare", r.adminHandler.Compare)
		v1.POST("/purge", r.adminHandler.Purge)
		v1.GET("/metrics", r.adminHandler.Metrics)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
