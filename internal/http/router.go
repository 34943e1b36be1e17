package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/cauldronwatch/backend/internal/config"
	"github.com/cauldronwatch/backend/internal/http/handlers"
	"github.com/cauldronwatch/backend/internal/http/middleware"
	"github.com/cauldronwatch/backend/internal/metrics"
	"github.com/cauldronwatch/backend/internal/service"
	"github.com/cauldronwatch/backend/internal/source"

	_ "github.com/cauldronwatch/backend/docs"
)

// Router wires the API. importer may be nil when the source cannot be
// written to.
func Router(cfg config.Config, src source.Source, svc *service.AnalysisService, importer handlers.Importer, m *metrics.Metrics, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Source:    src,
		Service:   svc,
		Importer:  importer,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
		DBBacked:  cfg.DataSource == config.SourcePostgres,
	}

	r.GET("/healthz", h.Healthz)
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		api.GET("/vessels", h.VesselsList)
		api.GET("/tickets", h.TicketsList)
		api.GET("/readings", h.ReadingsList)
		api.GET("/drains", h.Drains)
		api.GET("/discrepancies", h.Discrepancies)
		api.GET("/forecast", h.Forecast)
		api.POST("/routes", h.Route)
		api.GET("/depot", h.Depot)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
