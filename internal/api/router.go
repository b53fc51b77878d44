package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/internal/db"
	"github.com/darkmind/darkmind/internal/settings"
	"github.com/darkmind/darkmind/pkg/logging"
)

// Router wires the dashboard REST endpoints.
type Router struct {
	store    *analytics.Store
	settings *settings.Store
	db       *db.DB
	logger   *zap.Logger
}

// NewRouter creates a new API router.
func NewRouter(store *analytics.Store, settingsStore *settings.Store, database *db.DB) *Router {
	return &Router{
		store:    store,
		settings: settingsStore,
		db:       database,
		logger:   logging.WithComponent("api-router"),
	}
}

// SetupRoutes registers all routes on the engine.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	api := engine.Group("/api")
	{
		api.GET("/summary", r.summaryHandler)
		api.GET("/videos", r.videosHandler)
		api.GET("/schedule", r.scheduleHandler)
		api.GET("/settings", r.getSettingsHandler)
		api.PUT("/settings", r.putSettingsHandler)
	}
}
