// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"slotly/internal/admin"
	"slotly/internal/shared/config"
	"slotly/internal/shared/database"
	"slotly/internal/slots"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config  *config.Config
	db      *database.DB
	service slots.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, service slots.Service) *Router {
	return &Router{
		config:  cfg,
		db:      db,
		service: service,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// Custom binding rules must exist before the DTOs that use them.
	admin.RegisterValidators()

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupSlotRoutes(api)
		r.setupAdminRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "slotly",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "slotly",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupSlotRoutes configures the public admission routes
func (r *Router) setupSlotRoutes(rg *gin.RouterGroup) {
	slotController := slots.NewController(r.service)
	slots.SetupSlotRoutes(rg, slotController)
}

// setupAdminRoutes configures the operator routes
func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	adminController := admin.NewController(r.service, r.config)
	admin.SetupAdminRoutes(rg, adminController, r.config)
}
