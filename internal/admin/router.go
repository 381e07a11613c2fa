package admin

import (
	"slotly/internal/shared/config"
	"slotly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes mounts the operator surface. Everything except
// login sits behind the admin token middleware.
func SetupAdminRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	adminGroup := rg.Group("/admin")
	adminGroup.POST("/login", controller.Login) // POST /api/v1/admin/login

	protected := adminGroup.Group("")
	protected.Use(middleware.AdminAuth(cfg))
	{
		// Counters
		protected.GET("/slots", controller.GetProducts)                                   // GET    /api/v1/admin/slots
		protected.POST("/slots/reset", controller.ResetAllCounters)                       // POST   /api/v1/admin/slots/reset
		protected.POST("/slots/:product/reset", controller.ResetCounters)                 // POST   /api/v1/admin/slots/:product/reset
		protected.PUT("/slots/availability", controller.SetAvailabilityAll)               // PUT    /api/v1/admin/slots/availability
		protected.PUT("/slots/:product/availability", controller.SetAvailability)         // PUT    /api/v1/admin/slots/:product/availability
		protected.PUT("/slots/:product/regular-max", controller.SetRegularMax)            // PUT    /api/v1/admin/slots/:product/regular-max
		protected.PUT("/slots/:product/regular-count", controller.SetRegularCount)        // PUT    /api/v1/admin/slots/:product/regular-count
		protected.PUT("/slots/:product/extra-max", controller.SetExtraMax)                // PUT    /api/v1/admin/slots/:product/extra-max
		protected.PUT("/slots/:product/extra-base-price", controller.SetExtraBasePrice)   // PUT    /api/v1/admin/slots/:product/extra-base-price
		protected.PUT("/slots/:product/extra-count", controller.SetExtraCount)            // PUT    /api/v1/admin/slots/:product/extra-count

		// Access control
		protected.GET("/access", controller.GetAccessState)                  // GET    /api/v1/admin/access
		protected.POST("/access/test-mode", controller.SetTestMode)          // POST   /api/v1/admin/access/test-mode
		protected.POST("/access/whitelist-mode", controller.SetWhitelistMode) // POST  /api/v1/admin/access/whitelist-mode
		protected.POST("/access/whitelist", controller.AddWhitelist)         // POST   /api/v1/admin/access/whitelist
		protected.DELETE("/access/whitelist/:id", controller.RemoveWhitelist) // DELETE /api/v1/admin/access/whitelist/:id
		protected.POST("/access/bans", controller.BanClaimant)               // POST   /api/v1/admin/access/bans
		protected.DELETE("/access/bans/:id", controller.UnbanClaimant)       // DELETE /api/v1/admin/access/bans/:id

		// Availability schedule
		protected.GET("/schedule", controller.GetSchedule)                       // GET /api/v1/admin/schedule
		protected.PUT("/schedule/weekday", controller.UpdateWeekdaySchedule)     // PUT /api/v1/admin/schedule/weekday
		protected.PUT("/schedule/weekend", controller.UpdateWeekendSchedule)     // PUT /api/v1/admin/schedule/weekend

		// Timer
		protected.POST("/timer/reset", controller.ForceTimerReset) // POST /api/v1/admin/timer/reset
	}
}
