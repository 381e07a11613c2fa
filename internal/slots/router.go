package slots

import (
	"github.com/gin-gonic/gin"
)

// SetupSlotRoutes configures the public admission surface.
func SetupSlotRoutes(rg *gin.RouterGroup, controller *Controller) {
	slots := rg.Group("/slots")
	{
		slots.GET("/:product/availability", controller.GetAvailability) // GET  /api/v1/slots/:product/availability
		slots.POST("/reserve", controller.Reserve)                      // POST /api/v1/slots/reserve
		slots.POST("/release", controller.Release)                      // POST /api/v1/slots/release
		slots.POST("/confirm", controller.Confirm)                      // POST /api/v1/slots/confirm
	}
}
