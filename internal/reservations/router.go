package reservations

import "github.com/gin-gonic/gin"

// SetupReservationRoutes registers reservation lookups.
func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/reservations")
	{
		group.GET("/code/:code", controller.GetByCode)
		group.GET("/members/:memberId", controller.ListMine)
	}
}
