package holds

import "github.com/gin-gonic/gin"

// SetupHoldRoutes registers the checkout hold endpoint.
func SetupHoldRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/holds")
	{
		group.POST("", controller.CreateHold)
	}
}
