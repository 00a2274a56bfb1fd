package expos

import "github.com/gin-gonic/gin"

// SetupExpoRoutes registers public listing reads and operator-only lifecycle
// transitions.
func SetupExpoRoutes(rg *gin.RouterGroup, operator *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/expos")
	{
		group.GET("/:expoId", controller.GetExpo)
	}

	opGroup := operator.Group("/admin")
	{
		opGroup.PATCH("/expos/:expoId/status", controller.TransitionExpo)
		opGroup.PATCH("/advertisements/:adId/status", controller.TransitionAdvertisement)
	}
}
