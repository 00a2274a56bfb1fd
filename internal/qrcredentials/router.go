package qrcredentials

import "github.com/gin-gonic/gin"

// SetupQrRoutes registers credential retrieval, reissue and the entry scan.
// Manual check-in is operator-only and mounted separately.
func SetupQrRoutes(rg *gin.RouterGroup, operator *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/qr")
	{
		group.GET("/attendees/:attendeeId", controller.GetCredential)
		group.POST("/attendees/:attendeeId", controller.Issue)
		group.POST("/attendees/:attendeeId/reissue", controller.Reissue)
		group.POST("/entry", controller.Entry)
	}

	opGroup := operator.Group("/qr")
	{
		opGroup.POST("/attendees/:attendeeId/manual", controller.ManualCheckIn)
	}
}
