package payments

import "github.com/gin-gonic/gin"

// SetupPaymentRoutes registers both completion paths and the PSP webhook.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/payments")
	{
		group.POST("/complete", controller.CompleteImmediate)
		group.POST("/complete-deferred", controller.CompleteDeferred)
		group.POST("/webhook", controller.Webhook)
	}
}
