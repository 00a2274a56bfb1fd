package refunds

import "github.com/gin-gonic/gin"

// SetupRefundRoutes registers buyer-facing refund endpoints plus the
// operator-only expo refund and fee schedule administration.
func SetupRefundRoutes(rg *gin.RouterGroup, operator *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/refunds")
	{
		group.GET("/reservations/:reservationId/quote", controller.Quote)
		group.POST("/reservations/:reservationId", controller.RefundReservation)
	}

	opRefunds := operator.Group("/refunds")
	{
		opRefunds.POST("/expos/:expoId", controller.RequestExpoRefund)
		opRefunds.POST("/records/:recordId/confirm", controller.ConfirmExpoRefund)
	}

	opAdmin := operator.Group("/admin")
	{
		opAdmin.POST("/fee-settings", controller.CreateFeeSetting)
		opAdmin.GET("/fee-settings", controller.ListFeeSettings)
	}
}
