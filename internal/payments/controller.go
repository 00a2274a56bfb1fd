package payments

import (
	"net/http"

	"expopass/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	reconciler Reconciler
}

func NewController(reconciler Reconciler) *Controller {
	return &Controller{reconciler: reconciler}
}

// CompleteImmediate handles POST /api/v1/payments/complete
func (c *Controller) CompleteImmediate(ctx *gin.Context) {
	var req CompletePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := c.reconciler.CompleteImmediate(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment completed", resp, nil)
}

// CompleteDeferred handles POST /api/v1/payments/complete-deferred
func (c *Controller) CompleteDeferred(ctx *gin.Context) {
	var req CompletePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resp, err := c.reconciler.CompleteDeferred(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusAccepted, "Payment registered, awaiting settlement", resp, nil)
}

// Webhook handles POST /api/v1/payments/webhook
func (c *Controller) Webhook(ctx *gin.Context) {
	var req WebhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.reconciler.ConfirmDeferred(ctx.Request.Context(), req.PspRef); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment settled", nil, nil)
}
