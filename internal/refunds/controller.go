package refunds

import (
	"net/http"

	"expopass/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Quote handles GET /api/v1/refunds/reservations/:reservationId/quote
func (c *Controller) Quote(ctx *gin.Context) {
	reservationID, err := uuid.Parse(ctx.Param("reservationId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	quote, err := c.service.Calculate(ctx.Request.Context(), reservationID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund quote calculated", quote, nil)
}

// RefundReservation handles POST /api/v1/refunds/reservations/:reservationId
func (c *Controller) RefundReservation(ctx *gin.Context) {
	reservationID, err := uuid.Parse(ctx.Param("reservationId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	var req RefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	record, err := c.service.ExecuteReservationRefund(ctx.Request.Context(), reservationID, req.Reason)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund executed", record, nil)
}

// RequestExpoRefund handles POST /api/v1/refunds/expos/:expoId
func (c *Controller) RequestExpoRefund(ctx *gin.Context) {
	expoID, err := uuid.Parse(ctx.Param("expoId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid expo ID", nil, err.Error())
		return
	}

	var req RefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	record, err := c.service.RequestExpoRefund(ctx.Request.Context(), expoID, req.Reason)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Refund request registered", record, nil)
}

// ConfirmExpoRefund handles POST /api/v1/refunds/records/:recordId/confirm
func (c *Controller) ConfirmExpoRefund(ctx *gin.Context) {
	recordID, err := uuid.Parse(ctx.Param("recordId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid record ID", nil, err.Error())
		return
	}

	record, err := c.service.ConfirmExpoRefund(ctx.Request.Context(), recordID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund confirmed", record, nil)
}

// CreateFeeSetting handles POST /api/v1/admin/fee-settings
func (c *Controller) CreateFeeSetting(ctx *gin.Context) {
	var req CreateFeeSettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	setting, err := c.service.CreateFeeSetting(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Fee setting created", setting, nil)
}

// ListFeeSettings handles GET /api/v1/admin/fee-settings
func (c *Controller) ListFeeSettings(ctx *gin.Context) {
	settings, err := c.service.ListFeeSettings(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Fee settings retrieved", settings, nil)
}
