package qrcredentials

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

type entryRequest struct {
	Token string `json:"token" binding:"required"`
}

// GetCredential handles GET /api/v1/qr/attendees/:attendeeId
func (c *Controller) GetCredential(ctx *gin.Context) {
	attendeeID, err := uuid.Parse(ctx.Param("attendeeId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid attendee ID", nil, err.Error())
		return
	}

	credential, err := c.service.GetByAttendee(ctx.Request.Context(), attendeeID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Credential retrieved", credential, nil)
}

// Issue handles POST /api/v1/qr/attendees/:attendeeId. Issuance normally
// happens automatically at confirmation; this endpoint covers the retry case
// when that best-effort step failed.
func (c *Controller) Issue(ctx *gin.Context) {
	attendeeID, err := uuid.Parse(ctx.Param("attendeeId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid attendee ID", nil, err.Error())
		return
	}

	credential, err := c.service.Issue(ctx.Request.Context(), attendeeID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Credential issued", credential, nil)
}

// Reissue handles POST /api/v1/qr/attendees/:attendeeId/reissue
func (c *Controller) Reissue(ctx *gin.Context) {
	attendeeID, err := uuid.Parse(ctx.Param("attendeeId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid attendee ID", nil, err.Error())
		return
	}

	credential, err := c.service.Reissue(ctx.Request.Context(), attendeeID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Credential reissued", credential, nil)
}

// Entry handles POST /api/v1/qr/entry
func (c *Controller) Entry(ctx *gin.Context) {
	var req entryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	applied, err := c.service.MarkUsed(ctx.Request.Context(), req.Token)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	if !applied {
		response.RespondJSON(ctx, "success", http.StatusOK, "Entry not applied", gin.H{"applied": false}, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Entry recorded", gin.H{"applied": true}, nil)
}

// ManualCheckIn handles POST /api/v1/qr/attendees/:attendeeId/manual
func (c *Controller) ManualCheckIn(ctx *gin.Context) {
	attendeeID, err := uuid.Parse(ctx.Param("attendeeId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid attendee ID", nil, err.Error())
		return
	}

	credential, err := c.service.ManualCheckIn(ctx.Request.Context(), attendeeID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Manual check-in recorded", credential, nil)
}
