package expos

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

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetExpo handles GET /api/v1/expos/:expoId
func (c *Controller) GetExpo(ctx *gin.Context) {
	expoID, err := uuid.Parse(ctx.Param("expoId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid expo ID", nil, err.Error())
		return
	}

	expo, err := c.service.GetExpo(ctx.Request.Context(), expoID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Expo retrieved", expo, nil)
}

// TransitionExpo handles PATCH /api/v1/admin/expos/:expoId/status
func (c *Controller) TransitionExpo(ctx *gin.Context) {
	expoID, err := uuid.Parse(ctx.Param("expoId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid expo ID", nil, err.Error())
		return
	}

	var req transitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.service.TransitionExpo(ctx.Request.Context(), expoID, Status(req.Status)); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Expo status updated", nil, nil)
}

// TransitionAdvertisement handles PATCH /api/v1/admin/advertisements/:adId/status
func (c *Controller) TransitionAdvertisement(ctx *gin.Context) {
	adID, err := uuid.Parse(ctx.Param("adId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid advertisement ID", nil, err.Error())
		return
	}

	var req transitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.service.TransitionAdvertisement(ctx.Request.Context(), adID, AdStatus(req.Status)); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Advertisement status updated", nil, nil)
}
