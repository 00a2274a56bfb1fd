package reservations

import (
	"net/http"

	"expopass/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	repo Repository
}

func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// GetByCode handles GET /api/v1/reservations/code/:code
func (c *Controller) GetByCode(ctx *gin.Context) {
	reservation, err := c.repo.GetByCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation retrieved", reservation, nil)
}

// ListMine handles GET /api/v1/reservations/members/:memberId
func (c *Controller) ListMine(ctx *gin.Context) {
	memberID, err := uuid.Parse(ctx.Param("memberId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid member ID", nil, err.Error())
		return
	}

	list, err := c.repo.ListByMember(ctx.Request.Context(), memberID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservations retrieved", list, nil)
}
