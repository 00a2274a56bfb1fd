package response

import (
	"net/http"

	"expopass/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps an engine error to an HTTP status and emits the standard
// envelope with its machine-readable code.
func RespondError(c *gin.Context, err error) {
	code := apperrors.Code(err)

	httpStatus := http.StatusInternalServerError
	switch code {
	case "PAYMENT_MISMATCH", "INVALID_STATE":
		httpStatus = http.StatusConflict
	case "SESSION_EXPIRED":
		httpStatus = http.StatusGone
	case "INVENTORY_EXHAUSTED":
		httpStatus = http.StatusConflict
	case "UPSTREAM_UNAVAILABLE":
		httpStatus = http.StatusBadGateway
	case "NOT_FOUND":
		httpStatus = http.StatusNotFound
	case "DUPLICATE":
		httpStatus = http.StatusConflict
	}

	c.JSON(httpStatus, StandardApiResponse{
		Status:     "error",
		StatusCode: httpStatus,
		Message:    err.Error(),
		Code:       code,
	})
}
