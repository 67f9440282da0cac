package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

var ErrNoPermission = errors.New("you don't have permission to access this resource")

// respondServiceError maps the service taxonomy onto HTTP codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrDriverNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrAlreadyAssigned),
		errors.Is(err, services.ErrNotAssigned),
		errors.Is(err, services.ErrInvalidStateTransition):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrInactiveDriver):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, services.ErrValidation):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// orderKind reads the kind query param, defaulting to ad-hoc orders.
func orderKind(c *gin.Context) string {
	kind := c.Query("kind")
	if kind == "" {
		return models.OrderKindAdhoc
	}
	return kind
}
