package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

type AssignmentController struct {
	DB         *gorm.DB
	Assignment *services.AssignmentService
	Matching   *services.MatchingService
}

func NewAssignmentController(db *gorm.DB, assignment *services.AssignmentService, matching *services.MatchingService) *AssignmentController {
	return &AssignmentController{DB: db, Assignment: assignment, Matching: matching}
}

func (ac *AssignmentController) driverForUser(c *gin.Context) (*models.Driver, bool) {
	userID, _ := c.Get("user_id")
	var driver models.Driver
	if err := ac.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrDriverNotFound)
		return nil, false
	}
	return &driver, true
}

// ClaimOrder -> driver takes exclusive ownership of an unassigned order
func (ac *AssignmentController) ClaimOrder(c *gin.Context) {
	driver, ok := ac.driverForUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	tracking, err := ac.Assignment.Claim(orderKind(c), uint(orderID), driver.ID, "driver")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order claimed", tracking)
}

// RejectOrder -> driver gives a claimed order back to the pool
func (ac *AssignmentController) RejectOrder(c *gin.Context) {
	driver, ok := ac.driverForUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	type ReqBody struct {
		Reason string `json:"reason"`
	}
	var body ReqBody
	_ = c.ShouldBindJSON(&body)

	if err := ac.Assignment.Reject(orderKind(c), uint(orderID), driver.ID, body.Reason); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order returned to pool", nil)
}

// ForceAssign -> admin assigns a specific driver, or lets matching pick
// one. Skips self-service eligibility but never the single-driver rule.
func (ac *AssignmentController) ForceAssign(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	type ReqBody struct {
		DriverID uint    `json:"driver_id"`
		Category string  `json:"category"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	driverID := body.DriverID
	if driverID == 0 {
		best, err := ac.Matching.FindBestDriver(body.Category, body.Lat, body.Lng, 0)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if best == nil {
			utils.RespondJSON(c, http.StatusOK, "No driver available", nil)
			return
		}
		driverID = best.ID
	}

	tracking, err := ac.Assignment.ForceClaim(orderKind(c), uint(orderID), driverID, "admin")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order assigned", tracking)
}
