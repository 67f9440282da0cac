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

type TrackingController struct {
	DB       *gorm.DB
	Tracking *services.TrackingService
	Delay    *services.DelayService
}

func NewTrackingController(db *gorm.DB, tracking *services.TrackingService, delay *services.DelayService) *TrackingController {
	return &TrackingController{DB: db, Tracking: tracking, Delay: delay}
}

// GetTracking -> tracking record with full timeline
func (tc *TrackingController) GetTracking(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	tracking, err := tc.Tracking.GetTracking(orderKind(c), uint(orderID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tracking detail", tracking)
}

// UpdateStatus -> move the delivery state machine forward
func (tc *TrackingController) UpdateStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	type ReqBody struct {
		Status string   `json:"status" binding:"required"`
		Note   string   `json:"note"`
		Lat    *float64 `json:"lat"`
		Lng    *float64 `json:"lng"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	kind := orderKind(c)
	tracking, err := tc.Tracking.UpdateStatus(kind, uint(orderID), body.Status, body.Note, body.Lat, body.Lng)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Delay accounting is compliance bookkeeping: it never blocks the
	// transition that triggered it.
	if body.Status == services.StatusReadyForPickup || body.Status == services.StatusPickedUp {
		if _, err := tc.Delay.EvaluateDelay(kind, uint(orderID)); err != nil {
			utils.ErrorLogger.Printf("delay evaluation for %s %d failed: %v", kind, orderID, err)
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Status updated", tracking)
}

// UpdateLocation -> driver position ping for one order
func (tc *TrackingController) UpdateLocation(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	userID, _ := c.Get("user_id")
	var driver models.Driver
	if err := tc.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrDriverNotFound)
		return
	}

	type ReqBody struct {
		Lat float64 `json:"lat" binding:"required"`
		Lng float64 `json:"lng" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.Tracking.UpdateLocation(orderKind(c), uint(orderID), driver.ID, body.Lat, body.Lng); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Location updated", nil)
}

// EvaluateDelay -> on-demand SLA check for one order
func (tc *TrackingController) EvaluateDelay(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid order id"))
		return
	}

	result, err := tc.Delay.EvaluateDelay(orderKind(c), uint(orderID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Delay evaluation", result)
}
