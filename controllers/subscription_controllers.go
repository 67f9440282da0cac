package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

type SubscriptionController struct {
	DB        *gorm.DB
	Generator *services.SubscriptionGenerator
}

func NewSubscriptionController(db *gorm.DB, generator *services.SubscriptionGenerator) *SubscriptionController {
	return &SubscriptionController{DB: db, Generator: generator}
}

// GenerateShiftOrders -> admin trigger for the batch, same entry point
// the scheduler uses
func (sc *SubscriptionController) GenerateShiftOrders(c *gin.Context) {
	type ReqBody struct {
		Date  string `json:"date" binding:"required"`
		Shift string `json:"shift" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orders, err := sc.Generator.GenerateShiftOrders(body.Date, body.Shift)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Shift orders generated", orders)
}

// CreateSkip -> customer skips one date+shift of their subscription
func (sc *SubscriptionController) CreateSkip(c *gin.Context) {
	userID, _ := c.Get("user_id")

	type ReqBody struct {
		SubscriptionID uint   `json:"subscription_id" binding:"required"`
		Date           string `json:"date" binding:"required"`
		Shift          string `json:"shift" binding:"required"`
		Reason         string `json:"reason"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var sub models.Subscription
	if err := sc.DB.First(&sub, body.SubscriptionID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrSubscriptionNotFound)
		return
	}
	if sub.CustomerID != userID.(uint) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	skip := models.SubscriptionSkip{
		SubscriptionID: body.SubscriptionID,
		Date:           body.Date,
		Shift:          body.Shift,
		Reason:         body.Reason,
		CreatedAt:      time.Now(),
	}
	if err := sc.DB.Create(&skip).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Shift skipped", skip)
}

// ListDailyOrders -> daily orders for a date, optionally one shift
func (sc *SubscriptionController) ListDailyOrders(c *gin.Context) {
	date := c.Query("date")
	shift := c.Query("shift")

	query := sc.DB.Preload("Driver").Order("created_at asc")
	if date != "" {
		query = query.Where("date = ?", date)
	}
	if shift != "" {
		query = query.Where("shift = ?", shift)
	}

	var orders []models.DailyOrder
	if err := query.Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily orders", orders)
}
