package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

type DriverController struct {
	DB       *gorm.DB
	Matching *services.MatchingService
}

func NewDriverController(db *gorm.DB, matching *services.MatchingService) *DriverController {
	return &DriverController{DB: db, Matching: matching}
}

// driverForUser resolves the driver profile of the authenticated user.
func (dc *DriverController) driverForUser(c *gin.Context) (*models.Driver, bool) {
	userID, _ := c.Get("user_id")
	var driver models.Driver
	if err := dc.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrDriverNotFound)
		return nil, false
	}
	return &driver, true
}

// GoOnline -> driver checks in for work, optionally reporting position
func (dc *DriverController) GoOnline(c *gin.Context) {
	driver, ok := dc.driverForUser(c)
	if !ok {
		return
	}

	type ReqBody struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	// Body is optional; going online without a position is allowed.
	var body ReqBody
	_ = c.ShouldBindJSON(&body)

	now := time.Now()
	updates := map[string]interface{}{
		"is_online":         true,
		"last_heartbeat_at": now,
		"updated_at":        now,
	}
	if body.Lat != nil && body.Lng != nil {
		if err := utils.ValidateCoordinates(*body.Lat, *body.Lng); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		updates["last_lat"] = *body.Lat
		updates["last_lng"] = *body.Lng
	}

	if err := dc.DB.Model(driver).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Driver is online", driver)
}

// GoOffline -> driver checks out
func (dc *DriverController) GoOffline(c *gin.Context) {
	driver, ok := dc.driverForUser(c)
	if !ok {
		return
	}
	if err := dc.DB.Model(driver).Update("is_online", false).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Driver is offline", nil)
}

// UpdateDriverLocation -> position ping, doubles as a liveness signal
func (dc *DriverController) UpdateDriverLocation(c *gin.Context) {
	driver, ok := dc.driverForUser(c)
	if !ok {
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
	if err := utils.ValidateCoordinates(body.Lat, body.Lng); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	err := dc.DB.Model(driver).Updates(map[string]interface{}{
		"last_lat":          body.Lat,
		"last_lng":          body.Lng,
		"last_heartbeat_at": now,
		"updated_at":        now,
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Location updated", nil)
}

// FindBestDriver -> score and rank candidates for a pickup point
func (dc *DriverController) FindBestDriver(c *gin.Context) {
	category := c.Query("category")
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("lat and lng are required"))
		return
	}
	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius", "0"), 64)

	driver, err := dc.Matching.FindBestDriver(category, lat, lng, radius)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if driver == nil {
		utils.RespondJSON(c, http.StatusOK, "No driver available", nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Best driver", driver)
}

// GetDriver -> driver profile with user preloaded
func (dc *DriverController) GetDriver(c *gin.Context) {
	id := c.Param("driver_id")

	var driver models.Driver
	if err := dc.DB.Preload("User").First(&driver, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrDriverNotFound)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Driver detail", driver)
}
