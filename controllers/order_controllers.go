package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

type OrderController struct {
	DB *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

// CreateOrder -> checkout glue: create an ad-hoc order in 'pending'
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, _ := c.Get("user_id")

	type ItemReq struct {
		Name     string  `json:"name" binding:"required"`
		Quantity int     `json:"quantity" binding:"required"`
		Price    float64 `json:"price" binding:"required"`
		Notes    string  `json:"notes"`
	}
	type ReqBody struct {
		SellerID    uint      `json:"seller_id" binding:"required"`
		Category    string    `json:"category"`
		Address     string    `json:"address" binding:"required"`
		PickupLat   float64   `json:"pickup_lat"`
		PickupLng   float64   `json:"pickup_lng"`
		DeliveryLat float64   `json:"delivery_lat"`
		DeliveryLng float64   `json:"delivery_lng"`
		Items       []ItemReq `json:"items" binding:"required,min=1"`
	}

	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := utils.ValidateCoordinates(body.PickupLat, body.PickupLng); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := utils.ValidateCoordinates(body.DeliveryLat, body.DeliveryLng); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := body.Category
	if category == "" {
		category = "food"
	}

	now := time.Now()
	order := models.Order{
		OrderNumber:     uuid.NewString(),
		CustomerID:      userID.(uint),
		SellerID:        body.SellerID,
		Category:        category,
		Status:          "pending",
		Address:         body.Address,
		PickupLat:       body.PickupLat,
		PickupLng:       body.PickupLng,
		DeliveryLat:     body.DeliveryLat,
		DeliveryLng:     body.DeliveryLng,
		PreparationTime: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var total float64
	for _, item := range body.Items {
		total += float64(item.Quantity) * item.Price
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Notes:     item.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	order.TotalAmount = total

	if err := oc.DB.Create(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> detail of one ad-hoc order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	idStr := c.Param("order_id")
	id, _ := strconv.Atoi(idStr)

	var order models.Order
	if err := oc.DB.Preload("OrderItems").Preload("Driver").First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, services.ErrOrderNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetUnassignedOrders -> the open pool drivers can claim from
func (oc *OrderController) GetUnassignedOrders(c *gin.Context) {
	var orders []models.Order
	err := oc.DB.
		Where("driver_id IS NULL AND status NOT IN ?", []string{"delivered", "cancelled"}).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unassigned orders", orders)
}
