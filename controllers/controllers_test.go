package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
	"github.com/mealbridge/delivery-app/router"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Order{},
		&models.OrderItem{},
		&models.Subscription{},
		&models.SubscriptionSkip{},
		&models.MealCustomization{},
		&models.DailyOrder{},
		&models.DeliveryTracking{},
		&models.TrackingEvent{},
		&models.Notification{},
	))

	hub := realtime.NewHub()
	tracking := services.NewTrackingService(db, hub)
	notifier := services.NewNotificationService(db, nil, nil)

	return router.SetupRouter(db, router.Services{
		Hub:        hub,
		Matching:   services.NewMatchingService(db),
		Assignment: services.NewAssignmentService(db, tracking, notifier, hub),
		Tracking:   tracking,
		Delay:      services.NewDelayService(db, hub),
		Generator:  services.NewSubscriptionGenerator(db, nil),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine, name, role string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	r := setupTestRouter(t)

	customer := registerAndLogin(t, r, "cust1", "customer")
	driver := registerAndLogin(t, r, "drv1", "driver")

	// customer places an order
	w := doJSON(t, r, http.MethodPost, "/api/orders", customer, gin.H{
		"seller_id": 99,
		"address":   "Jl. Sudirman 1",
		"items": []gin.H{
			{"name": "nasi goreng", "quantity": 2, "price": 25000},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID          uint    `json:"id"`
			TotalAmount float64 `json:"total_amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.Data.ID)
	assert.InDelta(t, 50000, created.Data.TotalAmount, 0.001)

	orderPath := fmt.Sprintf("/api/orders/%d", created.Data.ID)

	// claiming while offline is rejected
	w = doJSON(t, r, http.MethodPost, orderPath+"/claim", driver, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	// driver checks in, then claims
	w = doJSON(t, r, http.MethodPost, "/api/drivers/online", driver, gin.H{"lat": -6.2, "lng": 106.8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, orderPath+"/claim", driver, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// a second claim conflicts
	w = doJSON(t, r, http.MethodPost, orderPath+"/claim", driver, nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// tracking shows the assignment and the seeded timeline
	w = doJSON(t, r, http.MethodGet, orderPath+"/tracking", customer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var trackingResp struct {
		Data struct {
			Status   string `json:"status"`
			Timeline []struct {
				Status string `json:"status"`
			} `json:"timeline"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trackingResp))
	assert.Equal(t, "assigned", trackingResp.Data.Status)
	require.Len(t, trackingResp.Data.Timeline, 2)
	assert.Equal(t, "order_placed", trackingResp.Data.Timeline[0].Status)

	// driver walks the delivery forward
	for _, status := range []string{"picked_up", "out_for_delivery", "delivered"} {
		w = doJSON(t, r, http.MethodPatch, orderPath+"/status", driver, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// terminal: no further transitions
	w = doJSON(t, r, http.MethodPatch, orderPath+"/status", driver, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestRoutesRequireAuthAndRole(t *testing.T) {
	r := setupTestRouter(t)

	// no token
	w := doJSON(t, r, http.MethodGet, "/api/orders/1/tracking", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// customer hitting a driver-only route
	customer := registerAndLogin(t, r, "cust2", "customer")
	w = doJSON(t, r, http.MethodGet, "/api/orders/unassigned", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// admin passes every role gate
	admin := registerAndLogin(t, r, "boss", "admin")
	w = doJSON(t, r, http.MethodGet, "/api/orders/unassigned", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
