package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
	"github.com/mealbridge/delivery-app/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	// One writer at a time keeps in-memory sqlite honest under
	// concurrent test traffic.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
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
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedDriver(t *testing.T, db *gorm.DB, name string, rating float64, deliveries int, online bool) *models.Driver {
	t.Helper()
	user := models.User{
		Name:      name,
		Email:     name + "@example.com",
		Password:  "x",
		Role:      models.RoleDriver,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	driver := models.Driver{
		UserID:          user.ID,
		IsActive:        true,
		IsOnline:        online,
		Rating:          rating,
		TotalDeliveries: deliveries,
		Categories:      "food",
		ServiceRadiusKm: 50,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(&driver).Error; err != nil {
		t.Fatalf("seeding driver: %v", err)
	}
	driver.User = user
	return &driver
}

func seedOrder(t *testing.T, db *gorm.DB, status string) *models.Order {
	t.Helper()
	now := time.Now()
	order := models.Order{
		OrderNumber:     fmt.Sprintf("ord-%s-%d", t.Name(), time.Now().UnixNano()),
		CustomerID:      1,
		SellerID:        1,
		Category:        "food",
		Status:          status,
		TotalAmount:     120,
		DelayType:       models.DelayTypeNone,
		PreparationTime: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seeding order: %v", err)
	}
	return &order
}

func newTestStack(t *testing.T) (*gorm.DB, *realtime.Hub, *TrackingService, *AssignmentService, *DelayService) {
	t.Helper()
	db := setupTestDB(t)
	hub := realtime.NewHub()
	tracking := NewTrackingService(db, hub)
	notifier := NewNotificationService(db, nil, nil)
	assignment := NewAssignmentService(db, tracking, notifier, hub)
	delay := NewDelayService(db, hub)
	return db, hub, tracking, assignment, delay
}
