package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/config"
	"github.com/mealbridge/delivery-app/middlewares"
	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
	"github.com/mealbridge/delivery-app/router"
	"github.com/mealbridge/delivery-app/services"
	"github.com/mealbridge/delivery-app/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InfoLogger = logrus.New()
	utils.ErrorLogger = logrus.New()

	utils.InfoLogger.SetOutput(os.Stdout)
	utils.ErrorLogger.SetOutput(os.Stderr)

	utils.InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
	utils.ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
}

func main() {
	cfg := config.Load()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Realtime hub; the Redis backplane keeps hubs on other instances in
	// sync when REDIS_ADDR is configured.
	hub := realtime.NewHub()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		realtime.NewRedisBackplane(rdb).Attach(context.Background(), hub)
		utils.InfoLogger.Printf("Redis backplane attached (%s)", cfg.RedisAddr)
	}

	loc := cfg.Location()

	notifier := services.NewNotificationService(db, nil, nil)
	matching := services.NewMatchingService(db)
	tracking := services.NewTrackingService(db, hub)
	assignment := services.NewAssignmentService(db, tracking, notifier, hub)
	delay := services.NewDelayService(db, hub)
	generator := services.NewSubscriptionGenerator(db, loc)

	delayMonitor := services.NewDelayMonitor(db, delay)
	delayMonitor.Start()
	defer delayMonitor.Stop()

	heartbeatMonitor := services.NewHeartbeatMonitor(db)
	heartbeatMonitor.Start()
	defer heartbeatMonitor.Stop()

	scheduler := services.NewShiftScheduler(generator, loc, cfg.MorningTriggerAt, cfg.EveningTriggerAt)
	scheduler.Start()
	defer scheduler.Stop()

	r := router.SetupRouter(db, router.Services{
		Hub:        hub,
		Matching:   matching,
		Assignment: assignment,
		Tracking:   tracking,
		Delay:      delay,
		Generator:  generator,
	})

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
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
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
