package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/controllers"
	"github.com/mealbridge/delivery-app/middlewares"
	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
	"github.com/mealbridge/delivery-app/services"
)

// Services bundles everything the routes depend on.
type Services struct {
	Hub        *realtime.Hub
	Matching   *services.MatchingService
	Assignment *services.AssignmentService
	Tracking   *services.TrackingService
	Delay      *services.DelayService
	Generator  *services.SubscriptionGenerator
}

func SetupRouter(db *gorm.DB, deps Services) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	orderCtrl := controllers.NewOrderController(db)
	driverCtrl := controllers.NewDriverController(db, deps.Matching)
	assignCtrl := controllers.NewAssignmentController(db, deps.Assignment, deps.Matching)
	trackCtrl := controllers.NewTrackingController(db, deps.Tracking, deps.Delay)
	subCtrl := controllers.NewSubscriptionController(db, deps.Generator)
	wsCtrl := controllers.NewWSController(db, deps.Hub)

	r.POST("/auth/register", middlewares.NewStrictRateLimiter(), userCtrl.Register)
	r.POST("/auth/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	api := r.Group("/api", middlewares.AuthMiddleware())
	{
		orders := api.Group("/orders")
		{
			orders.POST("", middlewares.RequireRole(models.RoleCustomer), orderCtrl.CreateOrder)
			orders.GET("/unassigned", middlewares.RequireRole(models.RoleDriver), orderCtrl.GetUnassignedOrders)
			orders.GET("/:order_id", orderCtrl.GetOrderByID)

			orders.POST("/:order_id/claim", middlewares.RequireRole(models.RoleDriver), assignCtrl.ClaimOrder)
			orders.POST("/:order_id/reject", middlewares.RequireRole(models.RoleDriver), assignCtrl.RejectOrder)
			orders.POST("/:order_id/assign", middlewares.RequireRole(models.RoleAdmin), assignCtrl.ForceAssign)

			orders.GET("/:order_id/tracking", trackCtrl.GetTracking)
			orders.PATCH("/:order_id/status", middlewares.RequireRole(models.RoleSeller, models.RoleDriver), trackCtrl.UpdateStatus)
			orders.POST("/:order_id/location", middlewares.RequireRole(models.RoleDriver), trackCtrl.UpdateLocation)
			orders.GET("/:order_id/delay", trackCtrl.EvaluateDelay)
		}

		drivers := api.Group("/drivers")
		{
			drivers.POST("/online", middlewares.RequireRole(models.RoleDriver), driverCtrl.GoOnline)
			drivers.POST("/offline", middlewares.RequireRole(models.RoleDriver), driverCtrl.GoOffline)
			drivers.POST("/location", middlewares.RequireRole(models.RoleDriver), driverCtrl.UpdateDriverLocation)
			drivers.GET("/match", middlewares.RequireRole(models.RoleSeller, models.RoleAdmin), driverCtrl.FindBestDriver)
			drivers.GET("/:driver_id", driverCtrl.GetDriver)
		}

		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.POST("/generate", middlewares.RequireRole(models.RoleAdmin), subCtrl.GenerateShiftOrders)
			subscriptions.POST("/skip", middlewares.RequireRole(models.RoleCustomer), subCtrl.CreateSkip)
			subscriptions.GET("/daily-orders", middlewares.RequireRole(models.RoleSeller, models.RoleAdmin), subCtrl.ListDailyOrders)
		}
	}

	ws := r.Group("/ws", middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("/customer", wsCtrl.CustomerSocket)
		ws.GET("/driver", wsCtrl.DriverSocket)
	}

	return r
}
