package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
	"github.com/mealbridge/delivery-app/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewWSController(db *gorm.DB, hub *realtime.Hub) *WSController {
	return &WSController{DB: db, Hub: hub}
}

// CustomerSocket -> push channel for a customer. Subscribes the
// connection to the user channel plus any order channels passed in
// ?orders=1,2 so the client observes deliveries without polling.
func (wc *WSController) CustomerSocket(c *gin.Context) {
	userID, _ := c.Get("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := realtime.NewWSClient(conn)
	wc.Hub.Subscribe(realtime.UserChannel(userID.(uint)), client)
	for _, raw := range strings.Split(c.Query("orders"), ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && id > 0 {
			wc.Hub.Subscribe(realtime.TrackingChannel(uint(id)), client)
		}
	}

	go wc.readLoop(conn, client, nil)
}

// DriverSocket -> push channel for a driver; the read loop doubles as
// the heartbeat receiver.
func (wc *WSController) DriverSocket(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var driver models.Driver
	if err := wc.DB.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := realtime.NewWSClient(conn)
	wc.Hub.Subscribe(realtime.DriverChannel(driver.ID), client)

	go wc.readLoop(conn, client, &driver)
}

// readLoop drains incoming frames until the peer goes away. For drivers,
// a heartbeat message refreshes online liveness and gets an ack back.
func (wc *WSController) readLoop(conn *websocket.Conn, client *realtime.WSClient, driver *models.Driver) {
	defer func() {
		wc.Hub.Unsubscribe(client)
		conn.Close()
	}()

	for {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if driver != nil && msg.Event == realtime.EventHeartbeat {
			now := time.Now()
			err := wc.DB.Model(&models.Driver{}).
				Where("id = ?", driver.ID).
				Updates(map[string]interface{}{
					"is_online":         true,
					"last_heartbeat_at": now,
				}).Error
			if err != nil {
				utils.ErrorLogger.Printf("heartbeat for driver %d failed: %v", driver.ID, err)
				continue
			}
			_ = client.Send(realtime.Message{Event: realtime.EventHeartbeatAck, Data: now})
		}
	}
}
