package realtime

import "fmt"

// Event types
const (
	EventDriverAssigned = "driver-assigned-realtime"
	EventStatusUpdate   = "status-update"
	EventLocationUpdate = "location-update"
	EventDelayUpdate    = "delay-update"
	EventHeartbeat      = "heartbeat"
	EventHeartbeatAck   = "heartbeat-ack"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Channel families. Every mutation publishes to the channels of the
// parties that care about it: the order watchers, the customer, the driver.
func TrackingChannel(orderID uint) string {
	return fmt.Sprintf("tracking-%d", orderID)
}

func UserChannel(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

func DriverChannel(driverID uint) string {
	return fmt.Sprintf("driver-%d", driverID)
}
