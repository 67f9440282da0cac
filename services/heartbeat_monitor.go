package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
)

// HeartbeatMonitor flips drivers offline after a silence window. The
// websocket heartbeat refreshes last_heartbeat_at; a driver whose
// connection died without a clean disconnect stops matching once the
// window elapses.
type HeartbeatMonitor struct {
	DB       *gorm.DB
	StopChan chan struct{}
	Interval time.Duration
	Window   time.Duration
}

func NewHeartbeatMonitor(db *gorm.DB) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		DB:       db,
		StopChan: make(chan struct{}),
		Interval: 30 * time.Second,
		Window:   2 * time.Minute,
	}
}

func (m *HeartbeatMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-m.StopChan:
				return
			}
		}
	}()
	log.Println("Heartbeat monitor started")
}

func (m *HeartbeatMonitor) Stop() {
	close(m.StopChan)
}

func (m *HeartbeatMonitor) Sweep() {
	cutoff := time.Now().Add(-m.Window)
	res := m.DB.Model(&models.Driver{}).
		Where("is_online = ?", true).
		Where("last_heartbeat_at IS NULL OR last_heartbeat_at < ?", cutoff).
		Update("is_online", false)
	if res.Error != nil {
		log.Printf("heartbeat sweep failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("heartbeat sweep: %d drivers flipped offline", res.RowsAffected)
	}
}
