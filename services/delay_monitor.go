package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
)

// DelayMonitor is the background sweep over the SLA clocks. It catches
// orders that went silently stuck: nobody called updateStatus, so no
// explicit evaluation ever ran. Each tick re-checks every non-terminal
// order past its deadline; per-order failures are logged and retried on
// the next tick.
type DelayMonitor struct {
	DB       *gorm.DB
	Delay    *DelayService
	StopChan chan struct{}
	Interval time.Duration
}

func NewDelayMonitor(db *gorm.DB, delay *DelayService) *DelayMonitor {
	return &DelayMonitor{
		DB:       db,
		Delay:    delay,
		StopChan: make(chan struct{}),
		Interval: 1 * time.Minute,
	}
}

func (m *DelayMonitor) Start() {
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
	log.Println("Delay monitor started")
}

func (m *DelayMonitor) Stop() {
	close(m.StopChan)
}

// Sweep evaluates every open order of both kinds.
func (m *DelayMonitor) Sweep() {
	m.sweepTable("orders", models.OrderKindAdhoc)
	m.sweepTable("daily_orders", models.OrderKindSubscription)
}

func (m *DelayMonitor) sweepTable(table, kind string) {
	var ids []uint
	err := m.DB.Table(table).
		Where("status NOT IN ?", []string{StatusDelivered, StatusCancelled}).
		Where("delay_type != ?", models.DelayTypeBoth).
		Pluck("id", &ids).Error
	if err != nil {
		log.Printf("delay sweep: listing %s failed: %v", table, err)
		return
	}

	for _, id := range ids {
		if _, err := m.Delay.EvaluateDelay(kind, id); err != nil {
			log.Printf("delay sweep: %s %d: %v", kind, id, err)
		}
	}
}
