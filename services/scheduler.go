package services

import (
	"log"
	"time"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/utils"
)

// ShiftScheduler fires the subscription generator at the configured
// trigger time of each shift, in the configured timezone. It carries no
// generation logic of its own; the generator stays a pure function of
// (subscriptions, date, shift).
type ShiftScheduler struct {
	Generator *SubscriptionGenerator
	StopChan  chan struct{}
	Interval  time.Duration

	loc      *time.Location
	triggers map[string]string // shift -> "15:04"
	lastRun  map[string]string // shift -> date already generated
}

func NewShiftScheduler(gen *SubscriptionGenerator, loc *time.Location, morningAt, eveningAt string) *ShiftScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ShiftScheduler{
		Generator: gen,
		StopChan:  make(chan struct{}),
		Interval:  30 * time.Second,
		loc:       loc,
		triggers: map[string]string{
			models.ShiftMorning: morningAt,
			models.ShiftEvening: eveningAt,
		},
		lastRun: make(map[string]string),
	}
}

func (s *ShiftScheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick(time.Now().In(s.loc))
			case <-s.StopChan:
				return
			}
		}
	}()
	log.Println("Shift scheduler started")
}

func (s *ShiftScheduler) Stop() {
	close(s.StopChan)
}

// tick fires each shift once per day, as soon as local time passes its
// trigger.
func (s *ShiftScheduler) tick(now time.Time) {
	date := now.Format("2006-01-02")
	clock := now.Format("15:04")

	for shift, trigger := range s.triggers {
		if trigger == "" || clock < trigger || s.lastRun[shift] == date {
			continue
		}
		s.lastRun[shift] = date
		if _, err := s.Generator.GenerateShiftOrders(date, shift); err != nil {
			utils.ErrorLogger.Printf("scheduler: %s/%s generation failed: %v", date, shift, err)
		}
	}
}
