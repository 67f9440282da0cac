package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
	"github.com/mealbridge/delivery-app/utils"
)

// Delivery statuses, in forward order. "cancelled" sits outside the
// forward chain and is reachable from any non-terminal state. Delay is
// a flag on the order, never a status of its own.
const (
	StatusOrderPlaced      = "order_placed"
	StatusPaymentConfirmed = "payment_confirmed"
	StatusPreparing        = "preparing"
	StatusReadyForPickup   = "ready_for_pickup"
	StatusAssigned         = "assigned"
	StatusPickedUp         = "picked_up"
	StatusOutForDelivery   = "out_for_delivery"
	StatusDelivered        = "delivered"
	StatusCancelled        = "cancelled"
)

var statusRank = map[string]int{
	StatusOrderPlaced:      0,
	StatusPaymentConfirmed: 1,
	StatusPreparing:        2,
	StatusReadyForPickup:   3,
	StatusAssigned:         4,
	StatusPickedUp:         5,
	StatusOutForDelivery:   6,
	StatusDelivered:        7,
}

var defaultDescriptions = map[string]string{
	StatusOrderPlaced:      "Order has been placed",
	StatusPaymentConfirmed: "Payment confirmed",
	StatusPreparing:        "Seller is preparing the order",
	StatusReadyForPickup:   "Order is ready for pickup",
	StatusAssigned:         "A driver has been assigned",
	StatusPickedUp:         "Driver picked up the order",
	StatusOutForDelivery:   "Order is on the way",
	StatusDelivered:        "Order delivered",
	StatusCancelled:        "Order cancelled",
}

// IsTerminalStatus reports whether no further transitions are allowed.
func IsTerminalStatus(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// ValidStatus reports whether the status belongs to the state graph.
func ValidStatus(status string) bool {
	if status == StatusCancelled {
		return true
	}
	_, ok := statusRank[status]
	return ok
}

// canTransition implements the forward-only rule: a status may only move
// to a strictly later rank, except cancelled which is reachable from any
// non-terminal state.
func canTransition(from, to string) bool {
	if IsTerminalStatus(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

type TrackingService struct {
	db  *gorm.DB
	hub *realtime.Hub
	now func() time.Time
}

func NewTrackingService(db *gorm.DB, hub *realtime.Hub) *TrackingService {
	return &TrackingService{db: db, hub: hub, now: time.Now}
}

// GetTracking loads a tracking record with its full timeline.
func (s *TrackingService) GetTracking(kind string, orderID uint) (*models.DeliveryTracking, error) {
	if _, err := TableForKind(kind); err != nil {
		return nil, err
	}
	var tracking models.DeliveryTracking
	err := s.db.
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Driver").
		Where("order_id = ? AND order_kind = ?", orderID, kind).
		First(&tracking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

// UpdateStatus moves the tracking record forward and mirrors the status
// onto the owning order row. A repeat of the last recorded status is a
// no-op so location-driven pings never spam the timeline. Returns the
// record with its timeline after the change.
func (s *TrackingService) UpdateStatus(kind string, orderID uint, newStatus, note string, lat, lng *float64) (*models.DeliveryTracking, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	var row deliveryRow
	if err := s.db.Table(table).Where("id = ?", orderID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	now := s.now()
	var duplicate bool

	err = s.db.Transaction(func(tx *gorm.DB) error {
		tracking, err := s.ensureTracking(tx, kind, orderID, row.DriverID, row.CreatedAt)
		if err != nil {
			return err
		}

		if tracking.Status == newStatus {
			// Idempotent log: nothing to append.
			duplicate = true
			return nil
		}
		if !canTransition(tracking.Status, newStatus) {
			return ErrInvalidStateTransition
		}

		// Conditional update on the previous status serializes
		// concurrent writers without a database-specific row lock.
		res := tx.Model(&models.DeliveryTracking{}).
			Where("id = ? AND status = ?", tracking.ID, tracking.Status).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: concurrent status change", ErrInvalidStateTransition)
		}

		if err := s.appendEvent(tx, tracking.ID, newStatus, note, lat, lng, now); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":     newStatus,
			"updated_at": now,
		}
		// Milestone timestamps are stamped exactly once.
		switch newStatus {
		case StatusReadyForPickup:
			updates["ready_for_pickup_at"] = gorm.Expr("COALESCE(ready_for_pickup_at, ?)", now)
		case StatusPickedUp:
			updates["picked_up_at"] = gorm.Expr("COALESCE(picked_up_at, ?)", now)
		case StatusDelivered:
			updates["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", now)
		}
		if err := tx.Table(table).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return err
		}

		if newStatus == StatusDelivered && tracking.DriverID != nil {
			if err := tx.Model(&models.Driver{}).
				Where("id = ?", *tracking.DriverID).
				UpdateColumn("total_deliveries", gorm.Expr("total_deliveries + 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracking, err := s.GetTracking(kind, orderID)
	if err != nil {
		return nil, err
	}

	if !duplicate {
		s.broadcastStatus(tracking, row.CustomerID)
	}
	return tracking, nil
}

// UpdateLocation overwrites the last known point on the tracking record
// and broadcasts it. Locations never touch the timeline; they are
// liveness signals, not state transitions.
func (s *TrackingService) UpdateLocation(kind string, orderID, driverID uint, lat, lng float64) error {
	if _, err := TableForKind(kind); err != nil {
		return err
	}
	if err := utils.ValidateCoordinates(lat, lng); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.now()
	res := s.db.Model(&models.DeliveryTracking{}).
		Where("order_id = ? AND order_kind = ?", orderID, kind).
		Updates(map[string]interface{}{
			"current_lat": lat,
			"current_lng": lng,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	payload := map[string]interface{}{
		"order_id":  orderID,
		"driver_id": driverID,
		"location":  map[string]float64{"lat": lat, "lng": lng},
		"timestamp": now,
	}
	msg := realtime.Message{Event: realtime.EventLocationUpdate, Data: payload}
	s.hub.Publish(realtime.TrackingChannel(orderID), msg)
	s.hub.Publish(realtime.DriverChannel(driverID), msg)
	return nil
}

// ensureTracking is the idempotent upsert keyed by (order, kind). A new
// record gets its timeline seeded with an order_placed entry backfilled
// from the order creation time.
func (s *TrackingService) ensureTracking(tx *gorm.DB, kind string, orderID uint, driverID *uint, createdAt time.Time) (*models.DeliveryTracking, error) {
	var tracking models.DeliveryTracking
	err := tx.Where("order_id = ? AND order_kind = ?", orderID, kind).First(&tracking).Error
	if err == nil {
		return &tracking, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	tracking = models.DeliveryTracking{
		OrderID:   orderID,
		OrderKind: kind,
		Status:    StatusOrderPlaced,
		DriverID:  driverID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(&tracking).Error; err != nil {
		return nil, err
	}
	if err := s.appendEvent(tx, tracking.ID, StatusOrderPlaced, "", nil, nil, createdAt); err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (s *TrackingService) appendEvent(tx *gorm.DB, trackingID uint, status, note string, lat, lng *float64, at time.Time) error {
	desc := note
	if desc == "" {
		desc = defaultDescriptions[status]
	}
	event := models.TrackingEvent{
		TrackingID:  trackingID,
		Status:      status,
		Description: desc,
		Lat:         lat,
		Lng:         lng,
		CreatedAt:   at,
	}
	return tx.Create(&event).Error
}

func (s *TrackingService) broadcastStatus(tracking *models.DeliveryTracking, customerID uint) {
	msg := realtime.Message{
		Event: realtime.EventStatusUpdate,
		Data: map[string]interface{}{
			"status":   tracking.Status,
			"timeline": tracking.Timeline,
			"driver":   tracking.Driver,
		},
	}
	s.hub.Publish(realtime.TrackingChannel(tracking.OrderID), msg)
	s.hub.Publish(realtime.UserChannel(customerID), msg)
	if tracking.DriverID != nil {
		s.hub.Publish(realtime.DriverChannel(*tracking.DriverID), msg)
	}
}
