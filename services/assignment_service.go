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

// AssignmentService owns the exactly-one-driver-per-order invariant.
// Claims race through a conditional UPDATE on the driver column, so two
// concurrent claims can never both win regardless of how many service
// instances share the store.
type AssignmentService struct {
	db       *gorm.DB
	tracking *TrackingService
	notifier *NotificationService
	hub      *realtime.Hub
	now      func() time.Time
}

func NewAssignmentService(db *gorm.DB, tracking *TrackingService, notifier *NotificationService, hub *realtime.Hub) *AssignmentService {
	return &AssignmentService{
		db:       db,
		tracking: tracking,
		notifier: notifier,
		hub:      hub,
		now:      time.Now,
	}
}

// Claim takes exclusive ownership of an unassigned order for a driver.
// Self-service claims require the driver to be active and online.
func (s *AssignmentService) Claim(kind string, orderID, driverID uint, claimedBy string) (*models.DeliveryTracking, error) {
	return s.claim(kind, orderID, driverID, claimedBy, false)
}

// ForceClaim is the admin path: it skips the driver's self-service
// eligibility (online flag) but follows the identical single-assignment
// invariant.
func (s *AssignmentService) ForceClaim(kind string, orderID, driverID uint, claimedBy string) (*models.DeliveryTracking, error) {
	return s.claim(kind, orderID, driverID, claimedBy, true)
}

func (s *AssignmentService) claim(kind string, orderID, driverID uint, claimedBy string, forced bool) (*models.DeliveryTracking, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}

	var driver models.Driver
	if err := s.db.Preload("User").First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	if !driver.IsActive {
		return nil, ErrInactiveDriver
	}
	if !forced && !driver.IsOnline {
		return nil, ErrInactiveDriver
	}

	now := s.now()
	var row deliveryRow

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Atomic conditional write: only an unassigned, still-live row is
		// claimed.
		res := tx.Table(table).
			Where("id = ? AND driver_id IS NULL", orderID).
			Where("status NOT IN ?", []string{StatusDelivered, StatusCancelled}).
			Updates(map[string]interface{}{"driver_id": driverID, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Table(table).Where("id = ?", orderID).Take(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrOrderNotFound
				}
				return err
			}
			if row.isTerminal() {
				return fmt.Errorf("%w: order is %s", ErrInvalidStateTransition, row.Status)
			}
			return ErrAlreadyAssigned
		}

		if err := tx.Table(table).Where("id = ?", orderID).Take(&row).Error; err != nil {
			return err
		}

		// pending orders move toward assigned; later statuses keep theirs.
		if row.Status == "pending" {
			if err := tx.Table(table).Where("id = ?", orderID).
				Updates(map[string]interface{}{"status": StatusAssigned}).Error; err != nil {
				return err
			}
			row.Status = StatusAssigned
		}

		tracking, err := s.tracking.ensureTracking(tx, kind, orderID, &driverID, row.CreatedAt)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"driver_id": driverID, "updated_at": now}
		if canTransition(tracking.Status, StatusAssigned) {
			updates["status"] = StatusAssigned
		}
		if err := tx.Model(&models.DeliveryTracking{}).Where("id = ?", tracking.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if tracking.Status != StatusAssigned {
			desc := fmt.Sprintf("Assigned to driver %s by %s", driver.User.Name, claimedBy)
			if err := s.tracking.appendEvent(tx, tracking.ID, StatusAssigned, desc, nil, nil, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracking, err := s.tracking.GetTracking(kind, orderID)
	if err != nil {
		return nil, err
	}

	// Best-effort side effects; the claim is already committed.
	go s.notifier.Notify(&driver.User, "New delivery assigned",
		fmt.Sprintf("Order #%d has been assigned to you", orderID),
		map[string]interface{}{"order_id": orderID, "order_kind": kind})

	payload := map[string]interface{}{
		"order_id": orderID,
		"driver":   driver,
		"status":   tracking.Status,
		"timeline": tracking.Timeline,
		"message":  fmt.Sprintf("Driver %s is handling your order", driver.User.Name),
	}
	msg := realtime.Message{Event: realtime.EventDriverAssigned, Data: payload}
	s.hub.Publish(realtime.TrackingChannel(orderID), msg)
	s.hub.Publish(realtime.UserChannel(row.CustomerID), msg)
	s.hub.Publish(realtime.DriverChannel(driverID), msg)

	return tracking, nil
}

// Reject lets the assigned driver give the order back. The assignment is
// cleared atomically and the order returns to the unassigned pool; the
// timeline keeps its history untouched.
func (s *AssignmentService) Reject(kind string, orderID, driverID uint, reason string) error {
	table, err := TableForKind(kind)
	if err != nil {
		return err
	}

	var row deliveryRow
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Once the driver holds the goods the order can no longer be
		// returned to the pool.
		res := tx.Table(table).
			Where("id = ? AND driver_id = ?", orderID, driverID).
			Where("status NOT IN ?", []string{StatusPickedUp, StatusOutForDelivery, StatusDelivered, StatusCancelled}).
			Updates(map[string]interface{}{
				"driver_id":  nil,
				"status":     "pending",
				"updated_at": s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Table(table).Where("id = ?", orderID).Take(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrOrderNotFound
				}
				return err
			}
			return ErrNotAssigned
		}

		return tx.Model(&models.DeliveryTracking{}).
			Where("order_id = ? AND order_kind = ?", orderID, kind).
			Update("driver_id", nil).Error
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.Printf("driver %d rejected order %d (%s): %s", driverID, orderID, kind, reason)
	s.hub.Publish(realtime.TrackingChannel(orderID), realtime.Message{
		Event: realtime.EventStatusUpdate,
		Data: map[string]interface{}{
			"order_id": orderID,
			"message":  "Looking for a new driver",
		},
	})
	return nil
}
