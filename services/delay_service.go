package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/realtime"
)

// SLA clocks. Sellers get a fixed grace after the preparation time
// (ad-hoc) or must be ready a fixed buffer before the scheduled delivery
// (subscriptions). Drivers get a fixed pickup window once the order is
// ready.
const (
	PrepGrace       = 25 * time.Minute
	ScheduledCutoff = 20 * time.Minute
	PickupWindow    = 10 * time.Minute
)

type DelayResult struct {
	IsDelayed     bool    `json:"is_delayed"`
	DelayType     string  `json:"delay_type"`
	PenaltyAmount float64 `json:"penalty_amount"`
}

type DelayService struct {
	db  *gorm.DB
	hub *realtime.Hub
	now func() time.Time
}

func NewDelayService(db *gorm.DB, hub *realtime.Hub) *DelayService {
	return &DelayService{db: db, hub: hub, now: time.Now}
}

// EvaluateDelay runs both SLA clocks against one order. Each fault is
// recorded at most once; the delay type only widens (seller -> both),
// never narrows. Safe to call repeatedly, from a status transition or
// from the background sweep.
func (s *DelayService) EvaluateDelay(kind string, orderID uint) (*DelayResult, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}

	var row deliveryRow
	if err := s.db.Table(table).Where("id = ?", orderID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	// Cancelled orders accrue no faults. Delivered orders are still
	// evaluated: their milestone timestamps are frozen, so the clocks
	// settle any fault recorded late.
	if row.Status == StatusCancelled {
		return s.result(&row), nil
	}

	changed := false
	now := s.now()

	// Preparation clock: seller fault.
	if !sellerFaultRecorded(row.DelayType) {
		if deadline, ok := s.prepDeadline(kind, &row); ok {
			late, minutes := lateBy(deadline, row.ReadyForPickupAt, now)
			if late {
				penalty, err := s.sellerPenalty(kind, &row)
				if err != nil {
					return nil, err
				}
				reason := fmt.Sprintf("Seller missed preparation deadline by %d minutes", minutes)
				s.applyFault(&row, models.DelayTypeSeller, reason, penalty, now)
				changed = true
			}
		}
	}

	// Pickup clock: driver fault. Only ticks once the order is ready.
	if !driverFaultRecorded(row.DelayType) && row.ReadyForPickupAt != nil && row.DriverID != nil {
		deadline := row.ReadyForPickupAt.Add(PickupWindow)
		late, minutes := lateBy(deadline, row.PickedUpAt, now)
		if late {
			reason := fmt.Sprintf("Driver missed pickup window by %d minutes", minutes)
			s.applyFault(&row, models.DelayTypeDriver, reason, 0, now)
			changed = true
		}
	}

	if changed {
		updates := map[string]interface{}{
			"is_delayed":     row.IsDelayed,
			"delay_type":     row.DelayType,
			"delayed_at":     row.DelayedAt,
			"delay_reason":   row.DelayReason,
			"penalty_amount": row.PenaltyAmount,
			"updated_at":     now,
		}
		if err := s.db.Table(table).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return nil, err
		}

		msg := realtime.Message{
			Event: realtime.EventDelayUpdate,
			Data: map[string]interface{}{
				"order_id":       orderID,
				"order_kind":     kind,
				"delay_type":     row.DelayType,
				"delay_reason":   row.DelayReason,
				"penalty_amount": row.PenaltyAmount,
			},
		}
		s.hub.Publish(realtime.TrackingChannel(orderID), msg)
		s.hub.Publish(realtime.UserChannel(row.CustomerID), msg)
		if row.DriverID != nil {
			s.hub.Publish(realtime.DriverChannel(*row.DriverID), msg)
		}
	}

	return s.result(&row), nil
}

func (s *DelayService) result(row *deliveryRow) *DelayResult {
	return &DelayResult{
		IsDelayed:     row.IsDelayed,
		DelayType:     row.DelayType,
		PenaltyAmount: row.PenaltyAmount,
	}
}

// prepDeadline returns the seller's deadline for this order, if one
// applies. Ad-hoc orders: preparation time plus grace (creation time
// when no preparation time was set). Subscription orders: scheduled
// delivery minus the cutoff buffer.
func (s *DelayService) prepDeadline(kind string, row *deliveryRow) (time.Time, bool) {
	if kind == models.OrderKindSubscription {
		if row.ScheduledDeliveryTime == nil {
			return time.Time{}, false
		}
		return row.ScheduledDeliveryTime.Add(-ScheduledCutoff), true
	}
	base := row.CreatedAt
	if row.PreparationTime != nil {
		base = *row.PreparationTime
	}
	return base.Add(PrepGrace), true
}

// sellerPenalty: full order amount for ad-hoc orders, the per-meal share
// of the plan price for subscription deliveries.
func (s *DelayService) sellerPenalty(kind string, row *deliveryRow) (float64, error) {
	if kind == models.OrderKindAdhoc {
		return row.TotalAmount, nil
	}
	var sub models.Subscription
	if err := s.db.First(&sub, row.SubscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrSubscriptionNotFound
		}
		return 0, err
	}
	if sub.MealsTotal <= 0 {
		return 0, nil
	}
	return sub.PlanPrice / float64(sub.MealsTotal), nil
}

// applyFault records one fault on the in-memory row, widening the delay
// type and concatenating reasons rather than overwriting.
func (s *DelayService) applyFault(row *deliveryRow, fault, reason string, penalty float64, now time.Time) {
	if !row.IsDelayed {
		row.IsDelayed = true
		row.DelayedAt = &now
	}

	switch row.DelayType {
	case models.DelayTypeNone, "":
		row.DelayType = fault
	case models.DelayTypeSeller:
		if fault == models.DelayTypeDriver {
			row.DelayType = models.DelayTypeBoth
		}
	case models.DelayTypeDriver:
		if fault == models.DelayTypeSeller {
			row.DelayType = models.DelayTypeBoth
		}
	}

	if row.DelayReason == "" {
		row.DelayReason = reason
	} else {
		row.DelayReason = row.DelayReason + "; " + reason
	}
	row.PenaltyAmount += penalty
}

func sellerFaultRecorded(delayType string) bool {
	return delayType == models.DelayTypeSeller || delayType == models.DelayTypeBoth
}

func driverFaultRecorded(delayType string) bool {
	return delayType == models.DelayTypeDriver || delayType == models.DelayTypeBoth
}

// lateBy reports whether the milestone missed the deadline and by how
// many minutes. A nil milestone means it has not happened yet, so the
// clock keeps running against now.
func lateBy(deadline time.Time, at *time.Time, now time.Time) (bool, int) {
	effective := now
	if at != nil {
		effective = *at
	}
	if !effective.After(deadline) {
		return false, 0
	}
	minutes := int(effective.Sub(deadline) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return true, minutes
}
