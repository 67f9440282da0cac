package services

import (
	"fmt"
	"time"

	"github.com/mealbridge/delivery-app/models"
)

// TableForKind maps an order kind onto its table. Ad-hoc orders and
// subscription daily orders share the same delivery columns, so the
// assignment, tracking and delay services operate on either table
// through this switch.
func TableForKind(kind string) (string, error) {
	switch kind {
	case models.OrderKindAdhoc:
		return "orders", nil
	case models.OrderKindSubscription:
		return "daily_orders", nil
	}
	return "", fmt.Errorf("%w: unknown order kind %q", ErrValidation, kind)
}

// deliveryRow is the common projection of an orders/daily_orders row.
// Columns missing from one table (scheduled_delivery_time on ad-hoc
// orders) scan as zero values.
type deliveryRow struct {
	ID             uint
	SubscriptionID uint
	CustomerID     uint
	SellerID       uint
	Status         string
	DriverID       *uint
	TotalAmount    float64
	Shift          string

	PreparationTime       *time.Time
	ScheduledDeliveryTime *time.Time
	ReadyForPickupAt      *time.Time
	PickedUpAt            *time.Time
	DeliveredAt           *time.Time

	IsDelayed     bool
	DelayType     string
	DelayedAt     *time.Time
	DelayReason   string
	PenaltyAmount float64

	CreatedAt time.Time
}

func (r *deliveryRow) isTerminal() bool {
	return r.Status == StatusDelivered || r.Status == StatusCancelled
}
