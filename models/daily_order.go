package models

import (
	"time"
)

const (
	ShiftMorning = "morning"
	ShiftEvening = "evening"
)

// DailyOrder is one materialized delivery for a subscription on a given
// date and shift. The (subscription_id, date, shift) key is unique so a
// rerun of the generator can never duplicate a delivery.
type DailyOrder struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	SubscriptionID uint         `gorm:"not null;uniqueIndex:idx_sub_date_shift" json:"subscription_id"`
	Subscription   Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription"`
	Date           string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_sub_date_shift" json:"date"`
	Shift          string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_sub_date_shift" json:"shift"`
	CustomerID     uint         `gorm:"not null;index" json:"customer_id"`
	SellerID       uint         `gorm:"not null;index" json:"seller_id"`
	Category       string       `gorm:"type:varchar(50);not null;default:'food'" json:"category"`
	MealName       string       `gorm:"type:varchar(255);not null" json:"meal_name"`
	Status         string       `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	TotalAmount    float64      `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`

	DriverID *uint   `gorm:"index" json:"driver_id,omitempty"`
	Driver   *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DeliveryLat float64 `json:"delivery_lat"`
	DeliveryLng float64 `json:"delivery_lng"`
	Address     string  `gorm:"type:text" json:"address"`

	ScheduledDeliveryTime *time.Time `json:"scheduled_delivery_time,omitempty"`
	PreparationTime       *time.Time `json:"preparation_time,omitempty"`
	ReadyForPickupAt      *time.Time `json:"ready_for_pickup_at,omitempty"`
	PickedUpAt            *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt           *time.Time `json:"delivered_at,omitempty"`

	IsDelayed     bool       `gorm:"not null;default:false" json:"is_delayed"`
	DelayType     string     `gorm:"type:varchar(10);not null;default:'none'" json:"delay_type"`
	DelayedAt     *time.Time `json:"delayed_at,omitempty"`
	DelayReason   string     `gorm:"type:text" json:"delay_reason,omitempty"`
	PenaltyAmount float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"penalty_amount"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
