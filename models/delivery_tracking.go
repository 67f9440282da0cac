package models

import (
	"time"
)

// OrderKind distinguishes which table a tracking record belongs to.
const (
	OrderKindAdhoc        = "order"
	OrderKindSubscription = "daily_order"
)

// DeliveryTracking mirrors the coarse delivery state of one order and
// carries the append-only timeline. CurrentLat/CurrentLng hold the last
// known driver position only, never a history.
type DeliveryTracking struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   uint   `gorm:"not null;uniqueIndex:idx_order_kind" json:"order_id"`
	OrderKind string `gorm:"type:varchar(15);not null;default:'order';uniqueIndex:idx_order_kind" json:"order_kind"`
	Status    string `gorm:"type:varchar(30);not null;default:'order_placed'" json:"status"`

	DriverID *uint   `gorm:"index" json:"driver_id,omitempty"`
	Driver   *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	CurrentLat *float64 `json:"current_lat,omitempty"`
	CurrentLng *float64 `json:"current_lng,omitempty"`

	Timeline []TrackingEvent `gorm:"foreignKey:TrackingID" json:"timeline"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TrackingEvent is one entry of the timeline. Rows are append-only:
// nothing in the codebase updates or deletes them.
type TrackingEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TrackingID  uint      `gorm:"not null;index" json:"tracking_id"`
	Status      string    `gorm:"type:varchar(30);not null" json:"status"`
	Description string    `gorm:"type:text" json:"description"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
