package models

import (
	"time"
)

// Delay fault attribution. DelayType only ever widens (seller -> both),
// it never narrows back.
const (
	DelayTypeNone   = "none"
	DelayTypeSeller = "seller"
	DelayTypeDriver = "driver"
	DelayTypeBoth   = "both"
)

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_number"`
	CustomerID  uint        `gorm:"not null;index" json:"customer_id"`
	Customer    User        `gorm:"foreignKey:CustomerID" json:"customer"`
	SellerID    uint        `gorm:"not null;index" json:"seller_id"`
	Category    string      `gorm:"type:varchar(50);not null;default:'food'" json:"category"`
	Status      string      `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	TotalAmount float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	OrderItems  []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`

	DriverID *uint   `gorm:"index" json:"driver_id,omitempty"`
	Driver   *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DeliveryLat float64 `json:"delivery_lat"`
	DeliveryLng float64 `json:"delivery_lng"`
	Address     string  `gorm:"type:text" json:"address"`

	PreparationTime  *time.Time `json:"preparation_time,omitempty"`
	ReadyForPickupAt *time.Time `json:"ready_for_pickup_at,omitempty"`
	PickedUpAt       *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`

	IsDelayed     bool       `gorm:"not null;default:false" json:"is_delayed"`
	DelayType     string     `gorm:"type:varchar(10);not null;default:'none'" json:"delay_type"`
	DelayedAt     *time.Time `json:"delayed_at,omitempty"`
	DelayReason   string     `gorm:"type:text" json:"delay_reason,omitempty"`
	PenaltyAmount float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"penalty_amount"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
