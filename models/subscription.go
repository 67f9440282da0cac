package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

type Subscription struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
	Customer   User   `gorm:"foreignKey:CustomerID" json:"customer"`
	SellerID   uint   `gorm:"not null;index" json:"seller_id"`
	PlanName   string `gorm:"type:varchar(255);not null" json:"plan_name"`
	// Default meal served when no active customization exists for the shift.
	DefaultMeal string  `gorm:"type:varchar(255);not null" json:"default_meal"`
	PlanPrice   float64 `gorm:"type:decimal(10,2);not null" json:"plan_price"`
	// Comma separated shift list, e.g. "morning,evening".
	Shifts         string `gorm:"type:varchar(30);not null;default:'morning'" json:"shifts"`
	MealsTotal     int    `gorm:"not null" json:"meals_total"`
	MealsRemaining int    `gorm:"not null" json:"meals_remaining"`
	Status         string `gorm:"type:varchar(15);not null;default:'active'" json:"status"`

	StartDate string `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate   string `gorm:"type:varchar(10);not null" json:"end_date"`

	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DeliveryLat float64 `json:"delivery_lat"`
	DeliveryLng float64 `json:"delivery_lng"`
	Address     string  `gorm:"type:text" json:"address"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// HasShift reports whether the subscription includes the given shift.
func (s *Subscription) HasShift(shift string) bool {
	switch s.Shifts {
	case shift:
		return true
	case "morning,evening", "evening,morning":
		return shift == ShiftMorning || shift == ShiftEvening
	}
	return false
}

// CoversDate reports whether the date (YYYY-MM-DD) falls inside the
// subscription's range, inclusive on both ends.
func (s *Subscription) CoversDate(date string) bool {
	return s.StartDate <= date && date <= s.EndDate
}

// SubscriptionSkip marks one date+shift a customer asked to skip.
type SubscriptionSkip struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID uint      `gorm:"not null;uniqueIndex:idx_skip_key" json:"subscription_id"`
	Date           string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_skip_key" json:"date"`
	Shift          string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_skip_key" json:"shift"`
	Reason         string    `gorm:"type:text" json:"reason"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

// MealCustomization overrides the default meal for a shift while active.
type MealCustomization struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SubscriptionID uint           `gorm:"not null;index" json:"subscription_id"`
	Shift          string         `gorm:"type:varchar(10);not null" json:"shift"`
	MealName       string         `gorm:"type:varchar(255);not null" json:"meal_name"`
	Options        datatypes.JSON `json:"options,omitempty"`
	// No column default: gorm would omit a false value on insert and the
	// row would come back active.
	IsActive       bool           `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}
