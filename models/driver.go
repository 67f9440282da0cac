package models

import (
	"strings"
	"time"
)

// CategoryGeneral drivers can deliver any order category.
const CategoryGeneral = "general"

type Driver struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	UserID          uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	User            User    `gorm:"foreignKey:UserID" json:"user"`
	VehicleNumber   string  `gorm:"type:varchar(30)" json:"vehicle_number"`
	IsActive        bool    `gorm:"not null;default:true" json:"is_active"`
	IsOnline        bool    `gorm:"not null;default:false" json:"is_online"`
	Rating          float64 `gorm:"type:decimal(3,2);not null;default:5.00" json:"rating"`
	TotalDeliveries int     `gorm:"not null;default:0" json:"total_deliveries"`
	// Comma separated category slugs, e.g. "food,grocery" or "general"
	Categories      string     `gorm:"type:varchar(255);not null;default:'general'" json:"categories"`
	ServiceRadiusKm float64    `gorm:"not null;default:10" json:"service_radius_km"`
	LastLat         *float64   `json:"last_lat,omitempty"`
	LastLng         *float64   `json:"last_lng,omitempty"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

// ServesCategory reports whether the driver can take orders of the given category.
func (d *Driver) ServesCategory(category string) bool {
	for _, c := range strings.Split(d.Categories, ",") {
		c = strings.TrimSpace(c)
		if c == category || c == CategoryGeneral {
			return true
		}
	}
	return false
}

// HasLocation reports whether a last-known position was ever recorded.
func (d *Driver) HasLocation() bool {
	return d.LastLat != nil && d.LastLng != nil
}
