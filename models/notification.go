package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID        uint `gorm:"primaryKey"`
	UserID    *uint
	User      User           `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Title     *string        `gorm:"type:varchar(100)"`
	Message   string         `gorm:"type:text;not null"`
	Data      datatypes.JSON `json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null"`
}
