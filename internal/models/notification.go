package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID  string `gorm:"not null;index"`
	Type    string `gorm:"not null"` // "booking_created", "status_changed", "welcome", ...
	Title   string `gorm:"not null"`
	Message string
	Data    datatypes.JSON      `gorm:"type:jsonb"` // {"booking_id": "...", ...}
	Channel NotificationChannel `gorm:"type:varchar(20);default:'in_app'"`
	IsRead  bool                `gorm:"default:false"`
	ReadAt  *time.Time
}
