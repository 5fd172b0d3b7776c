package models

import "time"

type Booking struct {
	BaseModel
	CustomerID     string        `gorm:"not null;index"`
	ProfessionalID string        `gorm:"not null;index"`
	ServiceName    string        `gorm:"not null"`
	Status         BookingStatus `gorm:"type:varchar(20);default:'pending'"`
	ScheduledAt    time.Time     `gorm:"not null"`
	Notes          string

	// Relations
	Customer     *User `gorm:"foreignKey:CustomerID"`
	Professional *User `gorm:"foreignKey:ProfessionalID"`
}
