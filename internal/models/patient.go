package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationChannel is the preferred channel for payment reminders
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelNone  NotificationChannel = "none"
)

// Patient represents a patient the clinic bills through payment plans
type Patient struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ClinicID uint   `gorm:"index" json:"clinic_id"`
	Name     string `gorm:"type:varchar(255)" json:"name"`
	Email    string `gorm:"type:varchar(255);index" json:"email"`
	Phone    string `gorm:"type:varchar(50)" json:"phone"`

	NotifChannel NotificationChannel `gorm:"type:varchar(20);default:'email'" json:"notif_channel"`

	// Relationships
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Plans  []Plan `gorm:"foreignKey:PatientID" json:"plans,omitempty"`
}
