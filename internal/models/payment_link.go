package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentLink represents a clinic-created link a plan is sold under
type PaymentLink struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ClinicID    uint   `gorm:"index" json:"clinic_id"`
	Title       string `gorm:"type:varchar(255)" json:"title"`
	Slug        string `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	Amount      int64  `json:"amount"` // minor currency units
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Plans  []Plan `gorm:"foreignKey:PaymentLinkID" json:"plans,omitempty"`
}
