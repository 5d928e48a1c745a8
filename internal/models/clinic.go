package models

import (
	"time"

	"gorm.io/gorm"
)

// Clinic represents a clinic account that owns payment links and plans
type Clinic struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name  string `gorm:"type:varchar(255)" json:"name"`
	Email string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`

	// OwnerUID is the identity-provider UID of the clinic owner account
	OwnerUID string `gorm:"type:varchar(128);index" json:"owner_uid"`

	// Relationships
	Patients     []Patient     `gorm:"foreignKey:ClinicID" json:"patients,omitempty"`
	PaymentLinks []PaymentLink `gorm:"foreignKey:ClinicID" json:"payment_links,omitempty"`
	Plans        []Plan        `gorm:"foreignKey:ClinicID" json:"plans,omitempty"`
}
