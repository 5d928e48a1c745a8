package models

import (
	"time"

	"gorm.io/gorm"
)

// PlanStatus represents the lifecycle status of a payment plan
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusOverdue   PlanStatus = "overdue"
	PlanStatusPaused    PlanStatus = "paused"
	PlanStatusCancelled PlanStatus = "cancelled"
	PlanStatusCompleted PlanStatus = "completed"
)

// PlanFrequency represents how often installments fall due
type PlanFrequency string

const (
	PlanFrequencyWeekly   PlanFrequency = "weekly"
	PlanFrequencyBiWeekly PlanFrequency = "bi-weekly"
	PlanFrequencyMonthly  PlanFrequency = "monthly"
)

// Plan represents a patient's installment payment plan tied to one payment link
type Plan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ClinicID      uint `gorm:"index" json:"clinic_id"`
	PatientID     uint `gorm:"index" json:"patient_id"`
	PaymentLinkID uint `gorm:"index" json:"payment_link_id"`

	Title             string        `gorm:"type:varchar(255)" json:"title"`
	Frequency         PlanFrequency `gorm:"type:varchar(20);default:'monthly'" json:"frequency"`
	InstallmentAmount int64         `json:"installment_amount"` // minor currency units (pence)
	TotalInstallments int           `json:"total_installments"`

	// Denormalized aggregates. PaidInstallments and Progress are always
	// recomputed from the payment_schedule table, never incremented in place.
	PaidInstallments   int        `json:"paid_installments"`
	Progress           int        `json:"progress"` // 0-100
	Status             PlanStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	HasOverduePayments bool       `gorm:"default:false" json:"has_overdue_payments"`
	StartDate          time.Time  `json:"start_date"`
	NextDueDate        *time.Time `json:"next_due_date"`

	// Version is bumped on every status-affecting write so concurrent
	// writers can detect a lost update.
	Version int `gorm:"default:0" json:"version"`

	// Relationships
	Clinic       Clinic        `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Patient      Patient       `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	PaymentLink  PaymentLink   `gorm:"foreignKey:PaymentLinkID" json:"payment_link,omitempty"`
	Installments []Installment `gorm:"foreignKey:PlanID" json:"installments,omitempty"`
}

// TableName returns the table name for the Plan model
func (Plan) TableName() string {
	return "plans"
}
