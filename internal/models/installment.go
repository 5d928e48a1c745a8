package models

import (
	"time"

	"gorm.io/gorm"
)

// InstallmentStatus represents the status of a single scheduled installment
type InstallmentStatus string

const (
	InstallmentStatusPending           InstallmentStatus = "pending"
	InstallmentStatusSent              InstallmentStatus = "sent"
	InstallmentStatusPaid              InstallmentStatus = "paid"
	InstallmentStatusOverdue           InstallmentStatus = "overdue"
	InstallmentStatusCancelled         InstallmentStatus = "cancelled"
	InstallmentStatusPaused            InstallmentStatus = "paused"
	InstallmentStatusRefunded          InstallmentStatus = "refunded"
	InstallmentStatusPartiallyRefunded InstallmentStatus = "partially_refunded"
)

// Installment represents one scheduled payment within a plan.
// payment_number is unique and sequential per plan, 1..total_payments.
// Installments are never deleted; cancelling a plan marks them cancelled.
type Installment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PlanID        uint              `gorm:"index" json:"plan_id"`
	PaymentNumber int               `json:"payment_number"`
	TotalPayments int               `json:"total_payments"`
	DueDate       time.Time         `gorm:"index" json:"due_date"` // calendar date, midnight UTC
	Amount        int64             `json:"amount"`                // minor currency units (pence)
	Status        InstallmentStatus `gorm:"type:varchar(30);default:'pending';index" json:"status"`

	// PaymentRequestID links the outstanding payment request for this
	// installment, if one has been issued. Cleared on reschedule.
	PaymentRequestID *uint `json:"payment_request_id"`

	// PaidDate is set iff Status is paid.
	PaidDate *time.Time `json:"paid_date"`

	// Relationships
	Plan           Plan            `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	PaymentRequest *PaymentRequest `gorm:"foreignKey:PaymentRequestID" json:"payment_request,omitempty"`
}

// TableName returns the table name for the Installment model
func (Installment) TableName() string {
	return "payment_schedule"
}

// IsPaidLike reports whether the installment counts as paid for progress
// purposes. Refunded payments still count: the patient did pay, even if the
// money was later returned.
func (i Installment) IsPaidLike() bool {
	switch i.Status {
	case InstallmentStatusPaid, InstallmentStatusRefunded, InstallmentStatusPartiallyRefunded:
		return true
	}
	return false
}
