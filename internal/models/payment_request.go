package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentGateway identifies how a payment was (or will be) captured
type PaymentGateway string

const (
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	PaymentGatewayManual   PaymentGateway = "manual"
)

// PaymentRequestStatus represents the status of an outbound payment request
type PaymentRequestStatus string

const (
	PaymentRequestStatusPending   PaymentRequestStatus = "pending"
	PaymentRequestStatusSent      PaymentRequestStatus = "sent"
	PaymentRequestStatusPaid      PaymentRequestStatus = "paid"
	PaymentRequestStatusCancelled PaymentRequestStatus = "cancelled"
	PaymentRequestStatusExpired   PaymentRequestStatus = "expired"
)

// PaymentRequest represents a request-for-payment sent to a patient for a
// specific installment. It may or may not result in a captured payment.
type PaymentRequest struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PlanID        uint  `gorm:"index" json:"plan_id"`
	InstallmentID uint  `gorm:"index" json:"installment_id"`
	PatientID     uint  `gorm:"index" json:"patient_id"`
	Amount        int64 `json:"amount"`

	Gateway PaymentGateway       `gorm:"type:varchar(50);not null" json:"gateway"`
	OrderID string               `gorm:"type:varchar(100);index" json:"order_id"`
	Status  PaymentRequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SentAt  *time.Time           `json:"sent_at"`

	RequestMetadata  json.RawMessage `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata json.RawMessage `gorm:"type:jsonb" json:"response_metadata"`
}

// TableName returns the table name for the PaymentRequest model
func (PaymentRequest) TableName() string {
	return "payment_requests"
}
