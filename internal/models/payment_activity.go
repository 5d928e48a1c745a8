package models

import (
	"encoding/json"
	"time"
)

// ActivityType categorizes entries in the payment activity audit log
type ActivityType string

const (
	ActivityPlanCreated     ActivityType = "plan_created"
	ActivityPaymentMade     ActivityType = "payment_made"
	ActivityPaymentRefunded ActivityType = "payment_refunded"
	ActivityPlanRescheduled ActivityType = "plan_rescheduled"
	ActivityPlanPaused      ActivityType = "plan_paused"
	ActivityPlanResumed     ActivityType = "plan_resumed"
	ActivityPlanCancelled   ActivityType = "plan_cancelled"
	ActivityStatusChanged   ActivityType = "status_changed"
	ActivityRequestSent     ActivityType = "payment_request_sent"
)

// PaymentActivity is one row in the append-only audit log. Rows are written
// for every state-changing action and are never updated or deleted.
type PaymentActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ClinicID      uint `gorm:"index" json:"clinic_id"`
	PatientID     uint `gorm:"index" json:"patient_id"`
	PaymentLinkID uint `gorm:"index" json:"payment_link_id"`
	PlanID        uint `gorm:"index" json:"plan_id"`

	ActionType ActivityType    `gorm:"type:varchar(50);index" json:"action_type"`
	Details    json.RawMessage `gorm:"type:jsonb" json:"details"`
}

// TableName returns the table name for the PaymentActivity model
func (PaymentActivity) TableName() string {
	return "payment_activity"
}
