package handlers

import (
	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// OperationResponse is the common envelope for plan operations
type OperationResponse struct {
	Success bool              `json:"success"`
	Status  models.PlanStatus `json:"status,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// CreatePlanRequest is the payload for opening a new plan
type CreatePlanRequest struct {
	PatientID         uint   `json:"patient_id"`
	PaymentLinkID     uint   `json:"payment_link_id"`
	Title             string `json:"title"`
	Frequency         string `json:"frequency"`
	InstallmentAmount int64  `json:"installment_amount"`
	TotalInstallments int    `json:"total_installments"`
	StartDate         string `json:"start_date"` // YYYY-MM-DD
}

// ReschedulePlanRequest carries the new start date for a reschedule
type ReschedulePlanRequest struct {
	NewStartDate string `json:"new_start_date"` // YYYY-MM-DD
}

// ResumePlanRequest optionally re-dates resumed installments
type ResumePlanRequest struct {
	ResumeDate string `json:"resume_date,omitempty"` // YYYY-MM-DD
}

// ResumeWarningsResponse wraps the pre-resume warning booleans
type ResumeWarningsResponse struct {
	Success  bool                    `json:"success"`
	Warnings services.ResumeWarnings `json:"warnings"`
}

// RefundRequest carries a refund instruction for an installment
type RefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// CreatePatientRequest is the payload for registering a patient
type CreatePatientRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	NotifChannel string `json:"notif_channel"`
}

// CreatePaymentLinkRequest is the payload for creating a payment link
type CreatePaymentLinkRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}
