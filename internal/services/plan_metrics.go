package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// paidLikeStatuses count toward plan progress. Refunded payments still count
// as paid: the patient did pay, even if the money was later returned.
var paidLikeStatuses = []models.InstallmentStatus{
	models.InstallmentStatusPaid,
	models.InstallmentStatusRefunded,
	models.InstallmentStatusPartiallyRefunded,
}

// CalculateProgress returns the plan completion percentage, floored and
// clamped to 0..100. Non-positive totals yield 0.
func CalculateProgress(paid, total int) int {
	if total <= 0 || paid <= 0 {
		return 0
	}
	progress := paid * 100 / total
	if progress > 100 {
		return 100
	}
	return progress
}

// PlanPaymentMetrics is the single source of truth for paid-installment
// counts and progress. Counts are always taken directly from the
// payment_schedule table: a running counter would drift under duplicate
// webhook deliveries, a fresh count cannot.
type PlanPaymentMetrics struct {
	db *gorm.DB
}

func NewPlanPaymentMetrics(db *gorm.DB) *PlanPaymentMetrics {
	return &PlanPaymentMetrics{db: db}
}

// AccuratePaidInstallmentCount counts installments whose status is paid,
// refunded, or partially refunded.
func (m *PlanPaymentMetrics) AccuratePaidInstallmentCount(planID uint) (int, error) {
	var count int64
	err := m.db.Model(&models.Installment{}).
		Where("plan_id = ?", planID).
		Where("status IN ?", paidLikeStatuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count paid installments for plan %d: %w", planID, err)
	}
	return int(count), nil
}

// UpdatePlanPaymentMetrics recomputes paid_installments and progress from the
// schedule and writes them back to the plan row. Call after any installment
// status change that could affect the paid count.
func (m *PlanPaymentMetrics) UpdatePlanPaymentMetrics(planID uint) error {
	var plan models.Plan
	if err := m.db.Select("id", "total_installments").First(&plan, planID).Error; err != nil {
		return fmt.Errorf("failed to load plan %d: %w", planID, err)
	}

	paid, err := m.AccuratePaidInstallmentCount(planID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"paid_installments": paid,
		"progress":          CalculateProgress(paid, plan.TotalInstallments),
		"next_due_date":     nil,
	}
	if next, err := m.nextDueDate(planID); err != nil {
		log.Printf("Plan %d: next due date refresh failed: %v", planID, err)
		delete(updates, "next_due_date")
	} else if next != nil {
		updates["next_due_date"] = next
	}

	if err := m.db.Model(&models.Plan{}).Where("id = ?", planID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update metrics for plan %d: %w", planID, err)
	}
	return nil
}

// nextDueDate finds the earliest due date among installments still awaiting
// payment. Nil means nothing is outstanding.
func (m *PlanPaymentMetrics) nextDueDate(planID uint) (*time.Time, error) {
	var inst models.Installment
	err := m.db.Where("plan_id = ?", planID).
		Where("status IN ?", []models.InstallmentStatus{
			models.InstallmentStatusPending,
			models.InstallmentStatusSent,
			models.InstallmentStatusOverdue,
			models.InstallmentStatusPaused,
		}).
		Order("due_date asc").
		First(&inst).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	due := inst.DueDate
	return &due, nil
}

// LogPaymentActivity appends one row to the audit log. Logging is
// best-effort: a failed insert is logged and swallowed so it can never undo
// a payment that already succeeded.
func (m *PlanPaymentMetrics) LogPaymentActivity(linkID, patientID, clinicID, planID uint, actionType models.ActivityType, details interface{}) {
	var detailsJSON json.RawMessage
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			log.Printf("Plan %d: failed to marshal activity details: %v", planID, err)
		} else {
			detailsJSON = data
		}
	}

	activity := models.PaymentActivity{
		ClinicID:      clinicID,
		PatientID:     patientID,
		PaymentLinkID: linkID,
		PlanID:        planID,
		ActionType:    actionType,
		Details:       detailsJSON,
	}
	if err := m.db.Create(&activity).Error; err != nil {
		log.Printf("Plan %d: failed to log %s activity: %v", planID, actionType, err)
	}
}
