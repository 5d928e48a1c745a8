package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// Stateless predicates over plan status. Everything here is pure except
// RefreshPlanStatus, which only reads.

// IsPlanPaused reports whether the plan is manually paused
func IsPlanPaused(plan *models.Plan) bool {
	return plan.Status == models.PlanStatusPaused
}

// IsPlanActive reports whether the plan is still collecting payments.
// Pending and overdue plans count as active: installments are expected.
func IsPlanActive(plan *models.Plan) bool {
	switch plan.Status {
	case models.PlanStatusActive, models.PlanStatusPending, models.PlanStatusOverdue:
		return true
	}
	return false
}

// IsPlanFinished reports whether the plan has reached a terminal status
func IsPlanFinished(plan *models.Plan) bool {
	return plan.Status == models.PlanStatusCancelled || plan.Status == models.PlanStatusCompleted
}

// ValidatePlanStatus maps a raw status string from the store to a known plan
// status. Unknown or legacy values map to pending with a warning rather than
// failing: corrupt data must not take the dashboard down. This is the only
// place raw status strings are decoded; everything past this boundary works
// with the typed constants.
func ValidatePlanStatus(raw string) models.PlanStatus {
	switch models.PlanStatus(raw) {
	case models.PlanStatusPending, models.PlanStatusActive, models.PlanStatusOverdue,
		models.PlanStatusPaused, models.PlanStatusCancelled, models.PlanStatusCompleted:
		return models.PlanStatus(raw)
	}
	log.Printf("Unknown plan status %q, defaulting to pending", raw)
	return models.PlanStatusPending
}

// PlanStatusReader reads and validates stored plan statuses
type PlanStatusReader struct {
	db *gorm.DB
}

func NewPlanStatusReader(db *gorm.DB) *PlanStatusReader {
	return &PlanStatusReader{db: db}
}

// RefreshPlanStatus reads the plan's stored status column and returns it
// validated. No side effects beyond the read.
func (r *PlanStatusReader) RefreshPlanStatus(planID uint) (models.PlanStatus, error) {
	var raw string
	err := r.db.Model(&models.Plan{}).
		Where("id = ?", planID).
		Pluck("status", &raw).Error
	if err != nil {
		return "", fmt.Errorf("failed to read plan %d status: %w", planID, err)
	}
	if raw == "" {
		return "", fmt.Errorf("plan %d not found", planID)
	}
	return ValidatePlanStatus(raw), nil
}
