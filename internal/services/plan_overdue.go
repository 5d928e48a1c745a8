package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// overdueCandidateStatuses are the installment statuses that can be overdue.
// Already-marked overdue rows are included deliberately: the question is
// "is anything overdue right now", not "is anything newly overdue".
var overdueCandidateStatuses = []models.InstallmentStatus{
	models.InstallmentStatusPending,
	models.InstallmentStatusSent,
	models.InstallmentStatusOverdue,
}

// IsInstallmentOverdue reports whether an installment with the given status
// and due date is overdue as of today. The comparison is strictly-before:
// an installment due today is not overdue.
func IsInstallmentOverdue(status models.InstallmentStatus, dueDate, today time.Time) bool {
	candidate := false
	for _, s := range overdueCandidateStatuses {
		if status == s {
			candidate = true
			break
		}
	}
	if !candidate {
		return false
	}
	return DateOnly(dueDate).Before(DateOnly(today))
}

// PlanOverdueChecker answers whether a plan currently has an overdue
// installment. It is the single source of truth for that condition; callers
// must not reimplement it.
type PlanOverdueChecker struct {
	db *gorm.DB
}

func NewPlanOverdueChecker(db *gorm.DB) *PlanOverdueChecker {
	return &PlanOverdueChecker{db: db}
}

// CheckPlanForOverduePayments returns true if the plan has at least one
// installment past its due date that has not been paid, cancelled, or paused.
// On a read error it returns false with the error attached: display paths
// fail open rather than blocking, and the caller logs.
func (c *PlanOverdueChecker) CheckPlanForOverduePayments(planID uint) (bool, error) {
	var count int64
	err := c.db.Model(&models.Installment{}).
		Where("plan_id = ?", planID).
		Where("status IN ?", overdueCandidateStatuses).
		Where("due_date < ?", Today()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check plan %d for overdue payments: %w", planID, err)
	}
	return count > 0, nil
}

// TriggerStatusUpdate enqueues the out-of-process overdue sweep for one plan,
// or for every plan when planID is zero. This is a remediation path, not part
// of the hot payment path.
func (c *PlanOverdueChecker) TriggerStatusUpdate(planID uint) error {
	args := map[string]interface{}{}
	if planID > 0 {
		args["plan_id"] = planID
	}

	task := models.ScheduledTask{
		TaskName:   "sweep_overdue_plans",
		Arguments:  args,
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := c.db.Create(&task).Error; err != nil {
		return fmt.Errorf("failed to enqueue overdue sweep: %w", err)
	}
	return nil
}
