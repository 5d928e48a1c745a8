package tasks

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// SweepOverduePlansTaskDef re-evaluates overdue state across the schedule.
// It marks past-due pending/sent installments overdue and recomputes the
// owning plans' status. The sweep runs on the worker, outside any request.
type SweepOverduePlansTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SweepOverduePlansTaskDef) TaskID() string {
	return "sweep_overdue_plans"
}

// HandleExecution runs the sweep for one plan (plan_id argument) or for
// every plan with overdue candidates when no plan_id is given.
func (t *SweepOverduePlansTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	today := services.Today()
	scopedPlanID, hasPlanScope := argUint(task.Arguments, "plan_id")

	candidates := func() *gorm.DB {
		q := deps.DB.Model(&models.Installment{}).
			Where("status IN ?", []models.InstallmentStatus{
				models.InstallmentStatusPending,
				models.InstallmentStatusSent,
			}).
			Where("due_date < ?", today)
		if hasPlanScope {
			q = q.Where("plan_id = ?", scopedPlanID)
		}
		return q
	}

	// Collect affected plans before flipping the rows
	var planIDs []uint
	if err := candidates().Distinct("plan_id").Pluck("plan_id", &planIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to find plans with overdue candidates: %w", err)
	}

	marked := candidates().Update("status", models.InstallmentStatusOverdue)
	if marked.Error != nil {
		return nil, fmt.Errorf("failed to mark overdue installments: %w", marked.Error)
	}

	recomputed := 0
	failures := 0
	for _, planID := range planIDs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, err := deps.Status.UpdatePlanStatus(ctx, planID); err != nil {
			log.Printf("Plan %d: sweep status recompute failed: %v", planID, err)
			failures++
			continue
		}
		recomputed++
	}

	return map[string]interface{}{
		"status":             "success",
		"installments_hit":   marked.RowsAffected,
		"plans_recomputed":   recomputed,
		"recompute_failures": failures,
	}, nil
}

// SweepOverduePlansTask is the singleton instance of SweepOverduePlansTaskDef
var SweepOverduePlansTask = &SweepOverduePlansTaskDef{}
