package services

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// ComputePlanStatus derives a plan's status from its stored status, paid
// count, and overdue state. Evaluation order: manual override, completed,
// overdue, active, pending.
//
// Paused and cancelled are manual overrides: the plan is frozen and only an
// explicit resume or reschedule moves it out. Completed is permanent; there
// is no recorded reverse transition.
func ComputePlanStatus(current models.PlanStatus, paidCount, totalInstallments int, hasOverdue bool) models.PlanStatus {
	if current == models.PlanStatusPaused || current == models.PlanStatusCancelled {
		return current
	}
	if current == models.PlanStatusCompleted {
		return models.PlanStatusCompleted
	}
	if totalInstallments > 0 && paidCount >= totalInstallments {
		return models.PlanStatusCompleted
	}
	if hasOverdue && paidCount > 0 {
		return models.PlanStatusOverdue
	}
	if paidCount > 0 {
		return models.PlanStatusActive
	}
	return models.PlanStatusPending
}

// PlanStatusService recomputes and persists plan status whenever an
// installment changes or a manual operation runs.
type PlanStatusService struct {
	db      *gorm.DB
	cache   *RedisCache
	overdue *PlanOverdueChecker
	metrics *PlanPaymentMetrics
}

func NewPlanStatusService(db *gorm.DB, cache *RedisCache) *PlanStatusService {
	return &PlanStatusService{
		db:      db,
		cache:   cache,
		overdue: NewPlanOverdueChecker(db),
		metrics: NewPlanPaymentMetrics(db),
	}
}

// CalculatePlanStatus evaluates the status rules for a plan without writing.
// An overdue-check read error is treated as "not overdue" and logged: status
// display fails open rather than blocking.
func (s *PlanStatusService) CalculatePlanStatus(planID uint) (models.PlanStatus, error) {
	var plan models.Plan
	if err := s.db.Select("id", "status", "total_installments").First(&plan, planID).Error; err != nil {
		return "", fmt.Errorf("failed to load plan %d: %w", planID, err)
	}
	stored := ValidatePlanStatus(string(plan.Status))

	paidCount, err := s.metrics.AccuratePaidInstallmentCount(planID)
	if err != nil {
		return "", err
	}

	hasOverdue, err := s.overdue.CheckPlanForOverduePayments(planID)
	if err != nil {
		log.Printf("Plan %d: overdue check failed, assuming not overdue: %v", planID, err)
		hasOverdue = false
	}

	return ComputePlanStatus(stored, paidCount, plan.TotalInstallments, hasOverdue), nil
}

// UpdatePlanStatus recomputes the plan's status and writes it only if it
// changed. The write and its audit row run in one transaction under the
// plan's advisory lock. Because the status is recomputed from source rows
// and written only on a diff, the operation is idempotent and safe to retry.
func (s *PlanStatusService) UpdatePlanStatus(ctx context.Context, planID uint) (models.PlanStatus, error) {
	var result models.PlanStatus

	err := s.cache.WithPlanLock(ctx, planID, func() error {
		var plan models.Plan
		if err := s.db.First(&plan, planID).Error; err != nil {
			return fmt.Errorf("failed to load plan %d: %w", planID, err)
		}
		stored := ValidatePlanStatus(string(plan.Status))

		computed, err := s.CalculatePlanStatus(planID)
		if err != nil {
			return err
		}
		result = computed

		if computed == stored {
			return nil
		}

		return s.db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{
				"status":               computed,
				"has_overdue_payments": computed == models.PlanStatusOverdue,
				"version":              gorm.Expr("version + 1"),
			}
			if err := tx.Model(&models.Plan{}).Where("id = ?", planID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to write status for plan %d: %w", planID, err)
			}

			NewPlanPaymentMetrics(tx).LogPaymentActivity(
				plan.PaymentLinkID, plan.PatientID, plan.ClinicID, plan.ID,
				models.ActivityStatusChanged,
				map[string]interface{}{
					"previous_status": stored,
					"new_status":      computed,
					"automatic":       true,
				})
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// HandlePaymentStatusChange is the single entry point to call after any
// installment status mutation: payment success, refund, or a manual
// mark-as-paid. The payment itself has already happened, so failures here
// are logged and never propagated back to undo it.
func (s *PlanStatusService) HandlePaymentStatusChange(ctx context.Context, installmentID, planID uint, newStatus models.InstallmentStatus) {
	log.Printf("Plan %d: installment %d changed to %s, recomputing", planID, installmentID, newStatus)

	if err := s.metrics.UpdatePlanPaymentMetrics(planID); err != nil {
		log.Printf("Plan %d: metrics refresh failed after installment %d change: %v", planID, installmentID, err)
	}

	if _, err := s.UpdatePlanStatus(ctx, planID); err != nil {
		log.Printf("Plan %d: status recompute failed after installment %d change: %v", planID, installmentID, err)
	}
}
