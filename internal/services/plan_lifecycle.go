package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// ErrNoPausedInstallments is returned when resume is requested for a plan
// with nothing to resume.
var ErrNoPausedInstallments = errors.New("plan has no paused installments to resume")

// ResumeWarnings are surfaced to the clinic before a resume. They inform the
// confirmation dialog only; the mutation itself is the same either way.
type ResumeWarnings struct {
	// HadSentRequests: a resumed installment previously had an outstanding
	// payment request, so the patient may hold a stale link.
	HadSentRequests bool `json:"had_sent_requests"`
	// HasPastDue: a resumed installment's due date is already in the past
	// and the plan will immediately show as overdue.
	HasPastDue bool `json:"has_past_due"`
	// HasPaid: the plan already has paid installments.
	HasPaid bool `json:"has_paid"`
}

// ComputeResumeWarnings derives the pre-resume warnings from the plan's
// installments as of today.
func ComputeResumeWarnings(installments []models.Installment, today time.Time) ResumeWarnings {
	var w ResumeWarnings
	for _, inst := range installments {
		if inst.IsPaidLike() {
			w.HasPaid = true
		}
		if inst.Status != models.InstallmentStatusPaused {
			continue
		}
		if inst.PaymentRequestID != nil {
			w.HadSentRequests = true
		}
		if DateOnly(inst.DueDate).Before(DateOnly(today)) {
			w.HasPastDue = true
		}
	}
	return w
}

// PlanLifecycleService implements the manual pause, resume, and cancel
// operations.
type PlanLifecycleService struct {
	db      *gorm.DB
	cache   *RedisCache
	status  *PlanStatusService
	metrics *PlanPaymentMetrics
}

func NewPlanLifecycleService(db *gorm.DB, cache *RedisCache, status *PlanStatusService) *PlanLifecycleService {
	return &PlanLifecycleService{
		db:      db,
		cache:   cache,
		status:  status,
		metrics: NewPlanPaymentMetrics(db),
	}
}

// PausePlan freezes the plan: the plan row goes to paused and every pending
// installment goes with it. Installments already sent or paid are left alone.
func (s *PlanLifecycleService) PausePlan(ctx context.Context, plan *models.Plan) error {
	if IsPlanFinished(plan) {
		return fmt.Errorf("plan %d is %s and cannot be paused", plan.ID, plan.Status)
	}
	if IsPlanPaused(plan) {
		return nil
	}

	err := s.cache.WithPlanLock(ctx, plan.ID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{
				"status":  models.PlanStatusPaused,
				"version": gorm.Expr("version + 1"),
			}
			if err := tx.Model(&models.Plan{}).Where("id = ?", plan.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to pause plan %d: %w", plan.ID, err)
			}

			if err := tx.Model(&models.Installment{}).
				Where("plan_id = ?", plan.ID).
				Where("status = ?", models.InstallmentStatusPending).
				Update("status", models.InstallmentStatusPaused).Error; err != nil {
				return fmt.Errorf("failed to pause installments for plan %d: %w", plan.ID, err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.metrics.LogPaymentActivity(
		plan.PaymentLinkID, plan.PatientID, plan.ClinicID, plan.ID,
		models.ActivityPlanPaused, nil)
	return nil
}

// CancelPlan cancels the plan. Pending and paused installments are marked
// cancelled rather than deleted; paid history stays intact. Cancelled is
// terminal: no automatic transition ever leaves it.
func (s *PlanLifecycleService) CancelPlan(ctx context.Context, plan *models.Plan) error {
	if IsPlanFinished(plan) {
		return fmt.Errorf("plan %d is already %s", plan.ID, plan.Status)
	}

	err := s.cache.WithPlanLock(ctx, plan.ID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{
				"status":               models.PlanStatusCancelled,
				"has_overdue_payments": false,
				"next_due_date":        nil,
				"version":              gorm.Expr("version + 1"),
			}
			if err := tx.Model(&models.Plan{}).Where("id = ?", plan.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to cancel plan %d: %w", plan.ID, err)
			}

			if err := tx.Model(&models.Installment{}).
				Where("plan_id = ?", plan.ID).
				Where("status IN ?", []models.InstallmentStatus{
					models.InstallmentStatusPending,
					models.InstallmentStatusPaused,
				}).
				Update("status", models.InstallmentStatusCancelled).Error; err != nil {
				return fmt.Errorf("failed to cancel installments for plan %d: %w", plan.ID, err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.metrics.LogPaymentActivity(
		plan.PaymentLinkID, plan.PatientID, plan.ClinicID, plan.ID,
		models.ActivityPlanCancelled, nil)
	return nil
}

// ResumeWarningsForPlan loads the plan's installments and derives the
// pre-resume warnings without mutating anything.
func (s *PlanLifecycleService) ResumeWarningsForPlan(planID uint) (ResumeWarnings, error) {
	var installments []models.Installment
	if err := s.db.Where("plan_id = ?", planID).Find(&installments).Error; err != nil {
		return ResumeWarnings{}, fmt.Errorf("failed to load installments for plan %d: %w", planID, err)
	}
	return ComputeResumeWarnings(installments, Today()), nil
}

// ResumePlan sets the plan's paused installments back to pending, optionally
// re-dating them from resumeDate at the plan's frequency, then recomputes the
// plan status so it lands on pending, active, or overdue from the data rather
// than being force-set.
func (s *PlanLifecycleService) ResumePlan(ctx context.Context, plan *models.Plan, resumeDate *time.Time) error {
	if !IsPlanPaused(plan) {
		return fmt.Errorf("plan %d is %s, only paused plans can be resumed", plan.ID, plan.Status)
	}

	err := s.cache.WithPlanLock(ctx, plan.ID, func() error {
		var paused []models.Installment
		if err := s.db.Where("plan_id = ?", plan.ID).
			Where("status = ?", models.InstallmentStatusPaused).
			Order("payment_number asc").
			Find(&paused).Error; err != nil {
			return fmt.Errorf("failed to load paused installments for plan %d: %w", plan.ID, err)
		}
		if len(paused) == 0 {
			return ErrNoPausedInstallments
		}

		var dates []time.Time
		if resumeDate != nil {
			dates = InstallmentDueDates(*resumeDate, plan.Frequency, len(paused))
		}

		return s.db.Transaction(func(tx *gorm.DB) error {
			for i, inst := range paused {
				updates := map[string]interface{}{
					"status": models.InstallmentStatusPending,
				}
				if dates != nil {
					updates["due_date"] = dates[i]
				}
				if err := tx.Model(&models.Installment{}).Where("id = ?", inst.ID).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to resume installment %d: %w", inst.ID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.metrics.LogPaymentActivity(
		plan.PaymentLinkID, plan.PatientID, plan.ClinicID, plan.ID,
		models.ActivityPlanResumed, nil)

	// Land on the derived status, not a force-set one. The plan row still
	// says paused at this point, so clear the override first.
	if err := s.db.Model(&models.Plan{}).Where("id = ?", plan.ID).
		Updates(map[string]interface{}{
			"status":  models.PlanStatusPending,
			"version": gorm.Expr("version + 1"),
		}).Error; err != nil {
		return fmt.Errorf("failed to clear paused status for plan %d: %w", plan.ID, err)
	}
	if err := s.metrics.UpdatePlanPaymentMetrics(plan.ID); err != nil {
		return err
	}
	if _, err := s.status.UpdatePlanStatus(ctx, plan.ID); err != nil {
		return err
	}
	return nil
}
