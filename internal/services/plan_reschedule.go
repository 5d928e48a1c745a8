package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// ReschedulableStatuses is the allowlist of installment statuses a
// reschedule may touch. Terminal rows (paid, cancelled, refunded) keep
// their dates.
var ReschedulableStatuses = []models.InstallmentStatus{
	models.InstallmentStatusPending,
	models.InstallmentStatusSent,
	models.InstallmentStatusOverdue,
	models.InstallmentStatusPaused,
}

// PlanRescheduleService moves a plan's remaining schedule to a new start date
type PlanRescheduleService struct {
	db       *gorm.DB
	cache    *RedisCache
	midtrans *MidtransService
	metrics  *PlanPaymentMetrics
}

func NewPlanRescheduleService(db *gorm.DB, cache *RedisCache, midtrans *MidtransService) *PlanRescheduleService {
	return &PlanRescheduleService{
		db:       db,
		cache:    cache,
		midtrans: midtrans,
		metrics:  NewPlanPaymentMetrics(db),
	}
}

// ReschedulePlan shifts every modifiable installment so the first falls due
// on newStartDate and the rest follow at the plan's frequency, each offset
// from the new start rather than chained from its predecessor. Outstanding
// payment requests on those installments are cancelled first: a request that
// references the old date is invalid the moment the date moves.
//
// The plan-row write is the critical path and runs in a transaction; the
// per-installment date updates are best-effort, logged individually, and do
// not abort the batch. The returned error reflects the critical path only.
func (s *PlanRescheduleService) ReschedulePlan(ctx context.Context, plan *models.Plan, newStartDate time.Time) error {
	if IsPlanFinished(plan) {
		return fmt.Errorf("plan %d is %s and cannot be rescheduled", plan.ID, plan.Status)
	}

	newStart := DateOnly(newStartDate)

	return s.cache.WithPlanLock(ctx, plan.ID, func() error {
		var current models.Plan
		if err := s.db.First(&current, plan.ID).Error; err != nil {
			return fmt.Errorf("failed to load plan %d: %w", plan.ID, err)
		}
		previousStart := current.StartDate

		paidCount, err := s.metrics.AccuratePaidInstallmentCount(current.ID)
		if err != nil {
			return err
		}

		var modifiable []models.Installment
		if err := s.db.Where("plan_id = ?", current.ID).
			Where("status IN ?", ReschedulableStatuses).
			Order("payment_number asc").
			Find(&modifiable).Error; err != nil {
			return fmt.Errorf("failed to load installments for plan %d: %w", current.ID, err)
		}

		cancelledRequests := s.cancelOutstandingRequests(modifiable)

		// Critical path: the plan row itself.
		newStatus := models.PlanStatusPending
		if paidCount > 0 {
			newStatus = models.PlanStatusActive
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{
				"start_date":           newStart,
				"status":               newStatus,
				"next_due_date":        newStart,
				"has_overdue_payments": false,
				"version":              gorm.Expr("version + 1"),
			}
			return tx.Model(&models.Plan{}).Where("id = ?", current.ID).Updates(updates).Error
		})
		if err != nil {
			return fmt.Errorf("failed to reschedule plan %d: %w", current.ID, err)
		}

		// Best-effort batch: one bad row must not strand the rest undated.
		dates := InstallmentDueDates(newStart, current.Frequency, len(modifiable))
		shifted := 0
		for i, inst := range modifiable {
			updates := map[string]interface{}{
				"due_date":           dates[i],
				"status":             models.InstallmentStatusPending,
				"payment_request_id": nil,
			}
			if err := s.db.Model(&models.Installment{}).Where("id = ?", inst.ID).Updates(updates).Error; err != nil {
				log.Printf("Plan %d: failed to re-date installment %d (payment %d): %v",
					current.ID, inst.ID, inst.PaymentNumber, err)
				continue
			}
			shifted++
		}

		s.metrics.LogPaymentActivity(
			current.PaymentLinkID, current.PatientID, current.ClinicID, current.ID,
			models.ActivityPlanRescheduled,
			map[string]interface{}{
				"previous_start_date": FormatDate(previousStart),
				"new_start_date":      FormatDate(newStart),
				"payments_shifted":    shifted,
				"requests_cancelled":  cancelledRequests,
			})

		return nil
	})
}

// cancelOutstandingRequests cancels the payment requests attached to the
// given installments, both locally and at the processor. Returns how many
// were cancelled. Processor failures are logged; the local row is the record
// of intent either way.
func (s *PlanRescheduleService) cancelOutstandingRequests(installments []models.Installment) int {
	cancelled := 0
	for _, inst := range installments {
		if inst.PaymentRequestID == nil {
			continue
		}

		var req models.PaymentRequest
		if err := s.db.First(&req, *inst.PaymentRequestID).Error; err != nil {
			log.Printf("Installment %d: failed to load payment request %d: %v", inst.ID, *inst.PaymentRequestID, err)
			continue
		}
		if req.Status == models.PaymentRequestStatusCancelled || req.Status == models.PaymentRequestStatusPaid {
			continue
		}

		if err := s.db.Model(&req).Update("status", models.PaymentRequestStatusCancelled).Error; err != nil {
			log.Printf("Installment %d: failed to cancel payment request %d: %v", inst.ID, req.ID, err)
			continue
		}
		cancelled++

		if req.Gateway == models.PaymentGatewayMidtrans && req.OrderID != "" && s.midtrans != nil {
			if err := s.midtrans.CancelTransaction(req.OrderID); err != nil {
				log.Printf("Payment request %d: processor cancel failed: %v", req.ID, err)
			}
		}
	}
	return cancelled
}
