package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// PlanService creates plans and their full installment schedule
type PlanService struct {
	db      *gorm.DB
	metrics *PlanPaymentMetrics
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{
		db:      db,
		metrics: NewPlanPaymentMetrics(db),
	}
}

// CreatePlanInput carries everything needed to open a plan
type CreatePlanInput struct {
	ClinicID          uint
	PatientID         uint
	PaymentLinkID     uint
	Title             string
	Frequency         models.PlanFrequency
	InstallmentAmount int64
	TotalInstallments int
	StartDate         time.Time
}

// CreatePlan opens a plan and generates all of its installment rows up
// front, due dates computed from the start date at the plan frequency.
func (s *PlanService) CreatePlan(input CreatePlanInput) (*models.Plan, error) {
	if input.TotalInstallments <= 0 {
		return nil, fmt.Errorf("plan must have at least one installment")
	}
	if input.InstallmentAmount <= 0 {
		return nil, fmt.Errorf("installment amount must be positive")
	}

	start := DateOnly(input.StartDate)
	dates := InstallmentDueDates(start, input.Frequency, input.TotalInstallments)

	plan := models.Plan{
		ClinicID:          input.ClinicID,
		PatientID:         input.PatientID,
		PaymentLinkID:     input.PaymentLinkID,
		Title:             input.Title,
		Frequency:         input.Frequency,
		InstallmentAmount: input.InstallmentAmount,
		TotalInstallments: input.TotalInstallments,
		Status:            models.PlanStatusPending,
		StartDate:         start,
		NextDueDate:       &dates[0],
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}

		installments := make([]models.Installment, input.TotalInstallments)
		for i := range installments {
			installments[i] = models.Installment{
				PlanID:        plan.ID,
				PaymentNumber: i + 1,
				TotalPayments: input.TotalInstallments,
				DueDate:       dates[i],
				Amount:        input.InstallmentAmount,
				Status:        models.InstallmentStatusPending,
			}
		}
		return tx.Create(&installments).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.metrics.LogPaymentActivity(
		plan.PaymentLinkID, plan.PatientID, plan.ClinicID, plan.ID,
		models.ActivityPlanCreated,
		map[string]interface{}{
			"total_installments": plan.TotalInstallments,
			"installment_amount": plan.InstallmentAmount,
			"frequency":          plan.Frequency,
			"start_date":         FormatDate(start),
		})

	return &plan, nil
}
