package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// SendPaymentReminderArgs defines the arguments for a reminder task
type SendPaymentReminderArgs struct {
	PlanID       uint   `json:"plan_id"`
	Template     string `json:"template"`
	Subject      string `json:"subject"`
	AttemptCount int    `json:"attempt_count"`
}

// SendPaymentReminderTaskDef enqueues payment reminders for a plan's unpaid
// installments that are due or overdue. Delivery is the external
// dispatcher's concern; this task only hands records over and logs.
type SendPaymentReminderTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendPaymentReminderTaskDef) TaskID() string {
	return "send_payment_reminder"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendPaymentReminderTaskDef) CreateTask(args SendPaymentReminderArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends one reminder per due installment, routed by the
// patient's notification preference.
func (t *SendPaymentReminderTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	planID, ok := argUint(task.Arguments, "plan_id")
	if !ok {
		return nil, fmt.Errorf("plan_id not provided or invalid")
	}

	var plan models.Plan
	if err := deps.DB.Preload("Patient").First(&plan, planID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}

	// Reminders only make sense while the plan is collecting. Re-read the
	// status through the validating reader in case the row is stale or holds
	// a legacy value.
	status, err := services.NewPlanStatusReader(deps.DB).RefreshPlanStatus(planID)
	if err != nil {
		return nil, err
	}
	plan.Status = status
	if !services.IsPlanActive(&plan) {
		return map[string]interface{}{"status": "skipped", "message": fmt.Sprintf("Plan is %s", status)}, nil
	}

	if plan.Patient.NotifChannel == models.NotificationChannelNone {
		return map[string]interface{}{"status": "skipped", "message": "Patient has notifications disabled"}, nil
	}

	template, _ := task.Arguments["template"].(string)
	if template == "" {
		template = "Hi $name, a reminder that payment $payment_number of $total for $plan_title ($amount) was due on $due_date."
	}
	subject, _ := task.Arguments["subject"].(string)
	if subject == "" {
		subject = fmt.Sprintf("Payment reminder: %s", plan.Title)
	}

	var due []models.Installment
	if err := deps.DB.Where("plan_id = ?", planID).
		Where("status IN ?", []models.InstallmentStatus{
			models.InstallmentStatusSent,
			models.InstallmentStatusOverdue,
		}).
		Order("payment_number asc").
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch due installments: %w", err)
	}

	sent := 0
	failed := 0
	for _, inst := range due {
		body := renderReminder(template, plan, inst)

		record := services.NotificationRecord{
			Channel:   string(plan.Patient.NotifChannel),
			Recipient: plan.Patient.Email,
			Subject:   subject,
			Body:      body,
			PlanID:    plan.ID,
			ClinicID:  plan.ClinicID,
		}
		if plan.Patient.NotifChannel == models.NotificationChannelSMS {
			record.Recipient = plan.Patient.Phone
		}

		if err := deps.Notifier.Enqueue(record); err != nil {
			log.Printf("Plan %d: reminder enqueue failed for installment %d: %v", plan.ID, inst.ID, err)
			failed++
			continue
		}
		sent++
	}

	result := map[string]interface{}{
		"status": "success",
		"sent":   sent,
		"failed": failed,
	}

	if failed > 0 {
		attempt := 0
		if v, ok := argUint(task.Arguments, "attempt_count"); ok {
			attempt = int(v)
		}
		if attempt < task.MaxAttempt {
			newArgs := SendPaymentReminderArgs{
				PlanID:       planID,
				Template:     template,
				Subject:      subject,
				AttemptCount: attempt + 1,
			}
			retry, err := BuildScheduledTask(t.TaskID(), newArgs, time.Now().Add(5*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if err == nil {
				deps.DB.Create(retry)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
		} else {
			return result, fmt.Errorf("max attempts reached, %d reminders failed to enqueue", failed)
		}
	}

	return result, nil
}

// SendPaymentReminderTask is the singleton instance of SendPaymentReminderTaskDef
var SendPaymentReminderTask = &SendPaymentReminderTaskDef{}

func renderReminder(template string, plan models.Plan, inst models.Installment) string {
	res := strings.ReplaceAll(template, "$name", plan.Patient.Name)
	res = strings.ReplaceAll(res, "$plan_title", plan.Title)
	res = strings.ReplaceAll(res, "$payment_number", fmt.Sprintf("%d", inst.PaymentNumber))
	res = strings.ReplaceAll(res, "$total", fmt.Sprintf("%d", inst.TotalPayments))
	res = strings.ReplaceAll(res, "$amount", formatAmount(inst.Amount))
	res = strings.ReplaceAll(res, "$due_date", services.FormatDate(inst.DueDate))
	return res
}

// formatAmount renders minor currency units as pounds and pence
func formatAmount(pence int64) string {
	return fmt.Sprintf("£%d.%02d", pence/100, pence%100)
}
