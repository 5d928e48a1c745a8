package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// PaymentService issues payment requests, records captured payments, and
// handles refunds. Every installment mutation it performs funnels into
// PlanStatusService.HandlePaymentStatusChange afterwards.
type PaymentService struct {
	db       *gorm.DB
	midtrans *MidtransService
	notifier *NotifierService
	status   *PlanStatusService
	metrics  *PlanPaymentMetrics
}

func NewPaymentService(db *gorm.DB, midtransClient *MidtransService, notifier *NotifierService, status *PlanStatusService) *PaymentService {
	return &PaymentService{
		db:       db,
		midtrans: midtransClient,
		notifier: notifier,
		status:   status,
		metrics:  NewPlanPaymentMetrics(db),
	}
}

// InitiatePaymentResult holds the outcome of starting or resuming a payment
type InitiatePaymentResult struct {
	Token       string
	RedirectURL string
	IsExisting  bool
}

// SendPaymentRequest creates a processor transaction for an installment,
// records the payment request, marks the installment sent, and enqueues a
// notification to the patient. Notification delivery is the dispatcher's
// problem; a failed enqueue is logged and does not fail the request.
func (s *PaymentService) SendPaymentRequest(ctx context.Context, installmentID uint) (*models.PaymentRequest, error) {
	var inst models.Installment
	if err := s.db.Preload("Plan").Preload("Plan.Patient").First(&inst, installmentID).Error; err != nil {
		return nil, fmt.Errorf("failed to load installment %d: %w", installmentID, err)
	}
	if inst.IsPaidLike() {
		return nil, fmt.Errorf("installment %d is already paid", installmentID)
	}
	if inst.Status == models.InstallmentStatusCancelled {
		return nil, fmt.Errorf("installment %d is cancelled", installmentID)
	}

	orderID := fmt.Sprintf("installment-%d-%s", inst.ID, uuid.New().String())

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: inst.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: inst.Plan.Patient.Name,
			Email: inst.Plan.Patient.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("plan-%d", inst.PlanID),
				Name:  fmt.Sprintf("Payment %d of %d for %s", inst.PaymentNumber, inst.TotalPayments, inst.Plan.Title),
				Price: inst.Amount,
				Qty:   1,
			},
		},
	}

	resp, err := s.midtrans.CreateTransaction(orderID, inst.Amount, req)
	if err != nil {
		return nil, err
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)
	now := time.Now()

	request := models.PaymentRequest{
		PlanID:           inst.PlanID,
		InstallmentID:    inst.ID,
		PatientID:        inst.Plan.PatientID,
		Amount:           inst.Amount,
		Gateway:          models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		Status:           models.PaymentRequestStatusSent,
		SentAt:           &now,
		RequestMetadata:  reqBytes,
		ResponseMetadata: respBytes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		return tx.Model(&models.Installment{}).Where("id = ?", inst.ID).Updates(map[string]interface{}{
			"status":             models.InstallmentStatusSent,
			"payment_request_id": request.ID,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment request for installment %d: %w", inst.ID, err)
	}

	s.metrics.LogPaymentActivity(
		inst.Plan.PaymentLinkID, inst.Plan.PatientID, inst.Plan.ClinicID, inst.PlanID,
		models.ActivityRequestSent,
		map[string]interface{}{
			"installment_id": inst.ID,
			"payment_number": inst.PaymentNumber,
			"order_id":       orderID,
			"amount":         inst.Amount,
		})

	if s.notifier != nil {
		record := NotificationRecord{
			Channel:   string(inst.Plan.Patient.NotifChannel),
			Recipient: inst.Plan.Patient.Email,
			Subject:   fmt.Sprintf("Payment request from your clinic: %s", inst.Plan.Title),
			Body:      fmt.Sprintf("Payment %d of %d (due %s): %s", inst.PaymentNumber, inst.TotalPayments, FormatDate(inst.DueDate), resp.RedirectURL),
			PlanID:    inst.PlanID,
			ClinicID:  inst.Plan.ClinicID,
		}
		if inst.Plan.Patient.NotifChannel == models.NotificationChannelSMS {
			record.Recipient = inst.Plan.Patient.Phone
		}
		if err := s.notifier.Enqueue(record); err != nil {
			log.Printf("Installment %d: notification enqueue failed: %v", inst.ID, err)
		}
	}

	s.status.HandlePaymentStatusChange(ctx, inst.ID, inst.PlanID, models.InstallmentStatusSent)

	return &request, nil
}

// InitiatePayment starts or resumes a checkout for an installment's
// outstanding payment request, reusing a live processor transaction when one
// exists.
func (s *PaymentService) InitiatePayment(ctx context.Context, inst *models.Installment, forceNew bool) (*InitiatePaymentResult, error) {
	if inst.IsPaidLike() {
		return nil, fmt.Errorf("installment is already paid")
	}

	if inst.PaymentRequestID != nil {
		var existing models.PaymentRequest
		err := s.db.First(&existing, *inst.PaymentRequestID).Error
		if err == nil && existing.Status == models.PaymentRequestStatusSent {
			statusResp, err := s.midtrans.CheckTransaction(existing.OrderID)
			if err == nil {
				switch statusResp.TransactionStatus {
				case "settlement", "capture":
					return nil, fmt.Errorf("payment already made")
				case "deny", "expire", "cancel", "failure":
					s.db.Model(&existing).Update("status", models.PaymentRequestStatusExpired)
				default:
					// Transaction still pending at the processor
					if forceNew {
						if err := s.midtrans.CancelTransaction(existing.OrderID); err != nil {
							log.Printf("Payment request %d: processor cancel failed: %v", existing.ID, err)
						}
						s.db.Model(&existing).Update("status", models.PaymentRequestStatusCancelled)
					} else {
						var midtransResp snap.Response
						if err := json.Unmarshal(existing.ResponseMetadata, &midtransResp); err == nil {
							return &InitiatePaymentResult{
								Token:       midtransResp.Token,
								RedirectURL: midtransResp.RedirectURL,
								IsExisting:  true,
							}, nil
						}
						// Metadata is broken, treat the request as dead
						s.db.Model(&existing).Update("status", models.PaymentRequestStatusExpired)
					}
				}
			} else {
				// Status check failed, assume the request is invalid locally
				s.db.Model(&existing).Update("status", models.PaymentRequestStatusExpired)
			}
		}
	}

	request, err := s.SendPaymentRequest(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	var midtransResp snap.Response
	if err := json.Unmarshal(request.ResponseMetadata, &midtransResp); err != nil {
		return nil, fmt.Errorf("failed to decode processor response: %w", err)
	}

	return &InitiatePaymentResult{
		Token:       midtransResp.Token,
		RedirectURL: midtransResp.RedirectURL,
		IsExisting:  false,
	}, nil
}

// MarkInstallmentPaid records a captured payment against an installment and
// recomputes the plan. It is idempotent: a replayed webhook for an
// already-paid installment changes nothing.
func (s *PaymentService) MarkInstallmentPaid(ctx context.Context, installmentID uint, gateway models.PaymentGateway, payload map[string]interface{}) error {
	var inst models.Installment
	if err := s.db.Preload("Plan").First(&inst, installmentID).Error; err != nil {
		return fmt.Errorf("failed to load installment %d: %w", installmentID, err)
	}
	if inst.IsPaidLike() {
		return nil
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Installment{}).Where("id = ?", inst.ID).Updates(map[string]interface{}{
			"status":    models.InstallmentStatusPaid,
			"paid_date": now,
		}).Error; err != nil {
			return err
		}
		if inst.PaymentRequestID != nil {
			if err := tx.Model(&models.PaymentRequest{}).
				Where("id = ?", *inst.PaymentRequestID).
				Update("status", models.PaymentRequestStatusPaid).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark installment %d paid: %w", inst.ID, err)
	}

	s.metrics.LogPaymentActivity(
		inst.Plan.PaymentLinkID, inst.Plan.PatientID, inst.Plan.ClinicID, inst.PlanID,
		models.ActivityPaymentMade,
		map[string]interface{}{
			"installment_id": inst.ID,
			"payment_number": inst.PaymentNumber,
			"amount":         inst.Amount,
			"gateway":        gateway,
			"payload":        payload,
		})

	s.status.HandlePaymentStatusChange(ctx, inst.ID, inst.PlanID, models.InstallmentStatusPaid)
	return nil
}

// RefundInstallment issues a refund for a paid installment. A full refund
// marks it refunded, a partial one partially_refunded; either way it still
// counts toward progress.
func (s *PaymentService) RefundInstallment(ctx context.Context, installmentID uint, amount int64, reason string) error {
	var inst models.Installment
	if err := s.db.Preload("Plan").First(&inst, installmentID).Error; err != nil {
		return fmt.Errorf("failed to load installment %d: %w", installmentID, err)
	}
	if inst.Status != models.InstallmentStatusPaid && inst.Status != models.InstallmentStatusPartiallyRefunded {
		return fmt.Errorf("installment %d is not refundable in status %s", inst.ID, inst.Status)
	}
	if amount <= 0 || amount > inst.Amount {
		return fmt.Errorf("invalid refund amount %d for installment %d", amount, inst.ID)
	}

	if inst.PaymentRequestID != nil {
		var req models.PaymentRequest
		if err := s.db.First(&req, *inst.PaymentRequestID).Error; err == nil &&
			req.Gateway == models.PaymentGatewayMidtrans && req.OrderID != "" {
			if err := s.midtrans.RefundTransaction(req.OrderID, amount, reason); err != nil {
				return err
			}
		}
	}

	newStatus := models.InstallmentStatusPartiallyRefunded
	if amount == inst.Amount {
		newStatus = models.InstallmentStatusRefunded
	}
	if err := s.db.Model(&models.Installment{}).Where("id = ?", inst.ID).
		Update("status", newStatus).Error; err != nil {
		return fmt.Errorf("failed to record refund for installment %d: %w", inst.ID, err)
	}

	s.metrics.LogPaymentActivity(
		inst.Plan.PaymentLinkID, inst.Plan.PatientID, inst.Plan.ClinicID, inst.PlanID,
		models.ActivityPaymentRefunded,
		map[string]interface{}{
			"installment_id": inst.ID,
			"payment_number": inst.PaymentNumber,
			"amount":         amount,
			"reason":         reason,
		})

	s.status.HandlePaymentStatusChange(ctx, inst.ID, inst.PlanID, newStatus)
	return nil
}
