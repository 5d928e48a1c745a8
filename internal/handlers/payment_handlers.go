package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"clinicpay/internal/middleware"
	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// PaymentHandler exposes payment-request issuance, manual mark-as-paid,
// refunds, the public checkout, and the processor webhook
type PaymentHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
}

func NewPaymentHandler(db *gorm.DB, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, payments: payments}
}

// loadClinicInstallment fetches an installment and enforces clinic ownership
func (h *PaymentHandler) loadClinicInstallment(c echo.Context) (*models.Installment, error) {
	session := middleware.GetSession(c)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid installment ID")
	}

	var inst models.Installment
	if err := h.db.Preload("Plan").First(&inst, uint(id)).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Installment not found")
	}
	if inst.Plan.ClinicID != session.ClinicID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Installment belongs to a different clinic")
	}
	return &inst, nil
}

// SendPaymentRequest issues a payment request for an installment and
// notifies the patient
func (h *PaymentHandler) SendPaymentRequest(c echo.Context) error {
	inst, err := h.loadClinicInstallment(c)
	if err != nil {
		return err
	}

	request, err := h.payments.SendPaymentRequest(c.Request().Context(), inst.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to send payment request: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":         true,
		"payment_request": request,
	})
}

// MarkInstallmentPaid records a manual (offline) payment for an installment
func (h *PaymentHandler) MarkInstallmentPaid(c echo.Context) error {
	inst, err := h.loadClinicInstallment(c)
	if err != nil {
		return err
	}

	if err := h.payments.MarkInstallmentPaid(c.Request().Context(), inst.ID, models.PaymentGatewayManual, nil); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark installment paid")
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true})
}

// RefundInstallment issues a refund against a paid installment
func (h *PaymentHandler) RefundInstallment(c echo.Context) error {
	inst, err := h.loadClinicInstallment(c)
	if err != nil {
		return err
	}

	var req RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Amount <= 0 {
		req.Amount = inst.Amount
	}

	if err := h.payments.RefundInstallment(c.Request().Context(), inst.ID, req.Amount, req.Reason); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to refund installment: "+err.Error())
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true})
}

// InitiateCheckout is the public endpoint behind the link a patient
// receives. It resolves the payment request by order ID and starts or
// resumes the processor checkout.
func (h *PaymentHandler) InitiateCheckout(c echo.Context) error {
	orderID := c.Param("order_id")

	var request models.PaymentRequest
	if err := h.db.Where("order_id = ?", orderID).First(&request).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Payment request not found")
	}
	if request.Status == models.PaymentRequestStatusCancelled {
		return echo.NewHTTPError(http.StatusGone, "This payment request has been cancelled")
	}

	var inst models.Installment
	if err := h.db.First(&inst, request.InstallmentID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Installment not found")
	}

	forceNew := c.QueryParam("force_new") == "true"
	result, err := h.payments.InitiatePayment(c.Request().Context(), &inst, forceNew)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// MidtransCallback handles processor notifications. Delivery is
// at-least-once, so the handler must tolerate replays; MarkInstallmentPaid
// is a no-op for an already-paid installment.
func (h *PaymentHandler) MidtransCallback(c echo.Context) error {
	var notificationPayload map[string]interface{}
	if err := c.Bind(&notificationPayload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	orderID, _ := notificationPayload["order_id"].(string)
	transactionStatus, _ := notificationPayload["transaction_status"].(string)
	fraudStatus, _ := notificationPayload["fraud_status"].(string)

	// Order IDs look like installment-{id}-{uuid}
	parts := strings.Split(orderID, "-")
	if len(parts) < 2 || parts[0] != "installment" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID format")
	}
	installmentID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid installment ID in order ID")
	}

	var inst models.Installment
	if err := h.db.First(&inst, uint(installmentID)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Installment not found")
	}

	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			if err := h.payments.MarkInstallmentPaid(c.Request().Context(), inst.ID, models.PaymentGatewayMidtrans, notificationPayload); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record payment")
			}
		}
	case "settlement":
		if err := h.payments.MarkInstallmentPaid(c.Request().Context(), inst.ID, models.PaymentGatewayMidtrans, notificationPayload); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record payment")
		}
	case "deny", "expire", "cancel":
		if inst.PaymentRequestID != nil {
			h.db.Model(&models.PaymentRequest{}).
				Where("id = ?", *inst.PaymentRequestID).
				Update("status", models.PaymentRequestStatusExpired)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
