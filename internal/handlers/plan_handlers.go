package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"clinicpay/internal/middleware"
	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// PlanHandler exposes plan CRUD and the lifecycle operations
type PlanHandler struct {
	db         *gorm.DB
	plans      *services.PlanService
	status     *services.PlanStatusService
	lifecycle  *services.PlanLifecycleService
	reschedule *services.PlanRescheduleService
	overdue    *services.PlanOverdueChecker
}

func NewPlanHandler(db *gorm.DB, plans *services.PlanService, status *services.PlanStatusService, lifecycle *services.PlanLifecycleService, reschedule *services.PlanRescheduleService) *PlanHandler {
	return &PlanHandler{
		db:         db,
		plans:      plans,
		status:     status,
		lifecycle:  lifecycle,
		reschedule: reschedule,
		overdue:    services.NewPlanOverdueChecker(db),
	}
}

// loadClinicPlan fetches a plan and enforces clinic ownership
func (h *PlanHandler) loadClinicPlan(c echo.Context) (*models.Plan, error) {
	session := middleware.GetSession(c)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid plan ID")
	}

	var plan models.Plan
	if err := h.db.First(&plan, uint(id)).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Plan not found")
	}
	if plan.ClinicID != session.ClinicID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Plan belongs to a different clinic")
	}
	return &plan, nil
}

// ListPlans returns the clinic's plans with optional status filtering and
// pagination
func (h *PlanHandler) ListPlans(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := 20

	query := h.db.Model(&models.Plan{}).Where("clinic_id = ?", session.ClinicID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", services.ValidatePlanStatus(status))
	}
	if patientStr := c.QueryParam("patient_id"); patientStr != "" {
		if patientID, err := strconv.ParseUint(patientStr, 10, 32); err == nil {
			query = query.Where("patient_id = ?", uint(patientID))
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count plans")
	}

	var plans []models.Plan
	if err := query.Preload("Patient").Preload("PaymentLink").
		Order("created_at desc").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&plans).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch plans")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"plans":       plans,
		"page":        page,
		"total_count": totalCount,
	})
}

// GetPlan returns one plan with its full installment schedule
func (h *PlanHandler) GetPlan(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	var installments []models.Installment
	if err := h.db.Where("plan_id = ?", plan.ID).
		Order("payment_number asc").
		Find(&installments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch installments")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"plan":         plan,
		"installments": installments,
	})
}

// CreatePlan opens a new plan with its full installment schedule
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	var req CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	startDate, err := services.ParseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}

	frequency := models.PlanFrequency(req.Frequency)
	switch frequency {
	case models.PlanFrequencyWeekly, models.PlanFrequencyBiWeekly, models.PlanFrequencyMonthly:
	case "":
		frequency = models.PlanFrequencyMonthly
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown frequency")
	}

	plan, err := h.plans.CreatePlan(services.CreatePlanInput{
		ClinicID:          session.ClinicID,
		PatientID:         req.PatientID,
		PaymentLinkID:     req.PaymentLinkID,
		Title:             req.Title,
		Frequency:         frequency,
		InstallmentAmount: req.InstallmentAmount,
		TotalInstallments: req.TotalInstallments,
		StartDate:         startDate,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"plan":    plan,
	})
}

// PausePlan freezes the plan and its pending installments
func (h *PlanHandler) PausePlan(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.PausePlan(c.Request().Context(), plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true, Status: models.PlanStatusPaused})
}

// CancelPlan cancels the plan permanently
func (h *PlanHandler) CancelPlan(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.CancelPlan(c.Request().Context(), plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true, Status: models.PlanStatusCancelled})
}

// ResumeWarnings returns the booleans the confirmation dialog shows before a
// resume; it mutates nothing
func (h *PlanHandler) ResumeWarnings(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	warnings, err := h.lifecycle.ResumeWarningsForPlan(plan.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute resume warnings")
	}
	return c.JSON(http.StatusOK, ResumeWarningsResponse{Success: true, Warnings: warnings})
}

// ResumePlan unfreezes a paused plan
func (h *PlanHandler) ResumePlan(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	var req ResumePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	var resumeDate *time.Time
	if req.ResumeDate != "" {
		parsed, perr := services.ParseDate(req.ResumeDate)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "resume_date must be YYYY-MM-DD")
		}
		resumeDate = &parsed
	}

	if err := h.lifecycle.ResumePlan(c.Request().Context(), plan, resumeDate); err != nil {
		if errors.Is(err, services.ErrNoPausedInstallments) {
			return echo.NewHTTPError(http.StatusBadRequest, "This plan has no paused installments to resume")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status, err := h.status.CalculatePlanStatus(plan.ID)
	if err != nil {
		status = ""
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true, Status: status})
}

// ReschedulePlan moves the plan's remaining schedule to a new start date
func (h *PlanHandler) ReschedulePlan(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	var req ReschedulePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	newStart, err := services.ParseDate(req.NewStartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "new_start_date must be YYYY-MM-DD")
	}

	if err := h.reschedule.ReschedulePlan(c.Request().Context(), plan, newStart); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status, err := h.status.CalculatePlanStatus(plan.ID)
	if err != nil {
		status = ""
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true, Status: status})
}

// RecalculateStatus forces a status recompute for one plan
func (h *PlanHandler) RecalculateStatus(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	status, err := h.status.UpdatePlanStatus(c.Request().Context(), plan.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update plan status")
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true, Status: status})
}

// TriggerOverdueSweep enqueues the out-of-process overdue sweep for one plan
func (h *PlanHandler) TriggerOverdueSweep(c echo.Context) error {
	plan, err := h.loadClinicPlan(c)
	if err != nil {
		return err
	}

	if err := h.overdue.TriggerStatusUpdate(plan.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to trigger overdue sweep")
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true})
}
