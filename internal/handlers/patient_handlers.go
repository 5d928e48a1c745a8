package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"clinicpay/internal/middleware"
	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// PatientHandler handles patient CRUD for a clinic
type PatientHandler struct {
	db *gorm.DB
}

func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{db: db}
}

func (h *PatientHandler) loadClinicPatient(c echo.Context) (*models.Patient, error) {
	session := middleware.GetSession(c)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid patient ID")
	}

	var patient models.Patient
	if err := h.db.First(&patient, uint(id)).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	if patient.ClinicID != session.ClinicID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Patient belongs to a different clinic")
	}
	return &patient, nil
}

// ListPatients returns the clinic's patients
func (h *PatientHandler) ListPatients(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	var patients []models.Patient
	if err := h.db.Where("clinic_id = ?", session.ClinicID).
		Order("name asc").
		Find(&patients).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch patients")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"patients": patients,
	})
}

// GetPatient returns one patient with their plans
func (h *PatientHandler) GetPatient(c echo.Context) error {
	patient, err := h.loadClinicPatient(c)
	if err != nil {
		return err
	}

	var plans []models.Plan
	if err := h.db.Where("patient_id = ?", patient.ID).
		Order("created_at desc").
		Find(&plans).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch plans")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": patient,
		"plans":   plans,
	})
}

// CreatePatient registers a patient under the clinic
func (h *PatientHandler) CreatePatient(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	var req CreatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Patient name is required")
	}

	channel := models.NotificationChannel(req.NotifChannel)
	switch channel {
	case models.NotificationChannelEmail, models.NotificationChannelSMS, models.NotificationChannelNone:
	case "":
		channel = models.NotificationChannelEmail
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification channel")
	}

	patient := models.Patient{
		ClinicID:     session.ClinicID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        services.NormalizePhone(req.Phone),
		NotifChannel: channel,
	}
	if err := h.db.Create(&patient).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create patient")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"patient": patient,
	})
}

// UpdatePatient updates contact details and notification preference
func (h *PatientHandler) UpdatePatient(c echo.Context) error {
	patient, err := h.loadClinicPatient(c)
	if err != nil {
		return err
	}

	var req CreatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = services.NormalizePhone(req.Phone)
	}
	if req.NotifChannel != "" {
		channel := models.NotificationChannel(req.NotifChannel)
		switch channel {
		case models.NotificationChannelEmail, models.NotificationChannelSMS, models.NotificationChannelNone:
			updates["notif_channel"] = channel
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification channel")
		}
	}

	if len(updates) > 0 {
		if err := h.db.Model(patient).Updates(updates).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update patient")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": patient,
	})
}
