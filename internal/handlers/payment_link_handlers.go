package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"clinicpay/internal/middleware"
	"clinicpay/internal/models"
)

// PaymentLinkHandler handles payment link CRUD for a clinic
type PaymentLinkHandler struct {
	db *gorm.DB
}

func NewPaymentLinkHandler(db *gorm.DB) *PaymentLinkHandler {
	return &PaymentLinkHandler{db: db}
}

func (h *PaymentLinkHandler) loadClinicLink(c echo.Context) (*models.PaymentLink, error) {
	session := middleware.GetSession(c)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid payment link ID")
	}

	var link models.PaymentLink
	if err := h.db.First(&link, uint(id)).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Payment link not found")
	}
	if link.ClinicID != session.ClinicID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Payment link belongs to a different clinic")
	}
	return &link, nil
}

// ListPaymentLinks returns the clinic's payment links
func (h *PaymentLinkHandler) ListPaymentLinks(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	var links []models.PaymentLink
	if err := h.db.Where("clinic_id = ?", session.ClinicID).
		Order("created_at desc").
		Find(&links).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch payment links")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"links":   links,
	})
}

// CreatePaymentLink creates a payment link under the clinic
func (h *PaymentLinkHandler) CreatePaymentLink(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	var req CreatePaymentLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Title == "" || req.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title and slug are required")
	}

	link := models.PaymentLink{
		ClinicID:    session.ClinicID,
		Title:       req.Title,
		Slug:        req.Slug,
		Amount:      req.Amount,
		Description: req.Description,
		IsActive:    true,
	}
	if err := h.db.Create(&link).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to create payment link, the slug may already be taken")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"link":    link,
	})
}

// DeactivatePaymentLink turns a payment link off without deleting it
func (h *PaymentLinkHandler) DeactivatePaymentLink(c echo.Context) error {
	link, err := h.loadClinicLink(c)
	if err != nil {
		return err
	}

	if err := h.db.Model(link).Update("is_active", false).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to deactivate payment link")
	}
	return c.JSON(http.StatusOK, OperationResponse{Success: true})
}
