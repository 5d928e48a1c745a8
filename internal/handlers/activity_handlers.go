package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"clinicpay/internal/middleware"
	"clinicpay/internal/models"
	"clinicpay/internal/services"
)

// ActivityHandler serves the payment activity feed
type ActivityHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewActivityHandler(db *gorm.DB, cache *services.RedisCache) *ActivityHandler {
	return &ActivityHandler{db: db, cache: cache}
}

const activityFeedLimit = 50

// ListClinicActivity returns the clinic's recent activity, newest first. The
// feed is append-only so a short cache window is safe.
func (h *ActivityHandler) ListClinicActivity(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	fetch := func() ([]models.PaymentActivity, error) {
		var activities []models.PaymentActivity
		err := h.db.Where("clinic_id = ?", session.ClinicID).
			Order("created_at desc").
			Limit(activityFeedLimit).
			Find(&activities).Error
		return activities, err
	}

	var activities []models.PaymentActivity
	var err error
	if h.cache != nil {
		key := fmt.Sprintf("clinic-activity:%d", session.ClinicID)
		activities, err = services.GetOrSet(h.cache, c.Request().Context(), key, 30*time.Second, fetch)
	} else {
		activities, err = fetch()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch activity")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"activities": activities,
	})
}

// ListPlanActivity returns the audit trail for one plan
func (h *ActivityHandler) ListPlanActivity(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	}

	planID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid plan ID")
	}

	var plan models.Plan
	if err := h.db.First(&plan, uint(planID)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Plan not found")
	}
	if plan.ClinicID != session.ClinicID {
		return echo.NewHTTPError(http.StatusForbidden, "Plan belongs to a different clinic")
	}

	var activities []models.PaymentActivity
	if err := h.db.Where("plan_id = ?", plan.ID).
		Order("created_at desc").
		Find(&activities).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch activity")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"activities": activities,
	})
}
