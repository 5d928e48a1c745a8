package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"clinicpay/internal/models"
)

// SessionContext carries the authenticated clinic identity through a
// request. It is set on the echo context and passed explicitly into service
// calls; nothing reads identity from process-wide state.
type SessionContext struct {
	ClinicID uint
	UserUID  string
	Email    string
}

const sessionContextKey = "session"

// GetSession returns the request's session context, or nil outside the
// authenticated group.
func GetSession(c echo.Context) *SessionContext {
	if val, ok := c.Get(sessionContextKey).(*SessionContext); ok {
		return val
	}
	return nil
}

// RequireAuth verifies the Firebase session cookie and resolves the clinic
// the authenticated user owns.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Authentication is not configured")
			}

			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
			}

			decodedToken, err := authClient.VerifySessionCookie(c.Request().Context(), cookie.Value)
			if err != nil {
				// Invalid session, clear cookie
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please log in again")
			}

			session := &SessionContext{UserUID: decodedToken.UID}
			if email, ok := decodedToken.Claims["email"].(string); ok {
				session.Email = email
			}

			var clinic models.Clinic
			if err := db.Where("owner_uid = ?", decodedToken.UID).First(&clinic).Error; err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "No clinic is linked to this account")
			}
			session.ClinicID = clinic.ID

			c.Set(sessionContextKey, session)
			return next(c)
		}
	}
}
