package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body returned for every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CustomErrorHandler maps errors to JSON responses with a human-readable
// message where one is available, falling back to a generic one.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := ""

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	}

	if message == "" {
		switch code {
		case http.StatusNotFound:
			message = "The requested resource doesn't exist."
		case http.StatusForbidden:
			message = "You don't have permission to access this resource."
		case http.StatusUnauthorized:
			message = "Please log in to continue."
		case http.StatusBadRequest:
			message = "The request could not be processed."
		default:
			message = "Something went wrong. Please try again later."
		}
	}

	c.Logger().Error(err)

	if writeErr := c.JSON(code, ErrorResponse{Success: false, Error: message}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
