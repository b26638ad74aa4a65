package middlewares

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorHandler logs handler errors and normalizes everything that is not
// already an HTTPError into an opaque 500.
func ErrorHandler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}
			logrus.Error("Error request: ", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process request"})
		}
	}
}
