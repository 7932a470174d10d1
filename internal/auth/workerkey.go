package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// WorkerKeyMiddleware guards /internal routes with the static worker
// credential. It is deliberately separate from the user JWT path: the
// worker has no per-user session.
func WorkerKeyMiddleware(workerKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented := c.Request().Header.Get("X-Worker-Key")
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(workerKey)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid worker key"})
			}
			return next(c)
		}
	}
}
