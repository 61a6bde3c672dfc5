package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the usual hardening headers. The CSP permits inline
// styles and same-origin assets so the print page and static UI render.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; frame-ancestors 'self'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			// Readings are personal health data.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
