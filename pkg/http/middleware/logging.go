package middleware

import (
	"time"

	applogger "MarketSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs each request with method, path, status and latency.
// Probe and scrape paths are skipped to keep the log readable.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.URL.Path == "/healthz" || req.URL.Path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			l.Info("http request",
				applogger.String("method", req.Method),
				applogger.String("path", req.RequestURI),
				applogger.String("remote", req.RemoteAddr),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency", latency),
			)
			return err
		}
	}
}
