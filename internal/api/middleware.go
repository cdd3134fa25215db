package api

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tallyform/tallyform/internal/telemetry"
)

// RequestIDMiddleware tags every request with an X-Request-ID, keeping a
// caller-supplied one when present
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.New().String()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			c.Set("request_id", rid)

			return next(c)
		}
	}
}

// MetricsMiddleware records request durations for Prometheus, labeled by
// the route pattern (/surveys/:slug, not the concrete path) to keep label
// cardinality bounded
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			status := strconv.Itoa(c.Response().Status)

			telemetry.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, status).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// BodyLimitConfig caps request body sizes per route class
type BodyLimitConfig struct {
	DefinitionUpload string // survey create/update: a full JSON or YAML definition
	AnswerSubmission string // one answer set
	Default          string // everything else
}

// DefaultBodyLimitConfig returns the body size caps. DefinitionUpload
// matches the parser's own definition size limit.
func DefaultBodyLimitConfig() BodyLimitConfig {
	return BodyLimitConfig{
		DefinitionUpload: "100KB",
		AnswerSubmission: "10KB",
		Default:          "1MB",
	}
}

// NewBodyLimitMiddleware creates a body limit middleware with the given limit
func NewBodyLimitMiddleware(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
