package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, h *Handlers, hh *HealthHandlers) {
	// Health check and metrics endpoints (no middleware)
	e.GET("/health", hh.Health)
	e.GET("/health/ready", hh.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Apply middleware to all other routes
	e.Use(RequestIDMiddleware())
	e.Use(MetricsMiddleware())
	e.Use(SecurityHeadersMiddleware())

	rateLimiters := NewRateLimiterConfig()
	bodyLimits := DefaultBodyLimitConfig()

	api := e.Group("/api/v1")

	readLimit := rateLimiters.GeneralAPI.Middleware()

	// Survey management
	api.POST("/surveys", h.CreateSurvey,
		rateLimiters.SurveyCreation.Middleware(), NewBodyLimitMiddleware(bodyLimits.DefinitionUpload))
	api.GET("/surveys", h.ListSurveys, readLimit)
	api.GET("/surveys/:slug", h.GetSurvey, readLimit)
	api.PUT("/surveys/:slug", h.UpdateSurvey,
		rateLimiters.SurveyCreation.Middleware(), NewBodyLimitMiddleware(bodyLimits.DefinitionUpload))

	// Response submission, results and export
	api.POST("/surveys/:slug/responses", h.SubmitResponse,
		rateLimiters.VoteSubmission.Middleware(), NewBodyLimitMiddleware(bodyLimits.AnswerSubmission))
	api.GET("/surveys/:slug/results", h.GetResults, readLimit)
	api.POST("/surveys/:slug/export", h.ExportResults,
		rateLimiters.Export.Middleware(), NewBodyLimitMiddleware(bodyLimits.Default))

	// Service counters
	api.GET("/stats", h.GetStats, readLimit)
}
