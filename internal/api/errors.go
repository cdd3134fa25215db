package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/tallyform/tallyform/internal/db"
	"github.com/tallyform/tallyform/internal/models"
	"github.com/tallyform/tallyform/internal/results"
)

// getTraceID extracts the trace ID from the OpenTelemetry span context
// Returns empty string if no active span exists
func getTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// InternalServerError returns a sanitized 500 error response to the client
// and logs the full error details server-side with the trace ID for
// debugging. The actual error is logged but never sent to the client.
func InternalServerError(c echo.Context, userMessage string, err error) error {
	traceID := getTraceID(c.Request().Context())

	if traceID != "" {
		c.Logger().Errorf("[%s] %s: %v", traceID, userMessage, err)
	} else {
		c.Logger().Errorf("%s: %v", userMessage, err)
	}

	response := ErrorResponse{
		Error: userMessage,
	}

	// The trace ID is safe to show - it's just a reference
	if traceID != "" {
		response.Details = fmt.Sprintf("Reference: %s", traceID)
	}

	return c.JSON(http.StatusInternalServerError, response)
}

// ValidationError returns a 400 error response with full details.
// Validation errors are safe to show because they're controlled messages.
func ValidationError(c echo.Context, message string, details string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RespondError maps the engine's error taxonomy to HTTP responses: input
// rejections are 400, ownership failures 403, unknown surveys 404,
// duplicate submissions 409, everything else a sanitized 500. Store
// failures land in the 500 branch; cache, notifier and mailer failures
// never reach this function.
func RespondError(c echo.Context, err error) error {
	var reject *models.RejectError
	if errors.As(err, &reject) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:      "Invalid answers",
			Details:    reject.Error(),
			Reason:     string(reject.Reason),
			QuestionID: reject.QuestionID,
		})
	}

	switch {
	case errors.Is(err, db.ErrSurveyNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Survey not found",
		})
	case errors.Is(err, results.ErrNotOwner):
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "You do not have access to this survey",
		})
	case errors.Is(err, results.ErrDuplicateResponse):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Already submitted",
			Details: "You have already submitted a response to this survey",
		})
	}

	return InternalServerError(c, "Request failed", err)
}
