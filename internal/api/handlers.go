package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tallyform/tallyform/internal/models"
	"github.com/tallyform/tallyform/internal/results"
	"github.com/tallyform/tallyform/internal/telemetry"
)

// QueriesInterface defines the survey CRUD surface the handlers consume.
// This allows for mocking in tests.
type QueriesInterface interface {
	CreateSurvey(ctx context.Context, s *models.Survey) error
	GetSurveyBySlug(ctx context.Context, slug string) (*models.Survey, error)
	ListSurveys(ctx context.Context, limit, offset int) ([]*models.Survey, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateSurveyDefinition(ctx context.Context, id uuid.UUID, def models.SurveyDefinition) error
	CountResponsesBySurvey(ctx context.Context, surveyID uuid.UUID) (int, error)
	GetStats(ctx context.Context) (*models.Stats, error)
}

// Engine defines the validation/aggregation engine surface the handlers
// consume: submission, cache-aside results, export, cache invalidation
type Engine interface {
	GetResults(ctx context.Context, surveyID uuid.UUID, requester string) (*models.Report, error)
	SubmitResponse(ctx context.Context, survey *models.Survey, answers map[string]models.Answer, submitterID, voterSession string) (*models.Response, error)
	Export(ctx context.Context, surveyID uuid.UUID, requester, recipient string) (string, error)
	Invalidate(ctx context.Context, surveyID uuid.UUID)
}

// Handlers holds the HTTP handlers and dependencies
type Handlers struct {
	queries QueriesInterface
	engine  Engine
}

// NewHandlers creates a new Handlers instance
func NewHandlers(q QueriesInterface, engine Engine) *Handlers {
	return &Handlers{
		queries: q,
		engine:  engine,
	}
}

// requesterID returns the caller identity established by the upstream
// auth layer. Authentication itself is external; an empty value means an
// anonymous caller.
func requesterID(c echo.Context) string {
	return c.Request().Header.Get("X-Requester-ID")
}

// CreateSurvey creates a new survey
// POST /api/v1/surveys
func (h *Handlers) CreateSurvey(c echo.Context) error {
	var req CreateSurveyRequest
	if err := c.Bind(&req); err != nil {
		return ValidationError(c, "Invalid request body", err.Error())
	}

	if strings.TrimSpace(req.Definition) == "" {
		return ValidationError(c, "Invalid survey definition", "definition is required")
	}

	def, err := models.ParseSurveyDefinition([]byte(req.Definition))
	if err != nil {
		return ValidationError(c, "Invalid survey definition", err.Error())
	}

	if err := def.ValidateDefinition(); err != nil {
		return ValidationError(c, "Invalid survey definition", err.Error())
	}

	title := models.SanitizeText(req.Title)
	if title == "" {
		title = "Untitled survey"
	}

	slug := req.Slug
	if slug == "" {
		slug = generateSlug(title)
	}
	if err := models.ValidateSlug(slug); err != nil {
		return ValidationError(c, "Invalid slug", err.Error())
	}

	exists, err := h.queries.SlugExists(c.Request().Context(), slug)
	if err != nil {
		return InternalServerError(c, "Failed to check slug", err)
	}
	if exists {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Slug already taken",
			Details: fmt.Sprintf("A survey with slug '%s' already exists", slug),
		})
	}

	now := time.Now().UTC()
	survey := &models.Survey{
		ID:         uuid.New(),
		Slug:       slug,
		Title:      title,
		Definition: *def,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if owner := requesterID(c); owner != "" {
		survey.OwnerID = &owner
	}

	if err := h.queries.CreateSurvey(c.Request().Context(), survey); err != nil {
		return InternalServerError(c, "Failed to create survey", err)
	}

	return c.JSON(http.StatusCreated, ToSurveyResponse(survey, true))
}

// GetSurvey retrieves a survey by slug, including its response count
// GET /api/v1/surveys/:slug
func (h *Handlers) GetSurvey(c echo.Context) error {
	survey, err := h.queries.GetSurveyBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return RespondError(c, err)
	}

	count, err := h.queries.CountResponsesBySurvey(c.Request().Context(), survey.ID)
	if err != nil {
		return InternalServerError(c, "Failed to count responses", err)
	}

	resp := ToSurveyResponse(survey, true)
	resp.ResponseCount = &count

	return c.JSON(http.StatusOK, resp)
}

// UpdateSurvey replaces a survey's question definition. Editing a live
// survey is permitted; answers recorded under the old schema are tolerated
// at aggregation time rather than migrated.
// PUT /api/v1/surveys/:slug
func (h *Handlers) UpdateSurvey(c echo.Context) error {
	survey, err := h.queries.GetSurveyBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return RespondError(c, err)
	}

	if requester := requesterID(c); requester != "" && survey.OwnerID != nil && *survey.OwnerID != requester {
		return RespondError(c, results.ErrNotOwner)
	}

	var req UpdateSurveyRequest
	if err := c.Bind(&req); err != nil {
		return ValidationError(c, "Invalid request body", err.Error())
	}

	if strings.TrimSpace(req.Definition) == "" {
		return ValidationError(c, "Invalid survey definition", "definition is required")
	}

	def, err := models.ParseSurveyDefinition([]byte(req.Definition))
	if err != nil {
		return ValidationError(c, "Invalid survey definition", err.Error())
	}

	if err := def.ValidateDefinition(); err != nil {
		return ValidationError(c, "Invalid survey definition", err.Error())
	}

	if err := h.queries.UpdateSurveyDefinition(c.Request().Context(), survey.ID, *def); err != nil {
		return RespondError(c, err)
	}

	// cached reports were computed against the old schema
	h.engine.Invalidate(c.Request().Context(), survey.ID)

	survey.Definition = *def
	return c.JSON(http.StatusOK, ToSurveyResponse(survey, true))
}

// ListSurveys lists surveys, newest first
// GET /api/v1/surveys?limit=20&offset=0
func (h *Handlers) ListSurveys(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	surveys, err := h.queries.ListSurveys(c.Request().Context(), limit, offset)
	if err != nil {
		return InternalServerError(c, "Failed to list surveys", err)
	}

	list := make([]*SurveyResponse, len(surveys))
	for i, s := range surveys {
		list[i] = ToSurveyResponse(s, false)
	}

	return c.JSON(http.StatusOK, list)
}

// SubmitResponse validates and stores a survey response
// POST /api/v1/surveys/:slug/responses
func (h *Handlers) SubmitResponse(c echo.Context) error {
	survey, err := h.queries.GetSurveyBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return RespondError(c, err)
	}

	var req SubmitResponseRequest
	if err := c.Bind(&req); err != nil {
		return ValidationError(c, "Invalid request body", err.Error())
	}

	submitter := requesterID(c)
	voterSession := ""
	if submitter == "" {
		// anonymous submissions are deduplicated per survey+ip+user-agent
		voterSession = models.GenerateVoterSession(survey.ID, getClientIP(c), c.Request().UserAgent())
	}

	response, err := h.engine.SubmitResponse(c.Request().Context(), survey, req.Answers, submitter, voterSession)
	if err != nil {
		var reject *models.RejectError
		if errors.As(err, &reject) {
			telemetry.ResponseRejectionsTotal.WithLabelValues(string(reject.Reason)).Inc()
		}
		return RespondError(c, err)
	}

	telemetry.SurveyResponsesTotal.WithLabelValues("api").Inc()

	return c.JSON(http.StatusCreated, ResponseSubmittedResponse{
		ID:          response.ID,
		SurveyID:    survey.ID,
		SubmittedAt: response.SubmittedAt,
	})
}

// GetResults retrieves the aggregated report for a survey
// GET /api/v1/surveys/:slug/results
func (h *Handlers) GetResults(c echo.Context) error {
	survey, err := h.queries.GetSurveyBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return RespondError(c, err)
	}

	report, err := h.engine.GetResults(c.Request().Context(), survey.ID, requesterID(c))
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

// ExportResults builds a CSV export and returns a signed download URL
// POST /api/v1/surveys/:slug/export
func (h *Handlers) ExportResults(c echo.Context) error {
	survey, err := h.queries.GetSurveyBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return RespondError(c, err)
	}

	var req struct {
		Email string `json:"email"`
	}
	// body is optional; ignore bind errors for an empty body
	_ = c.Bind(&req)

	url, err := h.engine.Export(c.Request().Context(), survey.ID, requesterID(c), strings.TrimSpace(req.Email))
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(http.StatusOK, ExportResponse{
		URL:       url,
		ExpiresIn: results.ExportURLTTL,
	})
}

// GetStats returns service-wide counters
// GET /api/v1/stats
func (h *Handlers) GetStats(c echo.Context) error {
	stats, err := h.queries.GetStats(c.Request().Context())
	if err != nil {
		return InternalServerError(c, "Failed to retrieve stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Helper functions

var slugifyRegex = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug creates a URL-friendly slug from a title, with a short
// random suffix to keep collisions rare
func generateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugifyRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 40 {
		slug = slug[:40]
		slug = strings.Trim(slug, "-")
	}

	suffix := uuid.New().String()[:6]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

// Health handlers

// DBChecker defines the interface for checking database health
type DBChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandlers holds the health endpoints' dependencies
type HealthHandlers struct {
	db DBChecker
}

// NewHealthHandlers creates a new HealthHandlers instance
func NewHealthHandlers(db DBChecker) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Health is a liveness probe
// GET /health
func (hh *HealthHandlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks the database connection
// GET /health/ready
func (hh *HealthHandlers) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := hh.db.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "database unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
