package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/tallyform/tallyform/internal/models"
)

// CreateSurveyRequest represents the request body for creating a survey
type CreateSurveyRequest struct {
	Slug       string `json:"slug"`       // optional, auto-generated if missing
	Title      string `json:"title"`      // optional, defaults to slug
	Definition string `json:"definition"` // YAML or JSON string
}

// UpdateSurveyRequest represents the request body for replacing a survey's
// question definition
type UpdateSurveyRequest struct {
	Definition string `json:"definition"` // YAML or JSON string
}

// SurveyResponse represents a survey in API responses
type SurveyResponse struct {
	ID            uuid.UUID                `json:"id"`
	Slug          string                   `json:"slug"`
	Title         string                   `json:"title"`
	Description   *string                  `json:"description,omitempty"`
	Definition    *models.SurveyDefinition `json:"definition,omitempty"` // omitted in list view
	ResponseCount *int                     `json:"responseCount,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// SubmitResponseRequest represents the request body for submitting a
// survey response
type SubmitResponseRequest struct {
	Answers map[string]models.Answer `json:"answers"`
}

// ResponseSubmittedResponse represents the response after submitting a
// survey response
type ResponseSubmittedResponse struct {
	ID          uuid.UUID `json:"id"`
	SurveyID    uuid.UUID `json:"surveyId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ExportResponse carries the signed download URL for a finished export
type ExportResponse struct {
	URL       string        `json:"url"`
	ExpiresIn time.Duration `json:"expiresIn"`
}

// ErrorResponse represents an error response. Reason and QuestionID are
// set only for answer validation rejections, so clients can distinguish
// reject classes without parsing the message.
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Reason     string `json:"reason,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
}

// ToSurveyResponse converts a models.Survey to a SurveyResponse
func ToSurveyResponse(s *models.Survey, includeDefinition bool) *SurveyResponse {
	resp := &SurveyResponse{
		ID:          s.ID,
		Slug:        s.Slug,
		Title:       s.Title,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}

	if includeDefinition {
		resp.Definition = &s.Definition
	}

	return resp
}
