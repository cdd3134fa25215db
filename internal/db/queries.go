package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tallyform/tallyform/internal/models"
)

var (
	// ErrSurveyNotFound is returned when no survey matches the lookup
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrResponseNotFound is returned when no response matches the lookup
	ErrResponseNotFound = errors.New("response not found")
)

// Querier interface represents a database connection or transaction
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Queries provides database query methods
type Queries struct {
	db Querier
}

// NewQueries creates a new Queries instance
func NewQueries(db Querier) *Queries {
	return &Queries{db: db}
}

// Survey queries

// CreateSurvey inserts a new survey into the database
func (q *Queries) CreateSurvey(ctx context.Context, s *models.Survey) error {
	defJSON, err := json.Marshal(s.Definition)
	if err != nil {
		return fmt.Errorf("failed to marshal survey definition: %w", err)
	}

	query := `
		INSERT INTO surveys (id, owner_id, slug, title, description, definition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = q.db.ExecContext(
		ctx,
		query,
		s.ID,
		s.OwnerID,
		s.Slug,
		s.Title,
		s.Description,
		defJSON,
		s.CreatedAt,
		s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert survey: %w", err)
	}

	return nil
}

const surveyColumns = `id, owner_id, slug, title, description, definition, created_at, updated_at`

func (q *Queries) scanSurvey(row *sql.Row) (*models.Survey, error) {
	survey := &models.Survey{}
	var defJSON []byte

	err := row.Scan(
		&survey.ID,
		&survey.OwnerID,
		&survey.Slug,
		&survey.Title,
		&survey.Description,
		&defJSON,
		&survey.CreatedAt,
		&survey.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to query survey: %w", err)
	}

	if err := json.Unmarshal(defJSON, &survey.Definition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal survey definition: %w", err)
	}

	return survey, nil
}

// GetSurveyBySlug retrieves a survey by its slug
func (q *Queries) GetSurveyBySlug(ctx context.Context, slug string) (*models.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE slug = $1`
	return q.scanSurvey(q.db.QueryRowContext(ctx, query, slug))
}

// GetSurveyByID retrieves a survey by its id
func (q *Queries) GetSurveyByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE id = $1`
	return q.scanSurvey(q.db.QueryRowContext(ctx, query, id))
}

// ListSurveys retrieves surveys ordered by creation time, newest first
func (q *Queries) ListSurveys(ctx context.Context, limit, offset int) ([]*models.Survey, error) {
	query := `
		SELECT ` + surveyColumns + `
		FROM surveys
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := q.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	var surveys []*models.Survey
	for rows.Next() {
		survey := &models.Survey{}
		var defJSON []byte

		err := rows.Scan(
			&survey.ID,
			&survey.OwnerID,
			&survey.Slug,
			&survey.Title,
			&survey.Description,
			&defJSON,
			&survey.CreatedAt,
			&survey.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}

		if err := json.Unmarshal(defJSON, &survey.Definition); err != nil {
			return nil, fmt.Errorf("failed to unmarshal survey definition: %w", err)
		}

		surveys = append(surveys, survey)
	}

	return surveys, rows.Err()
}

// SlugExists checks whether a slug is already taken
func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM surveys WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// UpdateSurveyDefinition replaces a survey's question definition. Editing a
// live survey is permitted; historical answers that no longer match the new
// schema are skipped at aggregation time rather than repaired here.
func (q *Queries) UpdateSurveyDefinition(ctx context.Context, id uuid.UUID, def models.SurveyDefinition) error {
	defJSON, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal survey definition: %w", err)
	}

	result, err := q.db.ExecContext(ctx, `UPDATE surveys SET definition = $2, updated_at = NOW() WHERE id = $1`, id, defJSON)
	if err != nil {
		return fmt.Errorf("failed to update survey: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSurveyNotFound
	}

	return nil
}

// GetQuestions retrieves the ordered question schema list for a survey
func (q *Queries) GetQuestions(ctx context.Context, surveyID uuid.UUID) ([]models.Question, error) {
	survey, err := q.GetSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return survey.Definition.Questions, nil
}

// Response queries

// AppendResponse inserts a response and returns its assigned id. Responses
// are append-only: there is no update or delete path for them.
func (q *Queries) AppendResponse(ctx context.Context, r *models.Response) (uuid.UUID, error) {
	answersJSON, err := json.Marshal(r.Answers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		INSERT INTO responses (id, survey_id, submitter_id, voter_session, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = q.db.ExecContext(
		ctx,
		query,
		r.ID,
		r.SurveyID,
		r.SubmitterID,
		r.VoterSession,
		answersJSON,
		r.SubmittedAt,
	)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert response: %w", err)
	}

	return r.ID, nil
}

// GetResponses retrieves every response for a survey in submission order
func (q *Queries) GetResponses(ctx context.Context, surveyID uuid.UUID) ([]models.Response, error) {
	query := `
		SELECT id, survey_id, submitter_id, voter_session, answers, submitted_at
		FROM responses
		WHERE survey_id = $1
		ORDER BY submitted_at ASC
	`

	rows, err := q.db.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var r models.Response
		var answersJSON []byte

		err := rows.Scan(
			&r.ID,
			&r.SurveyID,
			&r.SubmitterID,
			&r.VoterSession,
			&answersJSON,
			&r.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}

		if err := json.Unmarshal(answersJSON, &r.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}

		responses = append(responses, r)
	}

	return responses, rows.Err()
}

// GetResponseBySurveyAndVoter retrieves a response by survey and voter
// identity, used for duplicate submission detection. Returns nil when no
// matching response exists.
func (q *Queries) GetResponseBySurveyAndVoter(ctx context.Context, surveyID uuid.UUID, submitterID, voterSession string) (*models.Response, error) {
	query := `
		SELECT id, survey_id, submitter_id, voter_session, answers, submitted_at
		FROM responses
		WHERE survey_id = $1 AND (
			(submitter_id IS NOT NULL AND submitter_id = $2)
			OR (voter_session IS NOT NULL AND voter_session = $3)
		)
		LIMIT 1
	`

	var r models.Response
	var answersJSON []byte

	err := q.db.QueryRowContext(ctx, query, surveyID, submitterID, voterSession).Scan(
		&r.ID,
		&r.SurveyID,
		&r.SubmitterID,
		&r.VoterSession,
		&answersJSON,
		&r.SubmittedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query response: %w", err)
	}

	if err := json.Unmarshal(answersJSON, &r.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}

	return &r, nil
}

// CountResponsesBySurvey returns the number of responses for a survey
func (q *Queries) CountResponsesBySurvey(ctx context.Context, surveyID uuid.UUID) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses WHERE survey_id = $1`, surveyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// GetStats retrieves service-wide counters
func (q *Queries) GetStats(ctx context.Context) (*models.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM surveys) as survey_count,
			(SELECT COUNT(*) FROM responses) as response_count,
			(SELECT COUNT(DISTINCT submitter_id) FROM responses WHERE submitter_id IS NOT NULL) as user_count
	`

	stats := &models.Stats{}
	err := q.db.QueryRowContext(ctx, query).Scan(
		&stats.SurveyCount,
		&stats.ResponseCount,
		&stats.UniqueUserCount,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}
