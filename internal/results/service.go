// Package results drives the per-question calculators across a survey and
// owns the cache-aside policy around the computed report: read cache, on
// miss pull schema and responses, compute, write cache with a short TTL.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tallyform/tallyform/internal/blob"
	"github.com/tallyform/tallyform/internal/cache"
	"github.com/tallyform/tallyform/internal/export"
	"github.com/tallyform/tallyform/internal/mailer"
	"github.com/tallyform/tallyform/internal/models"
	"github.com/tallyform/tallyform/internal/notify"
	"github.com/tallyform/tallyform/internal/stats"
	"github.com/tallyform/tallyform/internal/telemetry"
)

var (
	// ErrNotOwner is returned when the requester does not own the survey
	ErrNotOwner = errors.New("requester does not own this survey")
	// ErrDuplicateResponse is returned when the voter already submitted
	ErrDuplicateResponse = errors.New("response already submitted for this survey")
)

// ReportTTL is how long a computed report stays cached. Freshness is
// deliberately traded for read cost: a just-expired report is recomputed
// from scratch on the next miss.
const ReportTTL = 30 * time.Second

// ExportURLTTL is how long a signed export download link stays valid
const ExportURLTTL = 15 * time.Minute

// Store is the document store contract the engine consumes
type Store interface {
	GetSurveyByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	GetQuestions(ctx context.Context, surveyID uuid.UUID) ([]models.Question, error)
	GetResponses(ctx context.Context, surveyID uuid.UUID) ([]models.Response, error)
	AppendResponse(ctx context.Context, r *models.Response) (uuid.UUID, error)
	GetResponseBySurveyAndVoter(ctx context.Context, surveyID uuid.UUID, submitterID, voterSession string) (*models.Response, error)
}

// Service assembles reports and accepts validated submissions
type Service struct {
	store    Store
	cache    cache.Store
	blobs    blob.Storage
	notifier notify.Notifier
	mail     mailer.Mailer
}

// NewService wires the engine to its collaborators. Notifier and mailer
// may be the no-op implementations; store and cache are required.
func NewService(store Store, c cache.Store, blobs blob.Storage, notifier notify.Notifier, mail mailer.Mailer) *Service {
	return &Service{
		store:    store,
		cache:    c,
		blobs:    blobs,
		notifier: notifier,
		mail:     mail,
	}
}

func reportKey(surveyID uuid.UUID) string {
	return "results:" + surveyID.String()
}

func responsesKey(surveyID uuid.UUID) string {
	return "responses:" + surveyID.String()
}

// GetResults returns the aggregation report for a survey, cache-aside.
// A non-empty requester must match the survey's owner when the survey has
// one; ownership failures are distinct from validation and not-found.
func (s *Service) GetResults(ctx context.Context, surveyID uuid.UUID, requester string) (*models.Report, error) {
	survey, err := s.store.GetSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if err := checkOwnership(survey, requester); err != nil {
		return nil, err
	}

	if cached, err := s.cache.Get(ctx, reportKey(surveyID)); err == nil {
		var report models.Report
		if err := json.Unmarshal(cached, &report); err == nil {
			telemetry.AggregationCacheLookups.WithLabelValues("hit").Inc()
			return &report, nil
		}
		log.Printf("discarding undecodable cached report for survey %s", surveyID)
	} else if !errors.Is(err, cache.ErrMiss) {
		// cache trouble degrades to a miss, never to a failed read
		log.Printf("report cache read failed for survey %s: %v", surveyID, err)
	}
	telemetry.AggregationCacheLookups.WithLabelValues("miss").Inc()

	questions, responses, err := s.fetchSchemaAndResponses(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		SurveyID:       surveyID,
		TotalResponses: len(responses),
		PerQuestion:    stats.Aggregate(questions, responses),
		GeneratedAt:    time.Now().UTC(),
	}

	if encoded, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, reportKey(surveyID), encoded, ReportTTL); err != nil {
			log.Printf("report cache write failed for survey %s: %v", surveyID, err)
		}
	}

	return report, nil
}

// fetchSchemaAndResponses issues the two independent fetches concurrently;
// neither blocks the other and there is no ordering dependency between them.
func (s *Service) fetchSchemaAndResponses(ctx context.Context, surveyID uuid.UUID) ([]models.Question, []models.Response, error) {
	var (
		wg           sync.WaitGroup
		questions    []models.Question
		responses    []models.Response
		qErr, rspErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		questions, qErr = s.store.GetQuestions(ctx, surveyID)
	}()
	go func() {
		defer wg.Done()
		responses, rspErr = s.cachedResponses(ctx, surveyID)
	}()
	wg.Wait()

	if qErr != nil {
		return nil, nil, fmt.Errorf("fetch questions: %w", qErr)
	}
	if rspErr != nil {
		return nil, nil, fmt.Errorf("fetch responses: %w", rspErr)
	}

	return questions, responses, nil
}

// cachedResponses reads the raw response list through the cache. Store
// failures propagate: serving a report from stale data when the store is
// down would be silently wrong.
func (s *Service) cachedResponses(ctx context.Context, surveyID uuid.UUID) ([]models.Response, error) {
	key := responsesKey(surveyID)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var responses []models.Response
		if err := json.Unmarshal(cached, &responses); err == nil {
			return responses, nil
		}
	}

	responses, err := s.store.GetResponses(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(responses); err == nil {
		if err := s.cache.Set(ctx, key, encoded, ReportTTL); err != nil {
			log.Printf("response cache write failed for survey %s: %v", surveyID, err)
		}
	}

	return responses, nil
}

// SubmitResponse validates an answer set against the survey's questions
// and, on acceptance, appends it and invalidates the survey's cached
// aggregation before returning. The submission timestamp is assigned here.
func (s *Service) SubmitResponse(ctx context.Context, survey *models.Survey, answers map[string]models.Answer, submitterID, voterSession string) (*models.Response, error) {
	if err := models.ValidateAnswers(survey.Definition.Questions, answers); err != nil {
		return nil, err
	}

	existing, err := s.store.GetResponseBySurveyAndVoter(ctx, survey.ID, submitterID, voterSession)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateResponse
	}

	response := &models.Response{
		ID:          uuid.New(),
		SurveyID:    survey.ID,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	}
	if submitterID != "" {
		response.SubmitterID = &submitterID
	}
	if voterSession != "" {
		response.VoterSession = &voterSession
	}

	if _, err := s.store.AppendResponse(ctx, response); err != nil {
		return nil, err
	}

	// invalidate before returning so the next read reflects this response
	s.Invalidate(ctx, survey.ID)

	if err := s.notifier.Publish(ctx, "surveys", "response.created", map[string]string{
		"surveyId":   survey.ID.String(),
		"responseId": response.ID.String(),
	}); err != nil {
		log.Printf("response.created publish failed for survey %s: %v", survey.ID, err)
	}

	return response, nil
}

// Invalidate drops the cached report and raw-response list for a survey.
// Cache failures are logged and swallowed: the worst case is one stale
// report served for the remainder of the TTL window.
func (s *Service) Invalidate(ctx context.Context, surveyID uuid.UUID) {
	if err := s.cache.Delete(ctx, reportKey(surveyID)); err != nil {
		log.Printf("report cache invalidation failed for survey %s: %v", surveyID, err)
	}
	if err := s.cache.DeletePrefix(ctx, responsesKey(surveyID)); err != nil {
		log.Printf("response cache invalidation failed for survey %s: %v", surveyID, err)
	}
}

// Export flattens the survey's responses into a CSV table, uploads it to
// object storage and returns a signed, time-limited download URL. When
// recipient is non-empty the link is also mailed, best-effort.
func (s *Service) Export(ctx context.Context, surveyID uuid.UUID, requester, recipient string) (string, error) {
	if s.blobs == nil {
		return "", errors.New("export storage is not configured")
	}

	survey, err := s.store.GetSurveyByID(ctx, surveyID)
	if err != nil {
		return "", err
	}

	if err := checkOwnership(survey, requester); err != nil {
		return "", err
	}

	questions, responses, err := s.fetchSchemaAndResponses(ctx, surveyID)
	if err != nil {
		return "", err
	}

	table, err := export.BuildCSV(questions, responses)
	if err != nil {
		return "", fmt.Errorf("build export: %w", err)
	}

	path := fmt.Sprintf("exports/%s/%s-%d.csv", surveyID, survey.Slug, time.Now().UTC().Unix())
	if err := s.blobs.Put(ctx, path, table, export.ContentType); err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}

	url, err := s.blobs.SignedURL(ctx, path, ExportURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign export: %w", err)
	}

	telemetry.ExportsTotal.Inc()

	if recipient != "" {
		subject := fmt.Sprintf("Export ready: %s", survey.Title)
		body := fmt.Sprintf("Your export of %q is ready.\n\nDownload (valid %s): %s\n", survey.Title, ExportURLTTL, url)
		if err := s.mail.Send(ctx, recipient, subject, body); err != nil {
			log.Printf("export mail to %s failed: %v", recipient, err)
		}
	}

	return url, nil
}

func checkOwnership(survey *models.Survey, requester string) error {
	if requester == "" || survey.OwnerID == nil {
		return nil
	}
	if *survey.OwnerID != requester {
		return ErrNotOwner
	}
	return nil
}
