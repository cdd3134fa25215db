package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Response represents one submitted answer set tied to a survey. A response
// is created exactly once, on successful validation, and never mutated.
type Response struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	SurveyID     uuid.UUID         `db:"survey_id" json:"surveyId"`
	SubmitterID  *string           `db:"submitter_id" json:"submitterId,omitempty"`
	VoterSession *string           `db:"voter_session" json:"voterSession,omitempty"`
	Answers      map[string]Answer `db:"answers" json:"answers"`
	SubmittedAt  time.Time         `db:"submitted_at" json:"submittedAt"`
}

// Answer holds one submitted answer value. The wire shape depends on the
// question type: a string for text, date, yes_no and multiple_choice
// questions; a number or numeric string for scale; a list of strings for
// multiple_selection.
type Answer struct {
	value interface{}
}

// StringAnswer wraps a plain string value
func StringAnswer(s string) Answer {
	return Answer{value: s}
}

// NumberAnswer wraps a numeric value
func NumberAnswer(n float64) Answer {
	return Answer{value: n}
}

// ListAnswer wraps a list of selected options
func ListAnswer(items ...string) Answer {
	return Answer{value: items}
}

// IsEmpty reports whether the answer carries no usable value. The empty
// string, an empty list and the number zero all count as empty, matching
// the required-question check.
func (a Answer) IsEmpty() bool {
	switch v := a.value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return v == 0
	case []string:
		return len(v) == 0
	}
	return true
}

// Text returns the answer as a string, if it is one
func (a Answer) Text() (string, bool) {
	s, ok := a.value.(string)
	return s, ok
}

// Number returns the answer coerced to a number. Numeric strings are
// accepted alongside plain numbers.
func (a Answer) Number() (float64, bool) {
	switch v := a.value.(type) {
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// List returns the answer as a list of selections. A bare string is
// tolerated as a single selection.
func (a Answer) List() ([]string, bool) {
	switch v := a.value.(type) {
	case []string:
		return v, true
	case string:
		if v == "" {
			return nil, true
		}
		return []string{v}, true
	}
	return nil, false
}

// UnmarshalJSON accepts a string, a number, or a list of strings
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		a.value = nil
	case string:
		a.value = v
	case float64:
		a.value = v
	case []interface{}:
		items := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("answer list element %d is not a string", i)
			}
			items[i] = s
		}
		a.value = items
	default:
		return fmt.Errorf("unsupported answer value of type %T", raw)
	}

	return nil
}

// MarshalJSON writes the raw value back in its submitted shape
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// RejectReason classifies why an answer set was rejected. Rejections are
// client input errors: surfaced synchronously, never retried.
type RejectReason string

const (
	RejectQuestionNotFound RejectReason = "question_not_found"
	RejectRequiredMissing  RejectReason = "required_not_answered"
	RejectInvalidOption    RejectReason = "invalid_option"
	RejectOutOfRange       RejectReason = "out_of_range"
)

// RejectError is the typed verdict for a failed answer set validation
type RejectError struct {
	Reason     RejectReason
	QuestionID string
	Message    string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("question '%s': %s", e.QuestionID, e.Message)
}

func reject(reason RejectReason, questionID, message string) *RejectError {
	return &RejectError{Reason: reason, QuestionID: questionID, Message: message}
}

// GenerateVoterSession creates a SHA256 hash for anonymous voter
// identification, salted per survey using surveyID + ip + userAgent
func GenerateVoterSession(surveyID uuid.UUID, ip string, userAgent string) string {
	data := fmt.Sprintf("%s:%s:%s", surveyID.String(), ip, userAgent)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ValidateAnswers validates a submitted answer set against the survey's
// questions. Questions are checked in schema order and the first violation
// wins; the function is pure and never modifies its inputs.
func ValidateAnswers(questions []Question, answers map[string]Answer) error {
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	// Answers for question ids that do not exist are rejected first.
	// Sorted so the reported id is stable regardless of map order.
	var unknown []string
	for id := range answers {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return reject(RejectQuestionNotFound, unknown[0], "question not found")
	}

	for _, q := range questions {
		answer, present := answers[q.ID]

		if q.Required && (!present || answer.IsEmpty()) {
			return reject(RejectRequiredMissing, q.ID, "required question not answered")
		}

		if !present || answer.IsEmpty() {
			continue
		}

		switch q.Type {
		case QuestionTypeMultipleChoice:
			value, ok := answer.Text()
			if !ok || !q.HasOption(value) {
				return reject(RejectInvalidOption, q.ID, fmt.Sprintf("'%v' is not a declared option", answer.value))
			}
		case QuestionTypeMultipleSelection:
			selections, ok := answer.List()
			if !ok {
				return reject(RejectInvalidOption, q.ID, "answer must be a list of options")
			}
			for _, sel := range selections {
				if !q.HasOption(sel) {
					return reject(RejectInvalidOption, q.ID, fmt.Sprintf("'%s' is not a declared option", sel))
				}
			}
		case QuestionTypeScale:
			value, ok := answer.Number()
			if !ok {
				return reject(RejectOutOfRange, q.ID, "answer is not a number")
			}
			if q.Bounds != nil && (value < float64(q.Bounds.Min) || value > float64(q.Bounds.Max)) {
				return reject(RejectOutOfRange, q.ID, fmt.Sprintf("%v is outside [%d, %d]", value, q.Bounds.Min, q.Bounds.Max))
			}
		case QuestionTypeText, QuestionTypeDate, QuestionTypeYesNo:
			// free-form values are accepted as-is
		}
	}

	return nil
}
