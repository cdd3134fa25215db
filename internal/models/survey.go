package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// QuestionType represents the type of question
type QuestionType string

const (
	QuestionTypeMultipleChoice    QuestionType = "multiple_choice"
	QuestionTypeMultipleSelection QuestionType = "multiple_selection"
	QuestionTypeYesNo             QuestionType = "yes_no"
	QuestionTypeText              QuestionType = "text"
	QuestionTypeScale             QuestionType = "scale"
	QuestionTypeDate              QuestionType = "date"
)

// Survey represents a survey definition stored in the database
type Survey struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	OwnerID     *string          `db:"owner_id" json:"ownerId,omitempty"`
	Slug        string           `db:"slug" json:"slug"`
	Title       string           `db:"title" json:"title"`
	Description *string          `db:"description" json:"description,omitempty"`
	Definition  SurveyDefinition `db:"definition" json:"definition"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// SurveyDefinition represents the survey structure stored as JSONB
type SurveyDefinition struct {
	Questions []Question `json:"questions" yaml:"questions"`
	Anonymous bool       `json:"anonymous" yaml:"anonymous"`
}

// Question represents a single survey question
type Question struct {
	ID       string       `json:"id" yaml:"id"`
	Text     string       `json:"text" yaml:"text"`
	Type     QuestionType `json:"type" yaml:"type"`
	Required bool         `json:"required" yaml:"required"`
	Options  []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Bounds   *Bounds      `json:"validation,omitempty" yaml:"validation,omitempty"`
	Order    int          `json:"order" yaml:"order"`
}

// Bounds holds the inclusive numeric range for scale questions
type Bounds struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// HasOption reports whether value matches one of the declared options exactly
func (q *Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Security limits for definition parsing
const (
	MaxSurveyDefinitionSize = 100 * 1024 // 100KB
	MaxQuestions            = 50
	MaxOptionsPerQuestion   = 20
	MaxQuestionTextLength   = 1000
	MaxOptionTextLength     = 500
	MaxTextAnswerLength     = 5000 // Maximum length for free-form text answers
)

// Matches dangerous HTML tags (script, iframe, object, embed, link, style, img)
var dangerousTagsRegex = regexp.MustCompile(`(?i)<\s*(script|iframe|object|embed|link|style|img)(\s+[^>]*)?>(.*?)</\s*(script|iframe|object|embed|link|style|img)\s*>|<\s*(script|iframe|object|embed|link|style|img)(\s+[^>]*)?>`)

// SanitizeText removes dangerous HTML tags and control characters from user
// input. Legitimate whitespace (newline, tab, carriage return) is preserved.
func SanitizeText(input string) string {
	sanitized := dangerousTagsRegex.ReplaceAllString(input, "")

	sanitized = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		return -1
	}, sanitized)

	return strings.TrimSpace(sanitized)
}

// ParseSurveyDefinition parses a survey definition from JSON or YAML
func ParseSurveyDefinition(data []byte) (*SurveyDefinition, error) {
	if len(data) > MaxSurveyDefinitionSize {
		return nil, fmt.Errorf("survey definition too large: %d bytes exceeds maximum of 100KB", len(data))
	}

	var def SurveyDefinition

	// Try JSON first
	if err := json.Unmarshal(data, &def); err == nil {
		return &def, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}

	return &def, nil
}

// ValidateDefinition validates the survey definition. These are the
// schema-level checks run when a question set is defined or edited; the
// answer validator and the calculators both assume they already passed.
func (d *SurveyDefinition) ValidateDefinition() error {
	if len(d.Questions) == 0 {
		return errors.New("survey must have at least one question")
	}

	if len(d.Questions) > MaxQuestions {
		return fmt.Errorf("too many questions: %d exceeds maximum of 50", len(d.Questions))
	}

	questionIDs := make(map[string]bool)

	for i, q := range d.Questions {
		if q.ID == "" {
			return fmt.Errorf("question %d: question ID is required", i)
		}

		if questionIDs[q.ID] {
			return fmt.Errorf("question %d: duplicate question ID '%s'", i, q.ID)
		}
		questionIDs[q.ID] = true

		d.Questions[i].Text = SanitizeText(q.Text)

		if d.Questions[i].Text == "" {
			return fmt.Errorf("question %d: question text is required", i)
		}

		if len(d.Questions[i].Text) > MaxQuestionTextLength {
			return fmt.Errorf("question %d: question text too long: %d characters exceeds maximum of 1000", i, len(d.Questions[i].Text))
		}

		switch q.Type {
		case QuestionTypeMultipleChoice, QuestionTypeMultipleSelection:
			if err := d.validateOptions(i); err != nil {
				return err
			}
		case QuestionTypeScale:
			if q.Bounds == nil {
				return fmt.Errorf("question %d: scale questions require validation bounds", i)
			}
			if q.Bounds.Min >= q.Bounds.Max {
				return fmt.Errorf("question %d: scale min must be less than max, got [%d, %d]", i, q.Bounds.Min, q.Bounds.Max)
			}
		case QuestionTypeYesNo, QuestionTypeText, QuestionTypeDate:
			// no structural constraint beyond non-empty text
		default:
			return fmt.Errorf("question %d: invalid question type '%s'", i, q.Type)
		}
	}

	return nil
}

func (d *SurveyDefinition) validateOptions(i int) error {
	q := d.Questions[i]

	if len(q.Options) < 2 {
		return fmt.Errorf("question %d: choice questions must have at least 2 options", i)
	}

	if len(q.Options) > MaxOptionsPerQuestion {
		return fmt.Errorf("question %d: too many options: %d exceeds maximum of 20", i, len(q.Options))
	}

	seen := make(map[string]bool)
	for j, opt := range q.Options {
		sanitized := SanitizeText(opt)
		d.Questions[i].Options[j] = sanitized

		if sanitized == "" {
			return fmt.Errorf("question %d, option %d: option text is required", i, j)
		}

		if len(sanitized) > MaxOptionTextLength {
			return fmt.Errorf("question %d, option %d: option text too long: %d characters exceeds maximum of 500", i, j, len(sanitized))
		}

		if seen[sanitized] {
			return fmt.Errorf("question %d: duplicate option '%s'", i, sanitized)
		}
		seen[sanitized] = true
	}

	return nil
}

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]{3}$`)

// ValidateSlug validates a survey slug
func ValidateSlug(slug string) error {
	if len(slug) < 3 || len(slug) > 50 {
		return errors.New("slug must be between 3 and 50 characters")
	}

	if !slugRegex.MatchString(slug) {
		return errors.New("slug must contain only lowercase letters, numbers, and hyphens (cannot start or end with hyphen)")
	}

	return nil
}

// Stats represents service-wide counters exposed on the health surface
type Stats struct {
	SurveyCount     int `json:"surveyCount"`
	ResponseCount   int `json:"responseCount"`
	UniqueUserCount int `json:"uniqueUserCount"`
}
