package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Report holds the aggregated statistics for one survey. It is transient:
// recomputed from the question schema and the stored responses, and safe to
// discard and rebuild at any time.
type Report struct {
	SurveyID       uuid.UUID                 `json:"surveyId"`
	TotalResponses int                       `json:"totalResponses"`
	PerQuestion    map[string]*QuestionStats `json:"perQuestion"`
	GeneratedAt    time.Time                 `json:"generatedAt"`
}

// QuestionStats is one per-question record in a report. TotalResponses is
// the count of all responses considered for the survey, which may differ
// from the question-specific total inside Data.
type QuestionStats struct {
	Type           QuestionType `json:"type"`
	TotalResponses int          `json:"totalResponses"`
	Data           StatsData    `json:"data"`
}

// StatsData is the tagged union of per-type statistic records. Keying the
// shape on the question type gives the calculators compile-time
// exhaustiveness instead of open-ended maps.
type StatsData interface {
	statsData()
}

// ChoiceStats covers multiple_choice, multiple_selection and yes_no
// questions. Every declared option is present in Counts, zero-filled.
type ChoiceStats struct {
	Counts      map[string]int        `json:"counts"`
	Percentages map[string]TwoDecimal `json:"percentages"`
	Total       int                   `json:"total"`
}

// ScaleStats covers scale questions. With zero numeric answers the record
// is exactly {average:0, min:0, max:0, count:0} and Distribution is absent;
// otherwise Distribution spans every integer in the declared bounds.
type ScaleStats struct {
	Average      TwoDecimal  `json:"average"`
	Min          float64     `json:"min"`
	Max          float64     `json:"max"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution,omitempty"`
}

// TextStats collects free-form answers verbatim, in response order
type TextStats struct {
	Answers []TextAnswer `json:"answers"`
	Count   int          `json:"count"`
}

// TextAnswer pairs one free-form answer with its submission time
type TextAnswer struct {
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// DateStats collects date answers verbatim, in response order
type DateStats struct {
	Dates []string `json:"dates"`
	Count int      `json:"count"`
}

func (ChoiceStats) statsData() {}
func (ScaleStats) statsData()  {}
func (TextStats) statsData()   {}
func (DateStats) statsData()   {}

// TwoDecimal is a ratio formatted to two decimal places. It marshals as a
// fixed two-decimal string ("66.67"), except when it has no value, in which
// case it marshals as the bare number 0.
type TwoDecimal struct {
	value float64
	set   bool
}

// NewTwoDecimal returns a set TwoDecimal carrying v
func NewTwoDecimal(v float64) TwoDecimal {
	return TwoDecimal{value: v, set: true}
}

// IsZero reports whether the value is unset
func (d TwoDecimal) IsZero() bool {
	return !d.set
}

func (d TwoDecimal) String() string {
	if !d.set {
		return "0"
	}
	return strconv.FormatFloat(d.value, 'f', 2, 64)
}

func (d TwoDecimal) MarshalJSON() ([]byte, error) {
	if !d.set {
		return []byte("0"), nil
	}
	return json.Marshal(d.String())
}

func (d *TwoDecimal) UnmarshalJSON(data []byte) error {
	if string(data) == "0" {
		*d = TwoDecimal{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("two-decimal value must be a string or 0: %w", err)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid two-decimal value %q: %w", s, err)
	}

	*d = TwoDecimal{value: v, set: true}
	return nil
}

// UnmarshalJSON decodes the per-type Data record based on the Type tag, so
// reports survive a serialize/deserialize round trip through the cache.
func (qs *QuestionStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type           QuestionType    `json:"type"`
		TotalResponses int             `json:"totalResponses"`
		Data           json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	qs.Type = raw.Type
	qs.TotalResponses = raw.TotalResponses

	if len(raw.Data) == 0 {
		return nil
	}

	switch raw.Type {
	case QuestionTypeMultipleChoice, QuestionTypeMultipleSelection, QuestionTypeYesNo:
		var d ChoiceStats
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		qs.Data = d
	case QuestionTypeScale:
		var d ScaleStats
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		qs.Data = d
	case QuestionTypeText:
		var d TextStats
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		qs.Data = d
	case QuestionTypeDate:
		var d DateStats
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return err
		}
		qs.Data = d
	default:
		return fmt.Errorf("unknown question type '%s' in report", raw.Type)
	}

	return nil
}
