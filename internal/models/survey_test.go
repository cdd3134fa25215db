package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDefinition() *SurveyDefinition {
	return &SurveyDefinition{
		Questions: []Question{
			{
				ID:       "q1",
				Text:     "Favorite color",
				Type:     QuestionTypeMultipleChoice,
				Required: true,
				Options:  []string{"Red", "Blue", "Green"},
			},
			{
				ID:     "q2",
				Text:   "How satisfied are you?",
				Type:   QuestionTypeScale,
				Bounds: &Bounds{Min: 1, Max: 5},
			},
			{
				ID:   "q3",
				Text: "Any comments?",
				Type: QuestionTypeText,
			},
		},
	}
}

func TestValidateDefinition_Valid(t *testing.T) {
	def := validDefinition()
	assert.NoError(t, def.ValidateDefinition())
}

func TestValidateDefinition_NoQuestions(t *testing.T) {
	def := &SurveyDefinition{}
	assert.Error(t, def.ValidateDefinition())
}

func TestValidateDefinition_ChoiceNeedsTwoOptions(t *testing.T) {
	def := &SurveyDefinition{
		Questions: []Question{
			{ID: "q1", Text: "Pick one", Type: QuestionTypeMultipleChoice, Options: []string{"Only"}},
		},
	}
	err := def.ValidateDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 options")

	def.Questions[0].Type = QuestionTypeMultipleSelection
	err = def.ValidateDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 options")
}

func TestValidateDefinition_ScaleBounds(t *testing.T) {
	def := &SurveyDefinition{
		Questions: []Question{
			{ID: "q1", Text: "Rate it", Type: QuestionTypeScale},
		},
	}
	err := def.ValidateDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation bounds")

	def.Questions[0].Bounds = &Bounds{Min: 5, Max: 5}
	err = def.ValidateDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min must be less than max")

	def.Questions[0].Bounds = &Bounds{Min: 1, Max: 5}
	assert.NoError(t, def.ValidateDefinition())
}

func TestValidateDefinition_DuplicateQuestionID(t *testing.T) {
	def := &SurveyDefinition{
		Questions: []Question{
			{ID: "q1", Text: "First", Type: QuestionTypeText},
			{ID: "q1", Text: "Second", Type: QuestionTypeText},
		},
	}
	err := def.ValidateDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate question ID")
}

func TestValidateDefinition_UnknownType(t *testing.T) {
	def := &SurveyDefinition{
		Questions: []Question{
			{ID: "q1", Text: "What?", Type: "ranking"},
		},
	}
	err := def.ValidateDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid question type")
}

func TestValidateDefinition_SanitizesText(t *testing.T) {
	def := &SurveyDefinition{
		Questions: []Question{
			{ID: "q1", Text: "Hello <script>alert(1)</script>world", Type: QuestionTypeText},
		},
	}
	require.NoError(t, def.ValidateDefinition())
	assert.Equal(t, "Hello world", def.Questions[0].Text)
}

func TestParseSurveyDefinition_JSON(t *testing.T) {
	data := []byte(`{
		"questions": [
			{"id": "q1", "text": "Pick", "type": "multiple_choice", "options": ["A", "B"]},
			{"id": "q2", "text": "Rate", "type": "scale", "validation": {"min": 1, "max": 10}}
		]
	}`)

	def, err := ParseSurveyDefinition(data)
	require.NoError(t, err)
	require.Len(t, def.Questions, 2)
	assert.Equal(t, QuestionTypeMultipleChoice, def.Questions[0].Type)
	assert.Equal(t, []string{"A", "B"}, def.Questions[0].Options)
	require.NotNil(t, def.Questions[1].Bounds)
	assert.Equal(t, 1, def.Questions[1].Bounds.Min)
	assert.Equal(t, 10, def.Questions[1].Bounds.Max)
}

func TestParseSurveyDefinition_YAML(t *testing.T) {
	data := []byte(`
questions:
  - id: q1
    text: Pick one
    type: multiple_choice
    required: true
    options:
      - Red
      - Blue
anonymous: true
`)

	def, err := ParseSurveyDefinition(data)
	require.NoError(t, err)
	require.Len(t, def.Questions, 1)
	assert.True(t, def.Anonymous)
	assert.True(t, def.Questions[0].Required)
	assert.Equal(t, []string{"Red", "Blue"}, def.Questions[0].Options)
}

func TestParseSurveyDefinition_TooLarge(t *testing.T) {
	data := make([]byte, MaxSurveyDefinitionSize+1)
	_, err := ParseSurveyDefinition(data)
	assert.Error(t, err)
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("my-survey-2026"))
	assert.Error(t, ValidateSlug("ab"))
	assert.Error(t, ValidateSlug("-leading-hyphen"))
	assert.Error(t, ValidateSlug("UPPERCASE"))
}

func TestHasOption(t *testing.T) {
	q := Question{Options: []string{"Red", "Blue"}}
	assert.True(t, q.HasOption("Red"))
	assert.False(t, q.HasOption("red")) // exact string match only
	assert.False(t, q.HasOption("Green"))
}
