package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoDecimal_Marshal(t *testing.T) {
	set, err := json.Marshal(NewTwoDecimal(66.66666))
	require.NoError(t, err)
	assert.Equal(t, `"66.67"`, string(set))

	// an unset value marshals as the bare number 0, not a string
	unset, err := json.Marshal(TwoDecimal{})
	require.NoError(t, err)
	assert.Equal(t, `0`, string(unset))
}

func TestTwoDecimal_Unmarshal(t *testing.T) {
	var d TwoDecimal
	require.NoError(t, json.Unmarshal([]byte(`"4.67"`), &d))
	assert.Equal(t, "4.67", d.String())
	assert.False(t, d.IsZero())

	var zero TwoDecimal
	require.NoError(t, json.Unmarshal([]byte(`0`), &zero))
	assert.True(t, zero.IsZero())
	assert.Equal(t, "0", zero.String())
}

func TestReport_CacheRoundTrip(t *testing.T) {
	report := &Report{
		SurveyID:       uuid.New(),
		TotalResponses: 3,
		GeneratedAt:    time.Now().UTC().Truncate(time.Second),
		PerQuestion: map[string]*QuestionStats{
			"q1": {
				Type:           QuestionTypeMultipleChoice,
				TotalResponses: 3,
				Data: ChoiceStats{
					Counts: map[string]int{"Red": 2, "Blue": 1, "Green": 0},
					Percentages: map[string]TwoDecimal{
						"Red":   NewTwoDecimal(66.666666),
						"Blue":  NewTwoDecimal(33.333333),
						"Green": NewTwoDecimal(0),
					},
					Total: 3,
				},
			},
			"q2": {
				Type:           QuestionTypeScale,
				TotalResponses: 3,
				Data: ScaleStats{
					Average:      NewTwoDecimal(4.666666),
					Min:          4,
					Max:          5,
					Count:        3,
					Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2},
				},
			},
			"q3": {
				Type:           QuestionTypeText,
				TotalResponses: 3,
				Data: TextStats{
					Answers: []TextAnswer{{Text: "hi", SubmittedAt: time.Now().UTC().Truncate(time.Second)}},
					Count:   1,
				},
			},
			"q4": {
				Type:           QuestionTypeScale,
				TotalResponses: 3,
				// no numeric answers: the exact zero record, no distribution
				Data: ScaleStats{},
			},
		},
	}

	encoded, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	assert.Equal(t, report.TotalResponses, decoded.TotalResponses)

	choice, ok := decoded.PerQuestion["q1"].Data.(ChoiceStats)
	require.True(t, ok)
	assert.Equal(t, 2, choice.Counts["Red"])
	assert.Equal(t, "66.67", choice.Percentages["Red"].String())

	scale, ok := decoded.PerQuestion["q2"].Data.(ScaleStats)
	require.True(t, ok)
	assert.Equal(t, "4.67", scale.Average.String())
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2}, scale.Distribution)

	text, ok := decoded.PerQuestion["q3"].Data.(TextStats)
	require.True(t, ok)
	assert.Equal(t, 1, text.Count)

	empty, ok := decoded.PerQuestion["q4"].Data.(ScaleStats)
	require.True(t, ok)
	assert.True(t, empty.Average.IsZero())
	assert.Nil(t, empty.Distribution)
}

func TestScaleStats_EmptyOmitsDistribution(t *testing.T) {
	encoded, err := json.Marshal(ScaleStats{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"average":0,"min":0,"max":0,"count":0}`, string(encoded))
}
