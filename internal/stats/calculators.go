// Package stats implements the per-question statistic calculators. Every
// calculator is a pure, total function over its inputs: the empty response
// set is a valid input and dirty or legacy answers are skipped, never an
// error, so aggregation cannot fail on data that drifted from the schema.
package stats

import (
	"strings"

	"github.com/tallyform/tallyform/internal/models"
)

// Aggregate runs the calculator for every question over the full response
// collection and stamps each record with the overall response count.
func Aggregate(questions []models.Question, responses []models.Response) map[string]*models.QuestionStats {
	perQuestion := make(map[string]*models.QuestionStats, len(questions))

	for _, q := range questions {
		perQuestion[q.ID] = &models.QuestionStats{
			Type:           q.Type,
			TotalResponses: len(responses),
			Data:           Calculate(q, responses),
		}
	}

	return perQuestion
}

// Calculate dispatches to the calculator for the question's type
func Calculate(q models.Question, responses []models.Response) models.StatsData {
	switch q.Type {
	case models.QuestionTypeMultipleChoice:
		return MultipleChoice(q, responses)
	case models.QuestionTypeMultipleSelection:
		return MultipleSelection(q, responses)
	case models.QuestionTypeYesNo:
		return YesNo(q, responses)
	case models.QuestionTypeScale:
		return Scale(q, responses)
	case models.QuestionTypeText:
		return Text(q, responses)
	case models.QuestionTypeDate:
		return Date(q, responses)
	}
	// unknown types get an empty text record rather than a crash
	return models.TextStats{Answers: []models.TextAnswer{}}
}

// MultipleChoice counts occurrences per declared option. Answers that do
// not match a declared option are silently excluded from both the counts
// and the total; validation should have prevented them, but historical
// responses may predate a schema edit.
func MultipleChoice(q models.Question, responses []models.Response) models.ChoiceStats {
	counts := zeroCounts(q.Options)
	total := 0

	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		value, ok := answer.Text()
		if !ok {
			continue
		}
		if _, declared := counts[value]; declared {
			counts[value]++
			total++
		}
	}

	return models.ChoiceStats{
		Counts:      counts,
		Percentages: percentages(counts, total),
		Total:       total,
	}
}

// MultipleSelection counts every selected declared option, so the total is
// the number of counted selections, not the number of respondents.
func MultipleSelection(q models.Question, responses []models.Response) models.ChoiceStats {
	counts := zeroCounts(q.Options)
	total := 0

	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		selections, ok := answer.List()
		if !ok {
			continue
		}
		for _, sel := range selections {
			if _, declared := counts[sel]; declared {
				counts[sel]++
				total++
			}
		}
	}

	return models.ChoiceStats{
		Counts:      counts,
		Percentages: percentages(counts, total),
		Total:       total,
	}
}

// YesNo is a fixed two-bucket count. Answers are matched to the "yes" and
// "no" buckets case-insensitively; anything else is excluded.
func YesNo(q models.Question, responses []models.Response) models.ChoiceStats {
	counts := map[string]int{"yes": 0, "no": 0}
	total := 0

	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		value, ok := answer.Text()
		if !ok {
			continue
		}
		bucket := strings.ToLower(strings.TrimSpace(value))
		if _, declared := counts[bucket]; declared {
			counts[bucket]++
			total++
		}
	}

	return models.ChoiceStats{
		Counts:      counts,
		Percentages: percentages(counts, total),
		Total:       total,
	}
}

// Scale computes the arithmetic mean, minimum and maximum over the
// coerced-numeric answers, plus a histogram keyed by every integer in the
// declared bounds, zero-filled for unseen values. With zero numeric answers
// the record is exactly {average:0, min:0, max:0, count:0} and carries no
// distribution.
func Scale(q models.Question, responses []models.Response) models.ScaleStats {
	var values []float64

	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		value, ok := answer.Number()
		if !ok {
			continue
		}
		values = append(values, value)
	}

	if len(values) == 0 {
		return models.ScaleStats{}
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	distribution := make(map[int]int)
	if q.Bounds != nil {
		for i := q.Bounds.Min; i <= q.Bounds.Max; i++ {
			distribution[i] = 0
		}
	}
	for _, v := range values {
		bucket := int(v)
		if _, inRange := distribution[bucket]; inRange {
			distribution[bucket]++
		}
	}

	return models.ScaleStats{
		Average:      models.NewTwoDecimal(sum / float64(len(values))),
		Min:          min,
		Max:          max,
		Count:        len(values),
		Distribution: distribution,
	}
}

// Text collects every non-empty answer verbatim, paired with its response's
// submission time, in response-iteration order
func Text(q models.Question, responses []models.Response) models.TextStats {
	answers := []models.TextAnswer{}

	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		value, ok := answer.Text()
		if !ok {
			continue
		}
		answers = append(answers, models.TextAnswer{
			Text:        value,
			SubmittedAt: r.SubmittedAt,
		})
	}

	return models.TextStats{Answers: answers, Count: len(answers)}
}

// Date collects every non-empty answer verbatim, in response-iteration order
func Date(q models.Question, responses []models.Response) models.DateStats {
	dates := []string{}

	for _, r := range responses {
		answer, ok := r.Answers[q.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		value, ok := answer.Text()
		if !ok {
			continue
		}
		dates = append(dates, value)
	}

	return models.DateStats{Dates: dates, Count: len(dates)}
}

func zeroCounts(options []string) map[string]int {
	counts := make(map[string]int, len(options))
	for _, opt := range options {
		counts[opt] = 0
	}
	return counts
}

func percentages(counts map[string]int, total int) map[string]models.TwoDecimal {
	out := make(map[string]models.TwoDecimal, len(counts))
	for opt, count := range counts {
		if total == 0 {
			out[opt] = models.TwoDecimal{}
			continue
		}
		out[opt] = models.NewTwoDecimal(float64(count) / float64(total) * 100)
	}
	return out
}
