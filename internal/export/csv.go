// Package export flattens a survey's responses into a delimited text table.
// The exporter is driven from the same response collection the aggregation
// layer fetches: per-question statistics alone cannot reconstruct rows.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/tallyform/tallyform/internal/models"
)

// ContentType is the media type of the produced table
const ContentType = "text/csv"

// BuildCSV renders one header row from the question labels in schema order,
// then one row per response with each answer in the matching column.
// Questions a response did not answer yield empty cells.
func BuildCSV(questions []models.Question, responses []models.Response) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(questions))
	for i, q := range questions {
		header[i] = q.Text
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(questions))
	for _, r := range responses {
		for i, q := range questions {
			row[i] = renderCell(r.Answers[q.ID])
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	return buf.Bytes(), nil
}

// renderCell reconstructs the submitted value as a single cell. Multiple
// selections are joined with "; ".
func renderCell(answer models.Answer) string {
	if answer.IsEmpty() {
		return ""
	}

	if text, ok := answer.Text(); ok {
		return text
	}

	if n, ok := answer.Number(); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	if selections, ok := answer.List(); ok {
		return strings.Join(selections, "; ")
	}

	return ""
}
