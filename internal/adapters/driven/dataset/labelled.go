package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure LabelledLoader implements the interface.
var _ driven.LabelledDatasetLoader = (*LabelledLoader)(nil)

// LabelledLoader reads "text,label" rows for classifier training.
// The header must name a text column (text, query or prompt) and a label column.
type LabelledLoader struct {
	path string
}

// NewLabelledLoader creates a loader for the CSV file at path.
func NewLabelledLoader(path string) *LabelledLoader {
	return &LabelledLoader{path: path}
}

// LoadExamples returns the labelled examples in file order.
func (l *LabelledLoader) LoadExamples(ctx context.Context) ([]domain.LabelledExample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := readCSV(l.path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: labelled file has no examples", domain.ErrDatasetUnavailable)
	}

	textCol, labelCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "text", "query", "prompt":
			textCol = i
		case "label":
			labelCol = i
		}
	}
	if textCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("%w: labelled file needs text and label columns", domain.ErrDatasetUnavailable)
	}

	examples := make([]domain.LabelledExample, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if textCol >= len(row) || labelCol >= len(row) {
			return nil, fmt.Errorf("%w: row %d is missing columns", domain.ErrDatasetUnavailable, i+2)
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[labelCol]))
		label := domain.Label(n)
		if err != nil || !label.IsValid() {
			return nil, fmt.Errorf("%w: row %d: label must be 0 or 1, got %q",
				domain.ErrDatasetUnavailable, i+2, row[labelCol])
		}
		examples = append(examples, domain.LabelledExample{
			Text:  strings.TrimSpace(row[textCol]),
			Label: label,
		})
	}
	return examples, nil
}
