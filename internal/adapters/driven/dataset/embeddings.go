package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// LoadEmbeddings reads one comma-separated float row per recipe.
// A non-numeric first row is treated as a header. Every row must have the
// same width. Returns (nil, nil) when no embeddings file is configured.
func (l *Loader) LoadEmbeddings(ctx context.Context) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.embeddingsPath == "" {
		return nil, nil
	}

	rows, err := readCSV(l.embeddingsPath)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		vec, err := parseVector(row)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: embeddings row %d: %w", domain.ErrDatasetUnavailable, i+1, err)
		}
		if len(out) > 0 && len(vec) != len(out[0]) {
			return nil, fmt.Errorf("%w: embeddings row %d has %d values, expected %d",
				domain.ErrDatasetUnavailable, i+1, len(vec), len(out[0]))
		}
		out = append(out, vec)
	}
	return out, nil
}

func parseVector(row []string) ([]float32, error) {
	vec := make([]float32, len(row))
	for i, cell := range row {
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 32)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
