package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DatasetLoader = (*Loader)(nil)

// listSeparator splits multi-valued cells.
const listSeparator = "|"

// Loader reads recipes and precomputed embeddings from files.
type Loader struct {
	recipesPath    string
	embeddingsPath string
}

// NewLoader creates a loader for the configured dataset files.
func NewLoader(settings domain.DatasetSettings) *Loader {
	return &Loader{
		recipesPath:    settings.RecipesPath,
		embeddingsPath: settings.EmbeddingsPath,
	}
}

// LoadDocuments returns the recipes in file order.
func (l *Loader) LoadDocuments(ctx context.Context) ([]domain.ReferenceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.recipesPath == "" {
		return nil, fmt.Errorf("%w: no recipe file configured (dataset.recipes_path)", domain.ErrDatasetUnavailable)
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(l.recipesPath)); ext {
	case ".csv":
		rows, err = readCSV(l.recipesPath)
	case ".xlsx":
		rows, err = readXLSX(l.recipesPath)
	default:
		return nil, fmt.Errorf("%w: unsupported recipe file type %q", domain.ErrDatasetUnavailable, ext)
	}
	if err != nil {
		return nil, err
	}
	return parseRecipes(rows)
}

// column aliases, keyed by normalised header.
var recipeColumns = map[string]string{
	"id":                    "id",
	"title":                 "title",
	"titre":                 "title",
	"preparation_time":      "preparation_time",
	"temps_preparation":     "preparation_time",
	"ingredients":           "ingredients",
	"instructions":          "instructions",
	"diet_tags":             "diet_tags",
	"regimes":               "diet_tags",
	"nutrition_per_100g":    "nutrition_per_100g",
	"nutrition_per_serving": "nutrition_per_serving",
}

func parseRecipes(rows [][]string) ([]domain.ReferenceDocument, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: recipe file is empty", domain.ErrDatasetUnavailable)
	}

	index := make(map[string]int)
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if field, ok := recipeColumns[key]; ok {
			index[field] = i
		}
	}
	if _, ok := index["title"]; !ok {
		return nil, fmt.Errorf("%w: recipe file has no title column", domain.ErrDatasetUnavailable)
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	docs := make([]domain.ReferenceDocument, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		doc := domain.ReferenceDocument{
			ID:                  cell(row, "id"),
			Title:               cell(row, "title"),
			PreparationTime:     cell(row, "preparation_time"),
			Ingredients:         splitList(cell(row, "ingredients")),
			Instructions:        cell(row, "instructions"),
			DietTags:            splitList(cell(row, "diet_tags")),
			NutritionPer100g:    cell(row, "nutrition_per_100g"),
			NutritionPerServing: cell(row, "nutrition_per_serving"),
		}
		if doc.ID == "" {
			doc.ID = strconv.Itoa(n + 1)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrDatasetUnavailable, filepath.Base(path), err)
	}
	return rows, nil
}

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) ([][]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrDatasetUnavailable, filepath.Base(path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", domain.ErrDatasetUnavailable, filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", domain.ErrDatasetUnavailable, sheets[0], err)
	}
	return rows, nil
}
