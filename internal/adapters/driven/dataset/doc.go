// Package dataset reads the offline reference data from disk: the recipe
// table (CSV or XLSX), its parallel embeddings file and the labelled
// queries used to train the safety classifier.
//
// Recipe tables start with a header row. Column names are matched
// case-insensitively and accept French aliases:
//
//	id, title (titre), preparation_time (temps_preparation), ingredients,
//	instructions, diet_tags (regimes), nutrition_per_100g, nutrition_per_serving
//
// List columns (ingredients, diet_tags) separate items with "|".
// Only title is required; a missing id defaults to the 1-based row number.
package dataset
